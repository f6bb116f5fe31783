package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CallType string

const (
	CallTypeAudio      CallType = "CALL"
	CallTypeVideo      CallType = "VIDEO_CALL"
	CallTypeGroupAudio CallType = "GROUP_CALL"
	CallTypeGroupVideo CallType = "GROUP_VIDEO_CALL"
)

type CallStatus string

const (
	CallStatusInitiated CallStatus = "INITIATED"
	CallStatusActive    CallStatus = "ACTIVE"
	CallStatusEnded     CallStatus = "ENDED"
)

type Call struct {
	Model
	CallerID       uuid.UUID                   `gorm:"type:uuid;index;not null" json:"caller_id"`
	ReceiverID     *uuid.UUID                  `gorm:"type:uuid;index" json:"receiver_id,omitempty"`
	GroupID        *uuid.UUID                  `gorm:"type:uuid;index" json:"group_id,omitempty"`
	Type           CallType                    `json:"type"`
	ParticipantIDs datatypes.JSONSlice[string] `json:"participant_ids"`
	Status         CallStatus                  `gorm:"index" json:"status"`
	StartAt        time.Time                   `json:"start_at"`
	EndAt          *time.Time                  `json:"end_at,omitempty"`
}

// IsGroupCall reports whether the call is addressed to a group.
func (c *Call) IsGroupCall() bool {
	return c.GroupID != nil
}

// HasParticipant reports whether userID has joined the call.
func (c *Call) HasParticipant(userID uuid.UUID) bool {
	id := userID.String()
	for _, p := range c.ParticipantIDs {
		if p == id {
			return true
		}
	}
	return false
}

// AddParticipant records userID as a call participant. Idempotent; the
// participant set only grows.
func (c *Call) AddParticipant(userID uuid.UUID) {
	if c.HasParticipant(userID) {
		return
	}
	c.ParticipantIDs = append(c.ParticipantIDs, userID.String())
}

// InitiateCallRequest starts a call toward a user or a group.
type InitiateCallRequest struct {
	ReceiverID *uuid.UUID  `json:"receiver_id,omitempty"`
	GroupID    *uuid.UUID  `json:"group_id,omitempty"`
	Type       CallType    `json:"type" binding:"required"`
	Offer      interface{} `json:"offer"`
}

// AnswerCallRequest carries the SDP answer for an initiated call.
type AnswerCallRequest struct {
	Answer interface{} `json:"answer"`
}

// IceCandidateRequest relays one ICE candidate to the other call side(s).
type IceCandidateRequest struct {
	Candidate interface{} `json:"candidate" binding:"required"`
}
