package models

import (
	"github.com/google/uuid"
)

type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "PENDING"
	FriendStatusAccepted FriendStatus = "ACCEPTED"
	FriendStatusRejected FriendStatus = "REJECTED"
	FriendStatusBlocked  FriendStatus = "BLOCKED"
)

// Friend is one relationship edge. SenderID is the side that initiated the
// request; for BLOCKED edges it is the side that blocked.
type Friend struct {
	Model
	SenderID   uuid.UUID    `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID uuid.UUID    `gorm:"type:uuid;index;not null" json:"receiver_id"`
	Status     FriendStatus `gorm:"index" json:"status"`
}

// FriendRequest targets another user by id.
type FriendRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// FriendResponse decorates a friend edge with the peer's public profile.
type FriendResponse struct {
	UserID    uuid.UUID    `json:"user_id"`
	Username  string       `json:"username"`
	Fullname  string       `json:"fullname"`
	AvatarURL string       `json:"avatar_url,omitempty"`
	Status    FriendStatus `json:"status"`
	Online    bool         `json:"online"`
}
