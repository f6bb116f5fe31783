package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MessageType string

const (
	MessageTypeText    MessageType = "TEXT"
	MessageTypeImage   MessageType = "IMAGE"
	MessageTypeVideo   MessageType = "VIDEO"
	MessageTypeAudio   MessageType = "AUDIO"
	MessageTypeFile    MessageType = "FILE"
	MessageTypeForward MessageType = "FORWARD"
	MessageTypeGif     MessageType = "GIF"
	MessageTypeSticker MessageType = "STICKER"
)

type MessageStatus string

const (
	MessageStatusSent MessageStatus = "SENT"
)

// RecallPlaceholder replaces the visible content of a recalled message.
const RecallPlaceholder = "This message has been recalled"

// VideoInfo carries the upload URL and thumbnail for a single video attachment.
type VideoInfo struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// MessageReference is a back-reference to a forwarded message. Only ids are
// stored; the referenced message is resolved by lookup, never embedded.
type MessageReference struct {
	MessageID        uuid.UUID `json:"message_id"`
	OriginalSenderID uuid.UUID `json:"original_sender_id"`
	ForwardedAt      time.Time `json:"forwarded_at"`
}

type Message struct {
	Model
	TempID           string                         `gorm:"index" json:"temp_id,omitempty"`
	SenderID         uuid.UUID                      `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID       *uuid.UUID                     `gorm:"type:uuid;index" json:"receiver_id,omitempty"`
	GroupID          *uuid.UUID                     `gorm:"type:uuid;index" json:"group_id,omitempty"`
	Type             MessageType                    `gorm:"default:TEXT" json:"type"`
	Content          string                         `json:"content"`
	ImageUrls        datatypes.JSONSlice[string]    `json:"image_urls,omitempty"`
	VideoInfos       datatypes.JSONSlice[VideoInfo] `json:"video_infos,omitempty"`
	Thumbnail        string                         `json:"thumbnail,omitempty"`
	FileName         string                         `json:"file_name,omitempty"`
	ReplyToMessageID *uuid.UUID                     `gorm:"type:uuid" json:"reply_to_message_id,omitempty"`
	ForwardedFrom    *MessageReference              `gorm:"serializer:json" json:"forwarded_from,omitempty"`
	Recalled         bool                           `gorm:"default:false" json:"recalled"`
	Edited           bool                           `gorm:"default:false" json:"edited"`
	// ContentBeforeMutation holds the content as it was before the first
	// recall or edit, so clients can render "edited" diffs.
	ContentBeforeMutation string                      `json:"content_before_mutation,omitempty"`
	DeletedBy             datatypes.JSONSlice[string] `json:"deleted_by,omitempty"`
	Pinned                bool                        `gorm:"default:false" json:"pinned"`
	PinnedAt              *time.Time                  `json:"pinned_at,omitempty"`
	Read                  bool                        `gorm:"default:false" json:"read"`
	Status                MessageStatus               `gorm:"default:SENT" json:"status"`
}

// IsGroupMessage reports whether the message is addressed to a group.
func (m *Message) IsGroupMessage() bool {
	return m.GroupID != nil
}

// DeletedFor reports whether userID has hidden this message for themselves.
func (m *Message) DeletedFor(userID uuid.UUID) bool {
	id := userID.String()
	for _, d := range m.DeletedBy {
		if d == id {
			return true
		}
	}
	return false
}

// MarkDeletedFor adds userID to the per-user delete set. Idempotent.
func (m *Message) MarkDeletedFor(userID uuid.UUID) {
	if m.DeletedFor(userID) {
		return
	}
	m.DeletedBy = append(m.DeletedBy, userID.String())
}

// HasMedia reports whether any media attachment fields are set.
func (m *Message) HasMedia() bool {
	return len(m.ImageUrls) > 0 || len(m.VideoInfos) > 0 || m.Thumbnail != "" || m.FileName != ""
}

// MessageRequest is the inbound payload for sending a message. Exactly one of
// ReceiverID or GroupID must be set.
type MessageRequest struct {
	TempID           string      `json:"temp_id,omitempty"`
	ReceiverID       *uuid.UUID  `json:"receiver_id,omitempty"`
	GroupID          *uuid.UUID  `json:"group_id,omitempty"`
	Content          string      `json:"content"`
	Type             MessageType `json:"type"`
	ImageUrls        []string    `json:"image_urls,omitempty"`
	VideoInfos       []VideoInfo `json:"video_infos,omitempty"`
	Thumbnail        string      `json:"thumbnail,omitempty"`
	FileName         string      `json:"file_name,omitempty"`
	ReplyToMessageID *uuid.UUID  `json:"reply_to_message_id,omitempty"`
}

// HasMedia reports whether the request carries any media attachment fields.
func (r *MessageRequest) HasMedia() bool {
	return len(r.ImageUrls) > 0 || len(r.VideoInfos) > 0 || r.Thumbnail != "" || r.FileName != ""
}

// ForwardRequest names the message to forward and its new target.
type ForwardRequest struct {
	MessageID  uuid.UUID  `json:"message_id" binding:"required"`
	ReceiverID *uuid.UUID `json:"receiver_id,omitempty"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
}

// EditRequest carries replacement content for an existing message.
type EditRequest struct {
	Content string `json:"content" binding:"required"`
}

// ValidateMessagePayload rejects type/payload combinations that have no legal
// meaning: text-like messages must not carry attachments, media messages must
// carry at least one. FORWARD is never a legal send type, since a forward
// without a back-reference to its origin is unrenderable.
func ValidateMessagePayload(t MessageType, content string, hasMedia bool) error {
	switch t {
	case MessageTypeText, MessageTypeGif, MessageTypeSticker:
		if content == "" {
			return fmt.Errorf("content is required for %s messages", t)
		}
		if hasMedia {
			return fmt.Errorf("%s messages cannot carry media attachments", t)
		}
	case MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeFile:
		if !hasMedia && content == "" {
			return fmt.Errorf("%s messages require at least one attachment", t)
		}
	case MessageTypeForward:
		return fmt.Errorf("%s messages cannot be composed directly", t)
	default:
		return fmt.Errorf("unknown message type %q", t)
	}
	return nil
}
