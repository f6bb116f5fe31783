package services

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/techagentng/chatline/config"
	"github.com/techagentng/chatline/db"
	apiError "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
)

// MessageService owns the message state machine: send, recall, per-user
// delete, edit, forward, read, pin and the history/search reads. Every
// operation takes the resolved caller id explicitly; success is defined by
// persistence alone, fan-out is driven separately by the caller.
type MessageService interface {
	SendMessage(senderID uuid.UUID, req *models.MessageRequest) (*models.Message, *apiError.Error)
	RecallMessage(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error)
	DeleteMessageForUser(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error)
	EditMessage(messageID, callerID uuid.UUID, newContent string) (*models.Message, *apiError.Error)
	ForwardMessage(callerID uuid.UUID, req *models.ForwardRequest) (*models.Message, *apiError.Error)
	MarkMessageRead(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error)
	PinMessage(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error)
	UnpinMessage(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error)
	ResolveByTempID(tempID string) (uuid.UUID, *apiError.Error)
	ChatHistory(principalID, peerID uuid.UUID) ([]models.Message, *apiError.Error)
	GroupChatHistory(groupID, principalID uuid.UUID) ([]models.Message, *apiError.Error)
	PinnedMessages(principalID uuid.UUID, peerID, groupID *uuid.UUID) ([]models.Message, *apiError.Error)
	SearchMessages(principalID uuid.UUID, peerID, groupID *uuid.UUID, keyword string) ([]models.Message, *apiError.Error)
}

type messageService struct {
	Config      *config.Config
	messageRepo db.MessageRepository
	checker     relationshipChecker
}

func NewMessageService(messageRepo db.MessageRepository, authRepo db.AuthRepository,
	friendRepo db.FriendRepository, groupRepo db.GroupRepository, conf *config.Config) MessageService {
	return &messageService{
		Config:      conf,
		messageRepo: messageRepo,
		checker: relationshipChecker{
			authRepo:   authRepo,
			friendRepo: friendRepo,
			groupRepo:  groupRepo,
		},
	}
}

func (m *messageService) SendMessage(senderID uuid.UUID, req *models.MessageRequest) (*models.Message, *apiError.Error) {
	if err := exactlyOneTarget(req.ReceiverID, req.GroupID); err != nil {
		return nil, err
	}

	msgType := req.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if err := models.ValidateMessagePayload(msgType, req.Content, req.HasMedia()); err != nil {
		return nil, apiError.BadRequest(err.Error())
	}

	if req.GroupID != nil {
		if _, err := m.checker.validateGroupTarget(*req.GroupID, senderID); err != nil {
			return nil, err
		}
	} else {
		if err := m.checker.validateDirectTarget(senderID, *req.ReceiverID); err != nil {
			return nil, err
		}
	}

	message := &models.Message{
		TempID:           req.TempID,
		SenderID:         senderID,
		ReceiverID:       req.ReceiverID,
		GroupID:          req.GroupID,
		Type:             msgType,
		Content:          req.Content,
		ImageUrls:        datatypes.NewJSONSlice(req.ImageUrls),
		VideoInfos:       datatypes.NewJSONSlice(req.VideoInfos),
		Thumbnail:        req.Thumbnail,
		FileName:         req.FileName,
		ReplyToMessageID: req.ReplyToMessageID,
		Status:           models.MessageStatusSent,
	}

	created, err := m.messageRepo.CreateMessage(message)
	if err != nil {
		log.Printf("error saving message from %s: %v", senderID, err)
		return nil, apiError.ErrInternalServerError
	}
	return created, nil
}

func (m *messageService) RecallMessage(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error) {
	message, err := m.messageRepo.FindMessageByID(messageID)
	if err != nil {
		return nil, apiError.NotFound("message not found")
	}
	if message.SenderID != callerID {
		return nil, apiError.Forbidden("only the sender can recall a message")
	}
	if message.Recalled {
		// Repeated recalls succeed without touching the snapshot.
		return message, nil
	}

	message.ContentBeforeMutation = message.Content
	message.Content = models.RecallPlaceholder
	message.Recalled = true

	if err := m.messageRepo.UpdateMessage(message); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	log.Printf("message recalled: %s by sender %s", messageID, callerID)
	return message, nil
}

func (m *messageService) DeleteMessageForUser(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error) {
	message, err := m.messageRepo.FindMessageByID(messageID)
	if err != nil {
		return nil, apiError.NotFound("message not found")
	}
	if message.DeletedFor(callerID) {
		return message, nil
	}

	message.MarkDeletedFor(callerID)
	if err := m.messageRepo.UpdateMessage(message); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return message, nil
}

func (m *messageService) EditMessage(messageID, callerID uuid.UUID, newContent string) (*models.Message, *apiError.Error) {
	if strings.TrimSpace(newContent) == "" {
		return nil, apiError.BadRequest("content cannot be empty")
	}
	message, err := m.messageRepo.FindMessageByID(messageID)
	if err != nil {
		return nil, apiError.NotFound("message not found")
	}
	if message.SenderID != callerID {
		return nil, apiError.Forbidden("only the sender can edit a message")
	}
	if message.Recalled {
		return nil, apiError.Conflict("cannot edit a recalled message")
	}
	if message.Type != models.MessageTypeText {
		return nil, apiError.BadRequest("only text messages can be edited")
	}

	if message.ContentBeforeMutation == "" {
		message.ContentBeforeMutation = message.Content
	}
	message.Content = newContent
	message.Edited = true

	if err := m.messageRepo.UpdateMessage(message); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return message, nil
}

func (m *messageService) ForwardMessage(callerID uuid.UUID, req *models.ForwardRequest) (*models.Message, *apiError.Error) {
	if err := exactlyOneTarget(req.ReceiverID, req.GroupID); err != nil {
		return nil, err
	}

	original, err := m.messageRepo.FindMessageByID(req.MessageID)
	if err != nil {
		return nil, apiError.NotFound("message not found")
	}
	if original.Recalled {
		return nil, apiError.Conflict("cannot forward a recalled message")
	}

	if req.GroupID != nil {
		if _, err := m.checker.validateGroupTarget(*req.GroupID, callerID); err != nil {
			return nil, err
		}
	} else {
		if err := m.checker.validateDirectTarget(callerID, *req.ReceiverID); err != nil {
			return nil, err
		}
	}

	// The original message is never mutated; the forward is a new record
	// holding a back-reference by id.
	forwarded := &models.Message{
		SenderID:   callerID,
		ReceiverID: req.ReceiverID,
		GroupID:    req.GroupID,
		Type:       models.MessageTypeForward,
		Content:    original.Content,
		ImageUrls:  original.ImageUrls,
		VideoInfos: original.VideoInfos,
		Thumbnail:  original.Thumbnail,
		FileName:   original.FileName,
		ForwardedFrom: &models.MessageReference{
			MessageID:        original.ID,
			OriginalSenderID: original.SenderID,
			ForwardedAt:      time.Now(),
		},
		Status: models.MessageStatusSent,
	}

	created, cerr := m.messageRepo.CreateMessage(forwarded)
	if cerr != nil {
		log.Printf("error forwarding message %s: %v", req.MessageID, cerr)
		return nil, apiError.ErrInternalServerError
	}
	return created, nil
}

func (m *messageService) MarkMessageRead(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error) {
	message, err := m.messageRepo.FindMessageByID(messageID)
	if err != nil {
		return nil, apiError.NotFound("message not found")
	}
	if message.ReceiverID == nil || *message.ReceiverID != callerID {
		return nil, apiError.Forbidden("only the receiver can mark a message read")
	}
	if message.Read {
		return message, nil
	}

	message.Read = true
	if err := m.messageRepo.UpdateMessage(message); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return message, nil
}

func (m *messageService) PinMessage(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error) {
	return m.setPinned(messageID, callerID, true)
}

func (m *messageService) UnpinMessage(messageID, callerID uuid.UUID) (*models.Message, *apiError.Error) {
	return m.setPinned(messageID, callerID, false)
}

func (m *messageService) setPinned(messageID, callerID uuid.UUID, pinned bool) (*models.Message, *apiError.Error) {
	message, err := m.messageRepo.FindMessageByID(messageID)
	if err != nil {
		return nil, apiError.NotFound("message not found")
	}
	if aerr := m.requireParticipant(message, callerID); aerr != nil {
		return nil, aerr
	}
	if message.Pinned == pinned {
		return message, nil
	}

	message.Pinned = pinned
	if pinned {
		now := time.Now()
		message.PinnedAt = &now
	} else {
		message.PinnedAt = nil
	}

	if err := m.messageRepo.UpdateMessage(message); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return message, nil
}

// requireParticipant gates pin/unpin: any conversation participant may pin,
// admins get no special treatment.
func (m *messageService) requireParticipant(message *models.Message, callerID uuid.UUID) *apiError.Error {
	if message.IsGroupMessage() {
		if _, err := m.checker.validateGroupTarget(*message.GroupID, callerID); err != nil {
			return err
		}
		return nil
	}
	if message.SenderID == callerID {
		return nil
	}
	if message.ReceiverID != nil && *message.ReceiverID == callerID {
		return nil
	}
	return apiError.Forbidden("user is not part of this conversation")
}

func (m *messageService) ResolveByTempID(tempID string) (uuid.UUID, *apiError.Error) {
	if tempID == "" {
		return uuid.Nil, apiError.BadRequest("temp_id is required")
	}
	message, err := m.messageRepo.FindMessageByTempID(tempID)
	if err != nil {
		return uuid.Nil, apiError.NotFound("no message with that temp_id")
	}
	return message.ID, nil
}

// ChatHistory returns the direct conversation between principal and peer,
// oldest first, excluding messages the principal deleted for themselves.
func (m *messageService) ChatHistory(principalID, peerID uuid.UUID) ([]models.Message, *apiError.Error) {
	messages, err := m.messageRepo.FindByParticipantPair(principalID, peerID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return filterDeletedFor(messages, principalID), nil
}

func (m *messageService) GroupChatHistory(groupID, principalID uuid.UUID) ([]models.Message, *apiError.Error) {
	if _, err := m.checker.validateGroupTarget(groupID, principalID); err != nil {
		return nil, err
	}
	messages, err := m.messageRepo.FindByGroup(groupID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return filterDeletedFor(messages, principalID), nil
}

func (m *messageService) PinnedMessages(principalID uuid.UUID, peerID, groupID *uuid.UUID) ([]models.Message, *apiError.Error) {
	if err := exactlyOneTarget(peerID, groupID); err != nil {
		return nil, err
	}
	var messages []models.Message
	var err error
	if groupID != nil {
		if _, aerr := m.checker.validateGroupTarget(*groupID, principalID); aerr != nil {
			return nil, aerr
		}
		messages, err = m.messageRepo.FindPinnedByGroup(*groupID)
	} else {
		messages, err = m.messageRepo.FindPinnedByPair(principalID, *peerID)
	}
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return filterDeletedFor(messages, principalID), nil
}

// SearchMessages matches keyword case-insensitively against content and
// filename, newest first.
func (m *messageService) SearchMessages(principalID uuid.UUID, peerID, groupID *uuid.UUID, keyword string) ([]models.Message, *apiError.Error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, apiError.BadRequest("keyword is required")
	}
	if err := exactlyOneTarget(peerID, groupID); err != nil {
		return nil, err
	}
	var messages []models.Message
	var err error
	if groupID != nil {
		if _, aerr := m.checker.validateGroupTarget(*groupID, principalID); aerr != nil {
			return nil, aerr
		}
		messages, err = m.messageRepo.SearchGroup(*groupID, keyword)
	} else {
		messages, err = m.messageRepo.SearchPair(principalID, *peerID, keyword)
	}
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return filterDeletedFor(messages, principalID), nil
}

func filterDeletedFor(messages []models.Message, principalID uuid.UUID) []models.Message {
	visible := make([]models.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.DeletedFor(principalID) {
			continue
		}
		visible = append(visible, msg)
	}
	return visible
}
