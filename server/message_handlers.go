package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
	"github.com/techagentng/chatline/server/response"
)

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		var req models.MessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}

		message, aerr := s.MessageService.SendMessage(userID, &req)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}

		// Fan-out is best-effort and never part of the success contract.
		event := &models.Event{Type: models.EventMessageNew, Payload: message}
		if message.IsGroupMessage() {
			s.Fanout.RouteToIdentity(message.SenderID, event)
			s.Fanout.RouteToGroup(*message.GroupID, event, message.SenderID)
		} else {
			s.Fanout.RouteToIdentity(message.SenderID, event)
			s.Fanout.RouteToIdentity(*message.ReceiverID, event)
		}

		response.JSON(c, "message sent", http.StatusCreated, message, nil)
	}
}

func (s *Server) handleRecallMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mutateMessage(c, models.EventMessageRecall, s.MessageService.RecallMessage)
	}
}

func (s *Server) handleDeleteMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, messageID, ok := s.messageCallContext(c)
		if !ok {
			return
		}
		message, aerr := s.MessageService.DeleteMessageForUser(messageID, userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		// A per-user delete only changes the caller's own view.
		s.Fanout.RouteToIdentity(userID, &models.Event{Type: models.EventMessageDelete, Payload: message})
		response.JSON(c, "message deleted", http.StatusOK, message, nil)
	}
}

func (s *Server) handleEditMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, messageID, ok := s.messageCallContext(c)
		if !ok {
			return
		}
		var req models.EditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}
		message, aerr := s.MessageService.EditMessage(messageID, userID, req.Content)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		s.broadcastMessageEvent(models.EventMessageEdit, message)
		response.JSON(c, "message edited", http.StatusOK, message, nil)
	}
}

func (s *Server) handleForwardMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		var req models.ForwardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}

		message, aerr := s.MessageService.ForwardMessage(userID, &req)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}

		event := &models.Event{Type: models.EventMessageNew, Payload: message}
		if message.IsGroupMessage() {
			s.Fanout.RouteToIdentity(message.SenderID, event)
			s.Fanout.RouteToGroup(*message.GroupID, event, message.SenderID)
		} else {
			s.Fanout.RouteToIdentity(message.SenderID, event)
			s.Fanout.RouteToIdentity(*message.ReceiverID, event)
		}

		response.JSON(c, "message forwarded", http.StatusCreated, message, nil)
	}
}

func (s *Server) handleMarkMessageRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, messageID, ok := s.messageCallContext(c)
		if !ok {
			return
		}
		message, aerr := s.MessageService.MarkMessageRead(messageID, userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		// The read receipt goes to the sender; the reader gets an echo.
		event := &models.Event{Type: models.EventMessageRead, Payload: message}
		s.Fanout.RouteToIdentity(message.SenderID, event)
		s.Fanout.RouteToIdentity(userID, event)
		response.JSON(c, "message read", http.StatusOK, message, nil)
	}
}

func (s *Server) handlePinMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mutateMessage(c, models.EventMessagePin, s.MessageService.PinMessage)
	}
}

func (s *Server) handleUnpinMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mutateMessage(c, models.EventMessageUnpin, s.MessageService.UnpinMessage)
	}
}

// mutateMessage runs one (messageID, callerID) engine operation and
// broadcasts the resulting state to the conversation.
func (s *Server) mutateMessage(c *gin.Context, eventType models.EventType,
	op func(messageID, callerID uuid.UUID) (*models.Message, *errs.Error)) {
	userID, messageID, ok := s.messageCallContext(c)
	if !ok {
		return
	}
	message, aerr := op(messageID, userID)
	if aerr != nil {
		response.JSON(c, "", aerr.Status, nil, aerr)
		return
	}
	s.broadcastMessageEvent(eventType, message)
	response.JSON(c, "ok", http.StatusOK, message, nil)
}

// broadcastMessageEvent delivers a state change to everyone in the
// conversation. The event already reflects the caller's own action, so group
// broadcasts are not self-excluded.
func (s *Server) broadcastMessageEvent(eventType models.EventType, message *models.Message) {
	event := &models.Event{Type: eventType, Payload: message}
	if message.IsGroupMessage() {
		s.Fanout.RouteToGroup(*message.GroupID, event, uuid.Nil)
		return
	}
	s.Fanout.RouteToIdentity(message.SenderID, event)
	if message.ReceiverID != nil {
		s.Fanout.RouteToIdentity(*message.ReceiverID, event)
	}
}

func (s *Server) messageCallContext(c *gin.Context) (userID, messageID uuid.UUID, ok bool) {
	userID, found := currentUserID(c)
	if !found {
		response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		response.JSON(c, "invalid message id", http.StatusBadRequest, nil, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, messageID, true
}

func (s *Server) handleResolveTempID() gin.HandlerFunc {
	return func(c *gin.Context) {
		messageID, aerr := s.MessageService.ResolveByTempID(c.Param("tempID"))
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, gin.H{"message_id": messageID}, nil)
	}
}

func (s *Server) handleChatHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		peerID, err := uuid.Parse(c.Param("userID"))
		if err != nil {
			response.JSON(c, "invalid user id", http.StatusBadRequest, nil, err)
			return
		}
		messages, aerr := s.MessageService.ChatHistory(userID, peerID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, messages, nil)
	}
}

func (s *Server) handleGroupChatHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		groupID, err := uuid.Parse(c.Param("groupID"))
		if err != nil {
			response.JSON(c, "invalid group id", http.StatusBadRequest, nil, err)
			return
		}
		messages, aerr := s.MessageService.GroupChatHistory(groupID, userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, messages, nil)
	}
}

func (s *Server) handlePinnedMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		peerID, groupID, err := targetFromQuery(c)
		if err != nil {
			response.JSON(c, "invalid target", http.StatusBadRequest, nil, err)
			return
		}
		messages, aerr := s.MessageService.PinnedMessages(userID, peerID, groupID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, messages, nil)
	}
}

func (s *Server) handleSearchMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		peerID, groupID, err := targetFromQuery(c)
		if err != nil {
			response.JSON(c, "invalid target", http.StatusBadRequest, nil, err)
			return
		}
		messages, aerr := s.MessageService.SearchMessages(userID, peerID, groupID, c.Query("keyword"))
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, messages, nil)
	}
}

// targetFromQuery parses the optional peer_id / group_id query parameters.
func targetFromQuery(c *gin.Context) (peerID, groupID *uuid.UUID, err error) {
	if raw := c.Query("peer_id"); raw != "" {
		id, perr := uuid.Parse(raw)
		if perr != nil {
			return nil, nil, perr
		}
		peerID = &id
	}
	if raw := c.Query("group_id"); raw != "" {
		id, perr := uuid.Parse(raw)
		if perr != nil {
			return nil, nil, perr
		}
		groupID = &id
	}
	return peerID, groupID, nil
}
