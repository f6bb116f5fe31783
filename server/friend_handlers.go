package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/server/response"
)

func (s *Server) handleSendFriendRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, targetID, ok := s.friendContext(c)
		if !ok {
			return
		}
		edge, aerr := s.FriendService.SendFriendRequest(userID, targetID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "friend request sent", http.StatusCreated, edge, nil)
	}
}

func (s *Server) handleAcceptFriendRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, requesterID, ok := s.friendContext(c)
		if !ok {
			return
		}
		if aerr := s.FriendService.AcceptFriendRequest(userID, requesterID); aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "friend request accepted", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleRejectFriendRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, requesterID, ok := s.friendContext(c)
		if !ok {
			return
		}
		if aerr := s.FriendService.RejectFriendRequest(userID, requesterID); aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "friend request rejected", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleBlockUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, targetID, ok := s.friendContext(c)
		if !ok {
			return
		}
		if aerr := s.FriendService.BlockUser(userID, targetID); aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "user blocked", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleUnblockUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, targetID, ok := s.friendContext(c)
		if !ok {
			return
		}
		if aerr := s.FriendService.UnblockUser(userID, targetID); aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "user unblocked", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleListFriends() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		friends, aerr := s.FriendService.ListFriends(userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, friends, nil)
	}
}

func (s *Server) handleListPendingRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		pending, aerr := s.FriendService.ListPendingRequests(userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, pending, nil)
	}
}

func (s *Server) friendContext(c *gin.Context) (userID, otherID uuid.UUID, ok bool) {
	userID, found := currentUserID(c)
	if !found {
		response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	otherID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		response.JSON(c, "invalid user id", http.StatusBadRequest, nil, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, otherID, true
}
