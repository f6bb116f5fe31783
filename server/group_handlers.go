package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
	"github.com/techagentng/chatline/server/response"
)

func (s *Server) handleCreateGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		var req models.CreateGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}
		group, aerr := s.GroupService.CreateGroup(userID, &req)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "group created", http.StatusCreated, group, nil)
	}
}

func (s *Server) handleGetGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, groupID, ok := s.groupContext(c)
		if !ok {
			return
		}
		group, aerr := s.GroupService.GetGroup(groupID, userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, group, nil)
	}
}

func (s *Server) handleAddGroupMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, groupID, ok := s.groupContext(c)
		if !ok {
			return
		}
		var req models.GroupMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}
		group, aerr := s.GroupService.AddMember(groupID, userID, req.UserID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "member added", http.StatusOK, group, nil)
	}
}

func (s *Server) handleRemoveGroupMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, groupID, ok := s.groupContext(c)
		if !ok {
			return
		}
		memberID, err := uuid.Parse(c.Param("userID"))
		if err != nil {
			response.JSON(c, "invalid user id", http.StatusBadRequest, nil, err)
			return
		}
		group, aerr := s.GroupService.RemoveMember(groupID, userID, memberID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "member removed", http.StatusOK, group, nil)
	}
}

func (s *Server) handleDeactivateGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, groupID, ok := s.groupContext(c)
		if !ok {
			return
		}
		if aerr := s.GroupService.DeactivateGroup(groupID, userID); aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "group deactivated", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleListGroups() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		groups, aerr := s.GroupService.ListGroups(userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, groups, nil)
	}
}

func (s *Server) groupContext(c *gin.Context) (userID, groupID uuid.UUID, ok bool) {
	userID, found := currentUserID(c)
	if !found {
		response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	groupID, err := uuid.Parse(c.Param("groupID"))
	if err != nil {
		response.JSON(c, "invalid group id", http.StatusBadRequest, nil, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, groupID, true
}
