package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	errs "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
	"github.com/techagentng/chatline/server/response"
)

func (s *Server) handleInitiateCall() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		var req models.InitiateCallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}
		call, aerr := s.CallService.InitiateCall(userID, &req)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "call initiated", http.StatusCreated, call, nil)
	}
}

func (s *Server) handleAnswerCall() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, callID, ok := s.callContext(c)
		if !ok {
			return
		}
		var req models.AnswerCallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}
		call, aerr := s.CallService.AnswerCall(callID, userID, req.Answer)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "call answered", http.StatusOK, call, nil)
	}
}

func (s *Server) handleIceCandidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, callID, ok := s.callContext(c)
		if !ok {
			return
		}
		var req models.IceCandidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}
		if aerr := s.CallService.RelayIceCandidate(callID, userID, req.Candidate); aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "candidate relayed", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleEndCall() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, callID, ok := s.callContext(c)
		if !ok {
			return
		}
		call, aerr := s.CallService.EndCall(callID, userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "call ended", http.StatusOK, call, nil)
	}
}

func (s *Server) handleCallHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		calls, aerr := s.CallService.CallHistory(userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, calls, nil)
	}
}

func (s *Server) callContext(c *gin.Context) (userID, callID uuid.UUID, ok bool) {
	userID, found := currentUserID(c)
	if !found {
		response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	callID, err := uuid.Parse(c.Param("callID"))
	if err != nil {
		response.JSON(c, "invalid call id", http.StatusBadRequest, nil, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, callID, true
}
