package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	errs "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
	"github.com/techagentng/chatline/server/response"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}
		created, aerr := s.AuthService.RegisterUser(&user)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "signup successful", http.StatusCreated, created.Response(), nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}
		resp, aerr := s.AuthService.LoginUser(&req)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, resp, nil)
	}
}

func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := getTokenFromHeader(c)
		if strings.TrimSpace(token) == "" {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		if aerr := s.AuthService.LogoutUser(token); aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "logout successful", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleGetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		user, aerr := s.AuthService.GetUserProfile(userID)
		if aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "", http.StatusOK, user.Response(), nil)
	}
}

func (s *Server) handleUpdateDeviceToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.ErrUnauthorized)
			return
		}
		var req models.DeviceTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "invalid request body", http.StatusBadRequest, nil, err)
			return
		}
		if aerr := s.AuthService.UpdateDeviceToken(userID, req.DeviceToken); aerr != nil {
			response.JSON(c, "", aerr.Status, nil, aerr)
			return
		}
		response.JSON(c, "device token updated", http.StatusOK, nil, nil)
	}
}
