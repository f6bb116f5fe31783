package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()
	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	allowedOrigins := []string{"http://localhost:3000"}
	if s.Config.AccessControlAllowOrigin != "" {
		allowedOrigins = []string{s.Config.AccessControlAllowOrigin}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	limitLogin := limitRateForLogin(newLoginRateStore())

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/signup", s.handleSignup())
	apirouter.POST("/auth/login", limitLogin, s.handleLogin())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/logout", s.handleLogout())
	authorized.GET("/me", s.handleGetProfile())
	authorized.PUT("/me/device-token", s.handleUpdateDeviceToken())

	authorized.POST("/messages", s.handleSendMessage())
	authorized.POST("/messages/forward", s.handleForwardMessage())
	authorized.PUT("/messages/:messageID/recall", s.handleRecallMessage())
	authorized.PUT("/messages/:messageID/edit", s.handleEditMessage())
	authorized.PUT("/messages/:messageID/read", s.handleMarkMessageRead())
	authorized.PUT("/messages/:messageID/pin", s.handlePinMessage())
	authorized.PUT("/messages/:messageID/unpin", s.handleUnpinMessage())
	authorized.DELETE("/messages/:messageID", s.handleDeleteMessage())
	authorized.GET("/messages/temp/:tempID", s.handleResolveTempID())
	authorized.GET("/messages/history/user/:userID", s.handleChatHistory())
	authorized.GET("/messages/history/group/:groupID", s.handleGroupChatHistory())
	authorized.GET("/messages/pinned", s.handlePinnedMessages())
	authorized.GET("/messages/search", s.handleSearchMessages())

	authorized.POST("/calls", s.handleInitiateCall())
	authorized.PUT("/calls/:callID/answer", s.handleAnswerCall())
	authorized.POST("/calls/:callID/candidates", s.handleIceCandidate())
	authorized.PUT("/calls/:callID/end", s.handleEndCall())
	authorized.GET("/calls/history", s.handleCallHistory())

	authorized.POST("/friends/:userID/request", s.handleSendFriendRequest())
	authorized.PUT("/friends/:userID/accept", s.handleAcceptFriendRequest())
	authorized.PUT("/friends/:userID/reject", s.handleRejectFriendRequest())
	authorized.PUT("/friends/:userID/block", s.handleBlockUser())
	authorized.PUT("/friends/:userID/unblock", s.handleUnblockUser())
	authorized.GET("/friends", s.handleListFriends())
	authorized.GET("/friends/pending", s.handleListPendingRequests())

	authorized.POST("/groups", s.handleCreateGroup())
	authorized.GET("/groups", s.handleListGroups())
	authorized.GET("/groups/:groupID", s.handleGetGroup())
	authorized.POST("/groups/:groupID/members", s.handleAddGroupMember())
	authorized.DELETE("/groups/:groupID/members/:userID", s.handleRemoveGroupMember())
	authorized.PUT("/groups/:groupID/deactivate", s.handleDeactivateGroup())

	authorized.GET("/ws", s.handleWebSocket())
}
