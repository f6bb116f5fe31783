package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/techagentng/chatline/config"
	"github.com/techagentng/chatline/db"
	"github.com/techagentng/chatline/services"
)

// Server holds every dependency the HTTP and WebSocket layers need.
type Server struct {
	Config         *config.Config
	AuthRepository db.AuthRepository

	AuthService    services.AuthService
	MessageService services.MessageService
	CallService    services.CallService
	FriendService  services.FriendService
	GroupService   services.GroupService
	Presence       services.PresenceService
	Fanout         services.FanoutRouter

	Hub *Hub
}

// Start runs the connection hub, serves HTTP, and shuts down cleanly on
// SIGINT or SIGTERM.
func (s *Server) Start() {
	go s.Hub.Run()

	port := s.Config.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.setupRouter(),
	}

	go func() {
		log.Printf("server started on port %d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	s.Fanout.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("server exited")
}
