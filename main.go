package main

import (
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/techagentng/chatline/config"
	"github.com/techagentng/chatline/db"
	"github.com/techagentng/chatline/server"
	"github.com/techagentng/chatline/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB := db.GetDB(conf)
	authRepo := db.NewAuthRepo(gormDB)
	messageRepo := db.NewMessageRepo(gormDB)
	callRepo := db.NewCallRepo(gormDB)
	groupRepo := db.NewGroupRepo(gormDB)
	friendRepo := db.NewFriendRepo(gormDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
	})
	presence := services.NewPresenceService(redisClient)
	hub := server.NewHub(presence)

	var push services.PushSender
	if conf.GoogleApplicationCredentials != "" {
		fcm, err := services.NewFCMPush(conf.GoogleApplicationCredentials)
		if err != nil {
			log.Fatalf("error initializing push client: %v", err)
		}
		push = fcm
		log.Println("push client initialized")
	}

	fanout := services.NewFanoutRouter(hub, groupRepo, authRepo, push)

	authService := services.NewAuthService(authRepo, conf)
	messageService := services.NewMessageService(messageRepo, authRepo, friendRepo, groupRepo, conf)
	callService := services.NewCallService(callRepo, authRepo, friendRepo, groupRepo, fanout, conf)
	friendService := services.NewFriendService(friendRepo, authRepo, fanout, presence, conf)
	groupService := services.NewGroupService(groupRepo, authRepo, conf)

	s := &server.Server{
		Config:         conf,
		AuthRepository: authRepo,
		AuthService:    authService,
		MessageService: messageService,
		CallService:    callService,
		FriendService:  friendService,
		GroupService:   groupService,
		Presence:       presence,
		Fanout:         fanout,
		Hub:            hub,
	}

	s.Start()
}
