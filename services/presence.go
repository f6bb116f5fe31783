package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const onlineUsersKey = "chatline:online_users"

// PresenceService tracks which principals currently hold a live channel
// binding. Backed by a redis set so presence survives across instances.
type PresenceService interface {
	SetOnline(userID uuid.UUID)
	SetOffline(userID uuid.UUID)
	IsOnline(userID uuid.UUID) bool
	OnlineCount() int64
}

type presenceService struct {
	client *redis.Client
}

func NewPresenceService(client *redis.Client) PresenceService {
	return &presenceService{client: client}
}

func (p *presenceService) SetOnline(userID uuid.UUID) {
	if err := p.client.SAdd(context.Background(), onlineUsersKey, userID.String()).Err(); err != nil {
		log.Printf("presence: could not mark %s online: %v", userID, err)
	}
}

func (p *presenceService) SetOffline(userID uuid.UUID) {
	if err := p.client.SRem(context.Background(), onlineUsersKey, userID.String()).Err(); err != nil {
		log.Printf("presence: could not mark %s offline: %v", userID, err)
	}
}

func (p *presenceService) IsOnline(userID uuid.UUID) bool {
	online, err := p.client.SIsMember(context.Background(), onlineUsersKey, userID.String()).Result()
	if err != nil {
		return false
	}
	return online
}

func (p *presenceService) OnlineCount() int64 {
	count, err := p.client.SCard(context.Background(), onlineUsersKey).Result()
	if err != nil {
		return 0
	}
	return count
}
