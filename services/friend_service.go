package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/techagentng/chatline/config"
	"github.com/techagentng/chatline/db"
	apiError "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
	"gorm.io/gorm"
)

// FriendService mutates the relationship graph the engines read.
type FriendService interface {
	SendFriendRequest(senderID, receiverID uuid.UUID) (*models.Friend, *apiError.Error)
	AcceptFriendRequest(callerID, requesterID uuid.UUID) *apiError.Error
	RejectFriendRequest(callerID, requesterID uuid.UUID) *apiError.Error
	BlockUser(callerID, targetID uuid.UUID) *apiError.Error
	UnblockUser(callerID, targetID uuid.UUID) *apiError.Error
	ListFriends(userID uuid.UUID) ([]models.FriendResponse, *apiError.Error)
	ListPendingRequests(userID uuid.UUID) ([]models.FriendResponse, *apiError.Error)
}

type friendService struct {
	Config     *config.Config
	friendRepo db.FriendRepository
	authRepo   db.AuthRepository
	fanout     FanoutRouter
	presence   PresenceService
}

func NewFriendService(friendRepo db.FriendRepository, authRepo db.AuthRepository,
	fanout FanoutRouter, presence PresenceService, conf *config.Config) FriendService {
	return &friendService{
		Config:     conf,
		friendRepo: friendRepo,
		authRepo:   authRepo,
		fanout:     fanout,
		presence:   presence,
	}
}

func (s *friendService) SendFriendRequest(senderID, receiverID uuid.UUID) (*models.Friend, *apiError.Error) {
	if senderID == receiverID {
		return nil, apiError.BadRequest("cannot send a friend request to yourself")
	}
	sender, err := s.authRepo.FindUserByID(senderID)
	if err != nil {
		return nil, apiError.NotFound("user not found")
	}
	if _, err := s.authRepo.FindUserByID(receiverID); err != nil {
		return nil, apiError.NotFound("user not found")
	}

	edge, err := s.friendRepo.FindPair(senderID, receiverID)
	switch {
	case err == gorm.ErrRecordNotFound:
		edge = nil
	case err != nil:
		return nil, apiError.ErrInternalServerError
	}

	if edge != nil {
		switch edge.Status {
		case models.FriendStatusBlocked:
			return nil, apiError.Forbidden("you cannot contact this user")
		case models.FriendStatusAccepted:
			return nil, apiError.Conflict("you are already friends")
		case models.FriendStatusPending:
			return nil, apiError.Conflict("friend request already pending")
		case models.FriendStatusRejected:
			// A rejected pair can try again; reuse the edge.
			edge.SenderID = senderID
			edge.ReceiverID = receiverID
			edge.Status = models.FriendStatusPending
			if err := s.friendRepo.UpdateFriend(edge); err != nil {
				return nil, apiError.ErrInternalServerError
			}
			s.notifyRequest(receiverID, sender.Username)
			return edge, nil
		}
	}

	edge = &models.Friend{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendStatusPending,
	}
	created, cerr := s.friendRepo.CreateFriend(edge)
	if cerr != nil {
		return nil, apiError.ErrInternalServerError
	}
	s.notifyRequest(receiverID, sender.Username)
	return created, nil
}

func (s *friendService) notifyRequest(receiverID uuid.UUID, senderUsername string) {
	s.fanout.RouteToIdentity(receiverID, &models.Event{
		Type:    models.EventFriendRequest,
		Payload: map[string]string{"sender": senderUsername},
	})
}

func (s *friendService) AcceptFriendRequest(callerID, requesterID uuid.UUID) *apiError.Error {
	edge, err := s.pendingEdgeFor(callerID, requesterID)
	if err != nil {
		return err
	}
	edge.Status = models.FriendStatusAccepted
	if uerr := s.friendRepo.UpdateFriend(edge); uerr != nil {
		return apiError.ErrInternalServerError
	}

	caller, ferr := s.authRepo.FindUserByID(callerID)
	if ferr == nil {
		s.fanout.RouteToIdentity(requesterID, &models.Event{
			Type:    models.EventFriendAccepted,
			Payload: map[string]string{"receiver": caller.Username},
		})
	}
	return nil
}

func (s *friendService) RejectFriendRequest(callerID, requesterID uuid.UUID) *apiError.Error {
	edge, err := s.pendingEdgeFor(callerID, requesterID)
	if err != nil {
		return err
	}
	edge.Status = models.FriendStatusRejected
	if uerr := s.friendRepo.UpdateFriend(edge); uerr != nil {
		return apiError.ErrInternalServerError
	}
	return nil
}

// pendingEdgeFor loads the PENDING edge addressed to callerID from
// requesterID.
func (s *friendService) pendingEdgeFor(callerID, requesterID uuid.UUID) (*models.Friend, *apiError.Error) {
	edge, err := s.friendRepo.FindPair(callerID, requesterID)
	if err != nil {
		return nil, apiError.NotFound("friend request not found")
	}
	if edge.Status != models.FriendStatusPending || edge.ReceiverID != callerID {
		return nil, apiError.Conflict("no pending request from this user")
	}
	return edge, nil
}

func (s *friendService) BlockUser(callerID, targetID uuid.UUID) *apiError.Error {
	if callerID == targetID {
		return apiError.BadRequest("cannot block yourself")
	}
	if _, err := s.authRepo.FindUserByID(targetID); err != nil {
		return apiError.NotFound("user not found")
	}

	edge, err := s.friendRepo.FindPair(callerID, targetID)
	switch {
	case err == gorm.ErrRecordNotFound:
		_, cerr := s.friendRepo.CreateFriend(&models.Friend{
			SenderID:   callerID,
			ReceiverID: targetID,
			Status:     models.FriendStatusBlocked,
		})
		if cerr != nil {
			return apiError.ErrInternalServerError
		}
		return nil
	case err != nil:
		return apiError.ErrInternalServerError
	}

	if edge.Status == models.FriendStatusBlocked {
		return apiError.Conflict("user is already blocked")
	}
	edge.SenderID = callerID
	edge.ReceiverID = targetID
	edge.Status = models.FriendStatusBlocked
	if uerr := s.friendRepo.UpdateFriend(edge); uerr != nil {
		return apiError.ErrInternalServerError
	}
	log.Printf("user %s blocked %s", callerID, targetID)
	return nil
}

func (s *friendService) UnblockUser(callerID, targetID uuid.UUID) *apiError.Error {
	edge, err := s.friendRepo.FindPair(callerID, targetID)
	if err != nil {
		return apiError.NotFound("no relationship with this user")
	}
	if edge.Status != models.FriendStatusBlocked {
		return apiError.Conflict("user is not blocked")
	}
	// Only the side that blocked can lift the block.
	if edge.SenderID != callerID {
		return apiError.Forbidden("only the blocking user can unblock")
	}
	if derr := s.friendRepo.DeleteFriend(edge.ID); derr != nil {
		return apiError.ErrInternalServerError
	}
	return nil
}

func (s *friendService) ListFriends(userID uuid.UUID) ([]models.FriendResponse, *apiError.Error) {
	edges, err := s.friendRepo.ListFriends(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return s.decorate(edges, userID), nil
}

func (s *friendService) ListPendingRequests(userID uuid.UUID) ([]models.FriendResponse, *apiError.Error) {
	edges, err := s.friendRepo.ListPending(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return s.decorate(edges, userID), nil
}

// decorate resolves each edge's peer profile and presence.
func (s *friendService) decorate(edges []models.Friend, userID uuid.UUID) []models.FriendResponse {
	out := make([]models.FriendResponse, 0, len(edges))
	for _, edge := range edges {
		peerID := edge.SenderID
		if peerID == userID {
			peerID = edge.ReceiverID
		}
		peer, err := s.authRepo.FindUserByID(peerID)
		if err != nil {
			continue
		}
		resp := models.FriendResponse{
			UserID:    peerID,
			Username:  peer.Username,
			Fullname:  peer.Fullname,
			AvatarURL: peer.AvatarURL,
			Status:    edge.Status,
		}
		if s.presence != nil {
			resp.Online = s.presence.IsOnline(peerID)
		}
		out = append(out, resp)
	}
	return out
}
