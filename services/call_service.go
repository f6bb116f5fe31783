package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/techagentng/chatline/config"
	"github.com/techagentng/chatline/db"
	apiError "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
)

// CallService owns the call state machine:
//
//	INITIATED --answer--> ACTIVE
//	INITIATED|ACTIVE --end--> ENDED (terminal)
//
// Signaling payloads (offer/answer/ICE) are passed through to the fan-out
// router; the service never transports media.
type CallService interface {
	InitiateCall(callerID uuid.UUID, req *models.InitiateCallRequest) (*models.Call, *apiError.Error)
	AnswerCall(callID, answererID uuid.UUID, answer interface{}) (*models.Call, *apiError.Error)
	EndCall(callID, callerID uuid.UUID) (*models.Call, *apiError.Error)
	RelayIceCandidate(callID, senderID uuid.UUID, candidate interface{}) *apiError.Error
	CallHistory(principalID uuid.UUID) ([]models.Call, *apiError.Error)
}

type callService struct {
	Config   *config.Config
	callRepo db.CallRepository
	fanout   FanoutRouter
	checker  relationshipChecker
}

func NewCallService(callRepo db.CallRepository, authRepo db.AuthRepository,
	friendRepo db.FriendRepository, groupRepo db.GroupRepository,
	fanout FanoutRouter, conf *config.Config) CallService {
	return &callService{
		Config:   conf,
		callRepo: callRepo,
		fanout:   fanout,
		checker: relationshipChecker{
			authRepo:   authRepo,
			friendRepo: friendRepo,
			groupRepo:  groupRepo,
		},
	}
}

func (s *callService) InitiateCall(callerID uuid.UUID, req *models.InitiateCallRequest) (*models.Call, *apiError.Error) {
	if err := exactlyOneTarget(req.ReceiverID, req.GroupID); err != nil {
		return nil, err
	}

	call := &models.Call{
		CallerID:   callerID,
		ReceiverID: req.ReceiverID,
		GroupID:    req.GroupID,
		Type:       req.Type,
		Status:     models.CallStatusInitiated,
		StartAt:    time.Now(),
	}
	call.AddParticipant(callerID)

	if req.GroupID != nil {
		if _, err := s.checker.validateGroupTarget(*req.GroupID, callerID); err != nil {
			return nil, err
		}
	} else {
		if err := s.checker.validateDirectTarget(callerID, *req.ReceiverID); err != nil {
			return nil, err
		}
		call.AddParticipant(*req.ReceiverID)
	}

	created, err := s.callRepo.CreateCall(call)
	if err != nil {
		log.Printf("error saving call from %s: %v", callerID, err)
		return nil, apiError.ErrInternalServerError
	}

	signal := &models.Event{
		Type: models.EventCallOffer,
		Payload: &models.CallSignal{
			CallID:   created.ID.String(),
			CallerID: callerID.String(),
			Type:     created.Type,
			Data:     req.Offer,
		},
	}
	if created.IsGroupCall() {
		s.fanout.RouteToGroup(*created.GroupID, signal, callerID)
	} else {
		s.fanout.RouteToIdentity(*created.ReceiverID, signal)
	}
	return created, nil
}

func (s *callService) AnswerCall(callID, answererID uuid.UUID, answer interface{}) (*models.Call, *apiError.Error) {
	call, err := s.callRepo.FindCallByID(callID)
	if err != nil {
		return nil, apiError.NotFound("call not found")
	}
	if call.Status == models.CallStatusEnded {
		return nil, apiError.Conflict("call has already ended")
	}
	// Only the stored receiver can answer a direct call; in particular the
	// caller cannot activate their own call.
	if call.IsGroupCall() {
		if aerr := s.authorizeSignal(call, answererID); aerr != nil {
			return nil, aerr
		}
	} else if call.ReceiverID == nil || *call.ReceiverID != answererID {
		return nil, apiError.Forbidden("only the receiver can answer this call")
	}

	call.AddParticipant(answererID)
	call.Status = models.CallStatusActive

	if err := s.callRepo.UpdateCall(call); err != nil {
		return nil, apiError.ErrInternalServerError
	}

	signal := &models.Event{
		Type: models.EventCallAnswer,
		Payload: &models.CallSignal{
			CallID:   call.ID.String(),
			CallerID: call.CallerID.String(),
			SenderID: answererID.String(),
			Data:     answer,
		},
	}
	if call.IsGroupCall() {
		s.fanout.RouteToGroup(*call.GroupID, signal, answererID)
	} else {
		s.fanout.RouteToIdentity(call.CallerID, signal)
	}
	return call, nil
}

func (s *callService) EndCall(callID, callerID uuid.UUID) (*models.Call, *apiError.Error) {
	call, err := s.callRepo.FindCallByID(callID)
	if err != nil {
		return nil, apiError.NotFound("call not found")
	}
	exists, uerr := s.checker.authRepo.UserExists(callerID)
	if uerr != nil {
		return nil, apiError.ErrInternalServerError
	}
	if !exists {
		return nil, apiError.NotFound("user not found")
	}
	if call.Status == models.CallStatusEnded {
		return nil, apiError.Conflict("call has already ended")
	}
	if !call.HasParticipant(callerID) {
		return nil, apiError.Forbidden("user is not part of this call")
	}

	now := time.Now()
	call.Status = models.CallStatusEnded
	call.EndAt = &now

	if err := s.callRepo.UpdateCall(call); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	log.Printf("call ended: %s by %s", callID, callerID)

	signal := &models.Event{
		Type: models.EventCallEnd,
		Payload: &models.CallSignal{
			CallID:   call.ID.String(),
			CallerID: call.CallerID.String(),
			SenderID: callerID.String(),
		},
	}
	if call.IsGroupCall() {
		s.fanout.RouteToGroup(*call.GroupID, signal, uuid.Nil)
	} else {
		s.fanout.RouteToIdentity(call.CallerID, signal)
		if call.ReceiverID != nil {
			s.fanout.RouteToIdentity(*call.ReceiverID, signal)
		}
	}
	return call, nil
}

// RelayIceCandidate passes one ICE candidate to the other call side(s). The
// call entity itself is never mutated.
func (s *callService) RelayIceCandidate(callID, senderID uuid.UUID, candidate interface{}) *apiError.Error {
	call, err := s.callRepo.FindCallByID(callID)
	if err != nil {
		return apiError.NotFound("call not found")
	}
	if call.Status == models.CallStatusEnded {
		return apiError.Conflict("call has already ended")
	}
	if aerr := s.authorizeSignal(call, senderID); aerr != nil {
		return aerr
	}

	signal := &models.Event{
		Type: models.EventCallIce,
		Payload: &models.CallSignal{
			CallID:   call.ID.String(),
			CallerID: call.CallerID.String(),
			SenderID: senderID.String(),
			Data:     candidate,
		},
	}
	if call.IsGroupCall() {
		s.fanout.RouteToGroup(*call.GroupID, signal, senderID)
	} else if senderID == call.CallerID {
		if call.ReceiverID != nil {
			s.fanout.RouteToIdentity(*call.ReceiverID, signal)
		}
	} else {
		s.fanout.RouteToIdentity(call.CallerID, signal)
	}
	return nil
}

func (s *callService) CallHistory(principalID uuid.UUID) ([]models.Call, *apiError.Error) {
	exists, err := s.checker.authRepo.UserExists(principalID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	if !exists {
		return nil, apiError.NotFound("user not found")
	}
	calls, err := s.callRepo.FindByParticipant(principalID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return calls, nil
}

// authorizeSignal gates ICE relay and group answers: either side of a direct
// call, current group membership for group calls. Membership is read live,
// not from the participant snapshot.
func (s *callService) authorizeSignal(call *models.Call, userID uuid.UUID) *apiError.Error {
	if call.IsGroupCall() {
		group, err := s.checker.groupRepo.FindGroupByID(*call.GroupID)
		if err != nil {
			return apiError.NotFound("group not found")
		}
		if !group.IsMember(userID) {
			return apiError.Forbidden("user is not a member of this group call")
		}
		return nil
	}
	if userID == call.CallerID {
		return nil
	}
	if call.ReceiverID == nil || *call.ReceiverID != userID {
		return apiError.Forbidden("user is not authorized for this call")
	}
	return nil
}
