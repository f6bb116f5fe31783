package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/techagentng/chatline/config"
	"github.com/techagentng/chatline/models"
)

// syncFanout is a synchronous FanoutRouter stand-in: it resolves group
// members immediately instead of on a dispatcher goroutine, so tests can
// assert on routed events without waiting.
type syncFanout struct {
	groups *fakeGroupRepo
	routed map[uuid.UUID][]*models.Event
}

func newSyncFanout(groups *fakeGroupRepo) *syncFanout {
	return &syncFanout{groups: groups, routed: make(map[uuid.UUID][]*models.Event)}
}

func (s *syncFanout) RouteToIdentity(userID uuid.UUID, event *models.Event) {
	s.routed[userID] = append(s.routed[userID], event)
}

func (s *syncFanout) RouteToGroup(groupID uuid.UUID, event *models.Event, excludeID uuid.UUID) {
	members, err := s.groups.Members(groupID)
	if err != nil {
		return
	}
	for _, m := range members {
		if m == excludeID {
			continue
		}
		s.routed[m] = append(s.routed[m], event)
	}
}

func (s *syncFanout) Close() {}

func (s *syncFanout) lastEventFor(userID uuid.UUID) *models.Event {
	events := s.routed[userID]
	if len(events) == 0 {
		return nil
	}
	return events[len(events)-1]
}

type callFixture struct {
	svc    CallService
	fanout *syncFanout
	repo   *fakeCallRepo
	groups *fakeGroupRepo
	alice  *models.User
	bob    *models.User
	carol  *models.User
}

func newCallFixture(t *testing.T) *callFixture {
	t.Helper()
	auth := newFakeAuthRepo()
	friends := &fakeFriendRepo{}
	groups := newFakeGroupRepo()
	repo := newFakeCallRepo()
	fanout := newSyncFanout(groups)
	return &callFixture{
		svc:    NewCallService(repo, auth, friends, groups, fanout, &config.Config{}),
		fanout: fanout,
		repo:   repo,
		groups: groups,
		alice:  auth.addUser("alice"),
		bob:    auth.addUser("bob"),
		carol:  auth.addUser("carol"),
	}
}

func (f *callFixture) directCall(t *testing.T) *models.Call {
	t.Helper()
	call, aerr := f.svc.InitiateCall(f.alice.ID, &models.InitiateCallRequest{
		ReceiverID: &f.bob.ID,
		Type:       models.CallTypeAudio,
		Offer:      map[string]any{"sdp": "offer"},
	})
	require.Nil(t, aerr)
	return call
}

func TestInitiateDirectCall(t *testing.T) {
	f := newCallFixture(t)

	call := f.directCall(t)
	require.Equal(t, models.CallStatusInitiated, call.Status)
	require.True(t, call.HasParticipant(f.alice.ID))
	require.True(t, call.HasParticipant(f.bob.ID))
	require.False(t, call.StartAt.IsZero())

	// The offer goes only to the receiver.
	require.NotNil(t, f.fanout.lastEventFor(f.bob.ID))
	require.Equal(t, models.EventCallOffer, f.fanout.lastEventFor(f.bob.ID).Type)
	require.Nil(t, f.fanout.lastEventFor(f.alice.ID))
}

func TestInitiateCallRequiresExactlyOneTarget(t *testing.T) {
	f := newCallFixture(t)

	_, aerr := f.svc.InitiateCall(f.alice.ID, &models.InitiateCallRequest{Type: models.CallTypeAudio})
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusBadRequest, aerr.Status)
}

func TestInitiateGroupCallExcludesCaller(t *testing.T) {
	f := newCallFixture(t)
	group := f.groups.addGroup(f.alice.ID, f.bob.ID, f.carol.ID)

	call, aerr := f.svc.InitiateCall(f.alice.ID, &models.InitiateCallRequest{
		GroupID: &group.ID,
		Type:    models.CallTypeGroupVideo,
	})
	require.Nil(t, aerr)
	require.True(t, call.IsGroupCall())
	require.True(t, call.HasParticipant(f.alice.ID))

	require.Nil(t, f.fanout.lastEventFor(f.alice.ID))
	require.Equal(t, models.EventCallOffer, f.fanout.lastEventFor(f.bob.ID).Type)
	require.Equal(t, models.EventCallOffer, f.fanout.lastEventFor(f.carol.ID).Type)
}

func TestInitiateGroupCallNonMemberForbidden(t *testing.T) {
	f := newCallFixture(t)
	group := f.groups.addGroup(f.alice.ID, f.bob.ID)

	_, aerr := f.svc.InitiateCall(f.carol.ID, &models.InitiateCallRequest{
		GroupID: &group.ID,
		Type:    models.CallTypeGroupAudio,
	})
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusForbidden, aerr.Status)
}

func TestAnswerCallActivates(t *testing.T) {
	f := newCallFixture(t)
	call := f.directCall(t)

	answered, aerr := f.svc.AnswerCall(call.ID, f.bob.ID, map[string]any{"sdp": "answer"})
	require.Nil(t, aerr)
	require.Equal(t, models.CallStatusActive, answered.Status)

	// The answer is routed back to the caller.
	event := f.fanout.lastEventFor(f.alice.ID)
	require.NotNil(t, event)
	require.Equal(t, models.EventCallAnswer, event.Type)
}

func TestAnswerCallCallerCannotSelfAnswer(t *testing.T) {
	f := newCallFixture(t)
	call := f.directCall(t)

	_, aerr := f.svc.AnswerCall(call.ID, f.alice.ID, nil)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusForbidden, aerr.Status)

	stored, err := f.repo.FindCallByID(call.ID)
	require.NoError(t, err)
	require.Equal(t, models.CallStatusInitiated, stored.Status)
}

func TestAnswerCallOutsiderForbidden(t *testing.T) {
	f := newCallFixture(t)
	call := f.directCall(t)

	_, aerr := f.svc.AnswerCall(call.ID, f.carol.ID, nil)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusForbidden, aerr.Status)
}

func TestAnswerEndedCallConflicts(t *testing.T) {
	f := newCallFixture(t)
	call := f.directCall(t)

	_, aerr := f.svc.EndCall(call.ID, f.alice.ID)
	require.Nil(t, aerr)

	_, aerr = f.svc.AnswerCall(call.ID, f.bob.ID, nil)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusConflict, aerr.Status)
}

func TestEndCall(t *testing.T) {
	f := newCallFixture(t)
	call := f.directCall(t)

	ended, aerr := f.svc.EndCall(call.ID, f.bob.ID)
	require.Nil(t, aerr)
	require.Equal(t, models.CallStatusEnded, ended.Status)
	require.NotNil(t, ended.EndAt)

	// Both sides learn the call ended, including the side that hung up.
	require.Equal(t, models.EventCallEnd, f.fanout.lastEventFor(f.alice.ID).Type)
	require.Equal(t, models.EventCallEnd, f.fanout.lastEventFor(f.bob.ID).Type)
}

func TestEndCallTwiceConflicts(t *testing.T) {
	f := newCallFixture(t)
	call := f.directCall(t)

	_, aerr := f.svc.EndCall(call.ID, f.alice.ID)
	require.Nil(t, aerr)
	_, aerr = f.svc.EndCall(call.ID, f.alice.ID)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusConflict, aerr.Status)
}

func TestEndCallNonParticipantForbidden(t *testing.T) {
	f := newCallFixture(t)
	call := f.directCall(t)

	_, aerr := f.svc.EndCall(call.ID, f.carol.ID)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusForbidden, aerr.Status)
}

func TestRelayIceCandidateRoutesToOtherSide(t *testing.T) {
	f := newCallFixture(t)
	call := f.directCall(t)

	aerr := f.svc.RelayIceCandidate(call.ID, f.alice.ID, map[string]any{"candidate": "c1"})
	require.Nil(t, aerr)
	require.Equal(t, models.EventCallIce, f.fanout.lastEventFor(f.bob.ID).Type)

	aerr = f.svc.RelayIceCandidate(call.ID, f.bob.ID, map[string]any{"candidate": "c2"})
	require.Nil(t, aerr)
	require.Equal(t, models.EventCallIce, f.fanout.lastEventFor(f.alice.ID).Type)

	// Relay never mutates the call.
	stored, err := f.repo.FindCallByID(call.ID)
	require.NoError(t, err)
	require.Equal(t, models.CallStatusInitiated, stored.Status)
}

func TestRelayIceCandidateGroupUsesLiveMembership(t *testing.T) {
	f := newCallFixture(t)
	group := f.groups.addGroup(f.alice.ID, f.bob.ID)

	call, aerr := f.svc.InitiateCall(f.alice.ID, &models.InitiateCallRequest{
		GroupID: &group.ID,
		Type:    models.CallTypeGroupAudio,
	})
	require.Nil(t, aerr)

	// carol joins the group after the call started; membership is read live.
	group.AddMember(f.carol.ID, models.GroupRoleMember)
	aerr = f.svc.RelayIceCandidate(call.ID, f.carol.ID, map[string]any{"candidate": "c3"})
	require.Nil(t, aerr)

	// bob left; signaling from then on is rejected.
	group.RemoveMember(f.bob.ID)
	aerr = f.svc.RelayIceCandidate(call.ID, f.bob.ID, nil)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusForbidden, aerr.Status)
}

func TestCallHistory(t *testing.T) {
	f := newCallFixture(t)
	f.directCall(t)

	calls, aerr := f.svc.CallHistory(f.alice.ID)
	require.Nil(t, aerr)
	require.Len(t, calls, 1)

	calls, aerr = f.svc.CallHistory(f.carol.ID)
	require.Nil(t, aerr)
	require.Empty(t, calls)

	_, aerr = f.svc.CallHistory(uuid.New())
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusNotFound, aerr.Status)
}
