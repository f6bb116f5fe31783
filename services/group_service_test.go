package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/techagentng/chatline/config"
	"github.com/techagentng/chatline/models"
)

type groupFixture struct {
	svc   GroupService
	alice *models.User
	bob   *models.User
	carol *models.User
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()
	auth := newFakeAuthRepo()
	groups := newFakeGroupRepo()
	return &groupFixture{
		svc:   NewGroupService(groups, auth, &config.Config{}),
		alice: auth.addUser("alice"),
		bob:   auth.addUser("bob"),
		carol: auth.addUser("carol"),
	}
}

func (f *groupFixture) create(t *testing.T, members ...uuid.UUID) *models.Group {
	t.Helper()
	group, aerr := f.svc.CreateGroup(f.alice.ID, &models.CreateGroupRequest{
		Name:      "weekend plans",
		MemberIDs: members,
	})
	require.Nil(t, aerr)
	return group
}

func TestCreateGroupCreatorIsAdmin(t *testing.T) {
	f := newGroupFixture(t)
	group := f.create(t, f.bob.ID)

	require.True(t, group.Active)
	require.Equal(t, models.GroupRoleAdmin, group.RoleOf(f.alice.ID))
	require.Equal(t, models.GroupRoleMember, group.RoleOf(f.bob.ID))
}

func TestCreateGroupUnknownMemberRejected(t *testing.T) {
	f := newGroupFixture(t)
	_, aerr := f.svc.CreateGroup(f.alice.ID, &models.CreateGroupRequest{
		Name:      "ghosts",
		MemberIDs: []uuid.UUID{uuid.New()},
	})
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusNotFound, aerr.Status)
}

func TestGetGroupMemberGated(t *testing.T) {
	f := newGroupFixture(t)
	group := f.create(t, f.bob.ID)

	_, aerr := f.svc.GetGroup(group.ID, f.bob.ID)
	require.Nil(t, aerr)

	_, aerr = f.svc.GetGroup(group.ID, f.carol.ID)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusForbidden, aerr.Status)
}

func TestAddMemberRequiresAdmin(t *testing.T) {
	f := newGroupFixture(t)
	group := f.create(t, f.bob.ID)

	_, aerr := f.svc.AddMember(group.ID, f.bob.ID, f.carol.ID)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusForbidden, aerr.Status)

	updated, aerr := f.svc.AddMember(group.ID, f.alice.ID, f.carol.ID)
	require.Nil(t, aerr)
	require.True(t, updated.IsMember(f.carol.ID))

	_, aerr = f.svc.AddMember(group.ID, f.alice.ID, f.carol.ID)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusConflict, aerr.Status)
}

func TestRemoveMemberSelfLeaveAllowed(t *testing.T) {
	f := newGroupFixture(t)
	group := f.create(t, f.bob.ID, f.carol.ID)

	// bob cannot remove carol, but can leave himself.
	_, aerr := f.svc.RemoveMember(group.ID, f.bob.ID, f.carol.ID)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusForbidden, aerr.Status)

	updated, aerr := f.svc.RemoveMember(group.ID, f.bob.ID, f.bob.ID)
	require.Nil(t, aerr)
	require.False(t, updated.IsMember(f.bob.ID))

	// admins can remove anyone.
	updated, aerr = f.svc.RemoveMember(group.ID, f.alice.ID, f.carol.ID)
	require.Nil(t, aerr)
	require.False(t, updated.IsMember(f.carol.ID))
}

func TestDeactivateGroup(t *testing.T) {
	f := newGroupFixture(t)
	group := f.create(t, f.bob.ID)

	aerr := f.svc.DeactivateGroup(group.ID, f.bob.ID)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusForbidden, aerr.Status)

	require.Nil(t, f.svc.DeactivateGroup(group.ID, f.alice.ID))

	aerr = f.svc.DeactivateGroup(group.ID, f.alice.ID)
	require.NotNil(t, aerr)
	require.Equal(t, http.StatusConflict, aerr.Status)
}

func TestListGroups(t *testing.T) {
	f := newGroupFixture(t)
	f.create(t, f.bob.ID)
	f.create(t)

	groups, aerr := f.svc.ListGroups(f.alice.ID)
	require.Nil(t, aerr)
	require.Len(t, groups, 2)

	groups, aerr = f.svc.ListGroups(f.bob.ID)
	require.Nil(t, aerr)
	require.Len(t, groups, 1)
}
