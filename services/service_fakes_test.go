package services

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/techagentng/chatline/models"
)

// In-memory repository doubles shared by the service tests. They mirror the
// lookup semantics of the real Postgres-backed repositories closely enough to
// exercise the state machines without a database.

type fakeAuthRepo struct {
	users     map[uuid.UUID]*models.User
	blacklist map[string]bool
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		users:     make(map[uuid.UUID]*models.User),
		blacklist: make(map[string]bool),
	}
}

func (f *fakeAuthRepo) addUser(username string) *models.User {
	u := &models.User{Username: username, Email: username + "@example.com"}
	u.ID = uuid.New()
	f.users[u.ID] = u
	return u
}

func (f *fakeAuthRepo) CreateUser(user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeAuthRepo) FindUserByID(id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeAuthRepo) FindUserByUsername(username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuthRepo) FindUserByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuthRepo) UserExists(id uuid.UUID) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeAuthRepo) UpdateUser(user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeAuthRepo) UpdateDeviceToken(userID uuid.UUID, token string) error {
	u, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.DeviceToken = token
	return nil
}

func (f *fakeAuthRepo) AddToBlacklist(blacklist *models.Blacklist) error {
	f.blacklist[blacklist.Token] = true
	return nil
}

func (f *fakeAuthRepo) IsTokenInBlacklist(token string) bool {
	return f.blacklist[token]
}

type fakeFriendRepo struct {
	edges []*models.Friend
}

func (f *fakeFriendRepo) CreateFriend(friend *models.Friend) (*models.Friend, error) {
	if friend.ID == uuid.Nil {
		friend.ID = uuid.New()
	}
	f.edges = append(f.edges, friend)
	return friend, nil
}

func (f *fakeFriendRepo) UpdateFriend(friend *models.Friend) error {
	for i, e := range f.edges {
		if e.ID == friend.ID {
			f.edges[i] = friend
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeFriendRepo) DeleteFriend(id uuid.UUID) error {
	for i, e := range f.edges {
		if e.ID == id {
			f.edges = append(f.edges[:i], f.edges[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeFriendRepo) FindPair(a, b uuid.UUID) (*models.Friend, error) {
	for _, e := range f.edges {
		if (e.SenderID == a && e.ReceiverID == b) || (e.SenderID == b && e.ReceiverID == a) {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeFriendRepo) IsBlocked(a, b uuid.UUID) (bool, error) {
	e, err := f.FindPair(a, b)
	if err != nil {
		return false, nil
	}
	return e.Status == models.FriendStatusBlocked, nil
}

func (f *fakeFriendRepo) IsConnected(a, b uuid.UUID) (bool, error) {
	e, err := f.FindPair(a, b)
	if err != nil {
		return false, nil
	}
	return e.Status == models.FriendStatusAccepted, nil
}

func (f *fakeFriendRepo) ListFriends(userID uuid.UUID) ([]models.Friend, error) {
	var out []models.Friend
	for _, e := range f.edges {
		if e.Status == models.FriendStatusAccepted && (e.SenderID == userID || e.ReceiverID == userID) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeFriendRepo) ListPending(userID uuid.UUID) ([]models.Friend, error) {
	var out []models.Friend
	for _, e := range f.edges {
		if e.Status == models.FriendStatusPending && e.ReceiverID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeGroupRepo struct {
	groups map[uuid.UUID]*models.Group
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: make(map[uuid.UUID]*models.Group)}
}

func (f *fakeGroupRepo) addGroup(creatorID uuid.UUID, memberIDs ...uuid.UUID) *models.Group {
	g := &models.Group{Name: "test group", CreatorID: creatorID, Active: true}
	g.ID = uuid.New()
	g.AddMember(creatorID, models.GroupRoleAdmin)
	for _, id := range memberIDs {
		g.AddMember(id, models.GroupRoleMember)
	}
	f.groups[g.ID] = g
	return g
}

func (f *fakeGroupRepo) CreateGroup(group *models.Group) (*models.Group, error) {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	f.groups[group.ID] = group
	return group, nil
}

func (f *fakeGroupRepo) FindGroupByID(id uuid.UUID) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return g, nil
}

func (f *fakeGroupRepo) UpdateGroup(group *models.Group) error {
	f.groups[group.ID] = group
	return nil
}

func (f *fakeGroupRepo) Members(groupID uuid.UUID) ([]uuid.UUID, error) {
	g, ok := f.groups[groupID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	members := make([]uuid.UUID, 0, len(g.MemberIDs))
	for _, m := range g.MemberIDs {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		members = append(members, id)
	}
	return members, nil
}

func (f *fakeGroupRepo) Role(groupID, userID uuid.UUID) (models.GroupRole, error) {
	g, ok := f.groups[groupID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return g.RoleOf(userID), nil
}

func (f *fakeGroupRepo) ListGroupsForUser(userID uuid.UUID) ([]models.Group, error) {
	var out []models.Group
	for _, g := range f.groups {
		if g.IsMember(userID) {
			out = append(out, *g)
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	messages map[uuid.UUID]*models.Message
	order    []uuid.UUID
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*models.Message)}
}

func (f *fakeMessageRepo) CreateMessage(message *models.Message) (*models.Message, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	f.messages[message.ID] = message
	f.order = append(f.order, message.ID)
	return message, nil
}

func (f *fakeMessageRepo) FindMessageByID(id uuid.UUID) (*models.Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (f *fakeMessageRepo) UpdateMessage(message *models.Message) error {
	if _, ok := f.messages[message.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.messages[message.ID] = message
	return nil
}

func (f *fakeMessageRepo) FindMessageByTempID(tempID string) (*models.Message, error) {
	for _, id := range f.order {
		if f.messages[id].TempID == tempID {
			return f.messages[id], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) FindByParticipantPair(a, b uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, id := range f.order {
		m := f.messages[id]
		if m.GroupID != nil || m.ReceiverID == nil {
			continue
		}
		if (m.SenderID == a && *m.ReceiverID == b) || (m.SenderID == b && *m.ReceiverID == a) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) FindByGroup(groupID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, id := range f.order {
		m := f.messages[id]
		if m.GroupID != nil && *m.GroupID == groupID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) FindPinnedByPair(a, b uuid.UUID) ([]models.Message, error) {
	all, _ := f.FindByParticipantPair(a, b)
	return onlyPinned(all), nil
}

func (f *fakeMessageRepo) FindPinnedByGroup(groupID uuid.UUID) ([]models.Message, error) {
	all, _ := f.FindByGroup(groupID)
	return onlyPinned(all), nil
}

func (f *fakeMessageRepo) SearchPair(a, b uuid.UUID, keyword string) ([]models.Message, error) {
	all, _ := f.FindByParticipantPair(a, b)
	return matchKeyword(all, keyword), nil
}

func (f *fakeMessageRepo) SearchGroup(groupID uuid.UUID, keyword string) ([]models.Message, error) {
	all, _ := f.FindByGroup(groupID)
	return matchKeyword(all, keyword), nil
}

func onlyPinned(messages []models.Message) []models.Message {
	var out []models.Message
	for _, m := range messages {
		if m.Pinned {
			out = append(out, m)
		}
	}
	return out
}

func matchKeyword(messages []models.Message, keyword string) []models.Message {
	kw := strings.ToLower(keyword)
	var out []models.Message
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m.Content), kw) ||
			strings.Contains(strings.ToLower(m.FileName), kw) {
			out = append(out, m)
		}
	}
	return out
}

type fakeCallRepo struct {
	calls map[uuid.UUID]*models.Call
}

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{calls: make(map[uuid.UUID]*models.Call)}
}

func (f *fakeCallRepo) CreateCall(call *models.Call) (*models.Call, error) {
	if call.ID == uuid.Nil {
		call.ID = uuid.New()
	}
	f.calls[call.ID] = call
	return call, nil
}

func (f *fakeCallRepo) FindCallByID(id uuid.UUID) (*models.Call, error) {
	c, ok := f.calls[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeCallRepo) UpdateCall(call *models.Call) error {
	f.calls[call.ID] = call
	return nil
}

func (f *fakeCallRepo) FindByParticipant(userID uuid.UUID) ([]models.Call, error) {
	var out []models.Call
	for _, c := range f.calls {
		if c.CallerID == userID || c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCallRepo) FindCallsByGroup(groupID uuid.UUID) ([]models.Call, error) {
	var out []models.Call
	for _, c := range f.calls {
		if c.GroupID != nil && *c.GroupID == groupID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// recordingBroker captures deliveries per destination. offline holds
// destinations that report no live channel.
type recordingBroker struct {
	mu        sync.Mutex
	delivered map[uuid.UUID][]*models.Event
	offline   map[uuid.UUID]bool
}

func newRecordingBroker() *recordingBroker {
	return &recordingBroker{
		delivered: make(map[uuid.UUID][]*models.Event),
		offline:   make(map[uuid.UUID]bool),
	}
}

func (b *recordingBroker) Deliver(userID uuid.UUID, event *models.Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.offline[userID] {
		return false
	}
	b.delivered[userID] = append(b.delivered[userID], event)
	return true
}

func (b *recordingBroker) eventsFor(userID uuid.UUID) []*models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*models.Event, len(b.delivered[userID]))
	copy(out, b.delivered[userID])
	return out
}

type recordingPush struct {
	mu   sync.Mutex
	sent []string
}

func (p *recordingPush) Send(deviceToken, title, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, deviceToken)
	return nil
}

func (p *recordingPush) tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.sent))
	copy(out, p.sent)
	return out
}
