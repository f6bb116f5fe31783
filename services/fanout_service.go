package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/techagentng/chatline/db"
	"github.com/techagentng/chatline/models"
)

// Broker is one delivery plane: a live per-identity channel binding.
// Deliver reports false when the destination has no active channel.
type Broker interface {
	Deliver(userID uuid.UUID, event *models.Event) bool
}

// PushSender is the optional push-notification side channel used when a
// destination has no live channel binding.
type PushSender interface {
	Send(deviceToken, title, body string) error
}

// FanoutRouter resolves an event's destination identity set and dispatches
// one delivery per destination. Dispatch is fire-and-forget: enqueueing never
// blocks the caller, failures are logged and never surfaced, and the
// per-destination order of enqueued events is preserved.
type FanoutRouter interface {
	RouteToIdentity(userID uuid.UUID, event *models.Event)
	RouteToGroup(groupID uuid.UUID, event *models.Event, excludeID uuid.UUID)
	Close()
}

type dispatch struct {
	userID  uuid.UUID
	groupID uuid.UUID
	exclude uuid.UUID
	event   *models.Event
}

type fanoutRouter struct {
	broker    Broker
	groupRepo db.GroupRepository
	authRepo  db.AuthRepository
	push      PushSender
	queue     chan dispatch
	done      chan struct{}
}

const fanoutQueueSize = 256

// NewFanoutRouter starts the single dispatcher goroutine. push may be nil,
// in which case undeliverable events are dropped without fallback.
func NewFanoutRouter(broker Broker, groupRepo db.GroupRepository, authRepo db.AuthRepository, push PushSender) FanoutRouter {
	f := &fanoutRouter{
		broker:    broker,
		groupRepo: groupRepo,
		authRepo:  authRepo,
		push:      push,
		queue:     make(chan dispatch, fanoutQueueSize),
		done:      make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *fanoutRouter) RouteToIdentity(userID uuid.UUID, event *models.Event) {
	f.enqueue(dispatch{userID: userID, event: event})
}

// RouteToGroup resolves the live member set at dispatch time, not at
// event-creation time. Pass uuid.Nil as excludeID to deliver to everyone.
func (f *fanoutRouter) RouteToGroup(groupID uuid.UUID, event *models.Event, excludeID uuid.UUID) {
	f.enqueue(dispatch{groupID: groupID, exclude: excludeID, event: event})
}

func (f *fanoutRouter) Close() {
	close(f.done)
}

func (f *fanoutRouter) enqueue(d dispatch) {
	select {
	case f.queue <- d:
	default:
		log.Printf("fanout queue full, dropping %s event", d.event.Type)
	}
}

func (f *fanoutRouter) run() {
	for {
		select {
		case <-f.done:
			return
		case d := <-f.queue:
			if d.groupID != uuid.Nil {
				f.dispatchGroup(d)
			} else {
				f.deliver(d.userID, d.event)
			}
		}
	}
}

func (f *fanoutRouter) dispatchGroup(d dispatch) {
	members, err := f.groupRepo.Members(d.groupID)
	if err != nil {
		log.Printf("fanout: could not resolve members of group %s: %v", d.groupID, err)
		return
	}
	for _, memberID := range members {
		if memberID == d.exclude {
			continue
		}
		f.deliver(memberID, d.event)
	}
}

// deliver is best-effort: a destination with no active channel falls back to
// a push notification when one is configured, and is otherwise dropped.
func (f *fanoutRouter) deliver(userID uuid.UUID, event *models.Event) {
	if f.broker.Deliver(userID, event) {
		return
	}
	if f.push == nil {
		return
	}
	title, body, ok := pushContent(event)
	if !ok {
		return
	}
	user, err := f.authRepo.FindUserByID(userID)
	if err != nil || user.DeviceToken == "" {
		return
	}
	if err := f.push.Send(user.DeviceToken, title, body); err != nil {
		log.Printf("fanout: push to %s failed: %v", userID, err)
	}
}

// pushContent maps an event to a notification; only events worth waking a
// device for get one.
func pushContent(event *models.Event) (title, body string, ok bool) {
	switch event.Type {
	case models.EventMessageNew:
		return "New message", "You have a new message", true
	case models.EventCallOffer:
		return "Incoming call", "Someone is calling you", true
	case models.EventFriendRequest:
		return "Friend request", "You have a new friend request", true
	default:
		return "", "", false
	}
}
