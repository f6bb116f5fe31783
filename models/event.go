package models

// EventType discriminates the payload delivered over a user or group channel.
type EventType string

const (
	EventMessageNew     EventType = "message.new"
	EventMessageRecall  EventType = "message.recall"
	EventMessageDelete  EventType = "message.delete"
	EventMessageEdit    EventType = "message.edit"
	EventMessageRead    EventType = "message.read"
	EventMessagePin     EventType = "message.pin"
	EventMessageUnpin   EventType = "message.unpin"
	EventCallOffer      EventType = "call.offer"
	EventCallAnswer     EventType = "call.answer"
	EventCallIce        EventType = "call.ice"
	EventCallEnd        EventType = "call.end"
	EventFriendRequest  EventType = "friend.request"
	EventFriendAccepted EventType = "friend.accepted"
	EventPresence       EventType = "presence"
	EventTyping         EventType = "typing"
)

// Event is the JSON envelope dispatched to delivery channels.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

// CallSignal is the payload for call.* events.
type CallSignal struct {
	CallID   string      `json:"call_id"`
	CallerID string      `json:"caller_id"`
	SenderID string      `json:"sender_id,omitempty"`
	Type     CallType    `json:"call_type,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}
