package protocol

import (
	"encoding/json"
	"errors"
)

var ErrInvalidEvent = errors.New("invalid event")

// Event type tags. The inbound set is closed: anything else is ignored by the
// relay loop, and outbound frames only ever carry these tags.
const (
	TypeMessage     = "message"
	TypeMessageSent = "message_sent"
	TypeTyping      = "typing"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeStatus      = "status"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// ClientEvent is one inbound frame as sent by a connected client.
type ClientEvent struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipient_id,omitempty"`
	Text        string `json:"text,omitempty"`
	IsTyping    *bool  `json:"is_typing,omitempty"`
}

// Decode parses an inbound frame. A frame that is not JSON or carries no type
// tag is invalid; the caller drops it without touching the connection.
func Decode(data []byte) (*ClientEvent, error) {
	var ev ClientEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, ErrInvalidEvent
	}
	if ev.Type == "" {
		return nil, ErrInvalidEvent
	}
	return &ev, nil
}

// Typing reports the is_typing flag, defaulting to true when the client omitted it.
func (e *ClientEvent) Typing() bool {
	if e.IsTyping == nil {
		return true
	}
	return *e.IsTyping
}

// Message is the envelope delivered to a recipient.
type Message struct {
	Type      string `json:"type"`
	SenderID  string `json:"sender_id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func NewMessage(senderID, text, timestamp string) Message {
	return Message{Type: TypeMessage, SenderID: senderID, Text: text, Timestamp: timestamp}
}

// MessageSent is the delivery receipt returned to the sender over its own
// connection, always, whether or not the recipient was reachable.
type MessageSent struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipient_id"`
	Delivered   bool   `json:"delivered"`
	Timestamp   string `json:"timestamp"`
}

func NewMessageSent(recipientID string, delivered bool, timestamp string) MessageSent {
	return MessageSent{Type: TypeMessageSent, RecipientID: recipientID, Delivered: delivered, Timestamp: timestamp}
}

// Typing is the indicator forwarded to a recipient. No receipt is produced.
type Typing struct {
	Type     string `json:"type"`
	SenderID string `json:"sender_id"`
	IsTyping bool   `json:"is_typing"`
}

func NewTyping(senderID string, isTyping bool) Typing {
	return Typing{Type: TypeTyping, SenderID: senderID, IsTyping: isTyping}
}

// Status announces a presence change to every other live connection.
type Status struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func NewStatus(userID, status string) Status {
	return Status{Type: TypeStatus, UserID: userID, Status: status}
}

type Pong struct {
	Type string `json:"type"`
}

func NewPong() Pong {
	return Pong{Type: TypePong}
}
