package server

import "sync"

// TypingTracker records which senders currently signal "typing" to which
// recipient. It is auxiliary bookkeeping for the relay loop: a flag is cleared
// on typing=false, on a message to that recipient, or when the sender
// disconnects. Update rates are human-typing-speed, one mutex is plenty.
type TypingTracker struct {
	mu     sync.Mutex
	typing map[string]map[string]struct{} // recipient -> set of senders
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{typing: make(map[string]map[string]struct{})}
}

// Set adds or discards sender in the recipient's set. Idempotent either way.
func (t *TypingTracker) Set(sender, recipient string, typing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	senders, ok := t.typing[recipient]
	if typing {
		if !ok {
			senders = make(map[string]struct{})
			t.typing[recipient] = senders
		}
		senders[sender] = struct{}{}
		return
	}
	if ok {
		delete(senders, sender)
		if len(senders) == 0 {
			delete(t.typing, recipient)
		}
	}
}

// ClearSender discards sender from every recipient's set. Called on disconnect.
func (t *TypingTracker) ClearSender(sender string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for recipient, senders := range t.typing {
		delete(senders, sender)
		if len(senders) == 0 {
			delete(t.typing, recipient)
		}
	}
}

// IsTyping reports whether sender currently signals typing to recipient.
func (t *TypingTracker) IsTyping(sender, recipient string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	senders, ok := t.typing[recipient]
	if !ok {
		return false
	}
	_, ok = senders[sender]
	return ok
}
