package server

import (
	"sort"
	"sync"

	"ghostchat/protocol"

	"go.uber.org/zap"
)

// Registry is the single authority on which anonymous ids hold a live
// connection. At most one entry per id: a reconnect replaces the old handle
// (last-connect-wins) and the stale connection is left to fail on its own
// loop. Sends are a named fire-and-forget contract: failures are logged,
// reported as false where a caller asks, and never unregister the target.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client

	typing  *TypingTracker
	logger  *zap.Logger
	metrics *Metrics
}

func NewRegistry(typing *TypingTracker, logger *zap.Logger, metrics *Metrics) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		typing:  typing,
		logger:  logger,
		metrics: metrics,
	}
}

// Register inserts or replaces the entry for id and announces "online" to
// every other live connection.
func (r *Registry) Register(id string, c *Client) {
	r.mu.Lock()
	r.clients[id] = c
	total := len(r.clients)
	r.mu.Unlock()

	r.metrics.Connections.Set(float64(total))
	r.logger.Info("user connected", zap.String("user", id), zap.Int("total", total))

	r.BroadcastStatus(id, protocol.StatusOnline)
}

// Unregister removes the entry for id, but only while it still points at c:
// a stale loop cleaning up after a reconnect must not evict the replacement.
// Reports whether an entry was removed, so racing cleanup paths stay
// idempotent. The departing sender is purged from all typing state.
func (r *Registry) Unregister(id string, c *Client) bool {
	r.mu.Lock()
	current, ok := r.clients[id]
	if !ok || (c != nil && current != c) {
		r.mu.Unlock()
		return false
	}
	delete(r.clients, id)
	total := len(r.clients)
	r.mu.Unlock()

	r.typing.ClearSender(id)
	r.metrics.Connections.Set(float64(total))
	r.logger.Info("user disconnected", zap.String("user", id), zap.Int("total", total))
	return true
}

func (r *Registry) IsLive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[id]
	return ok
}

// ListLive returns a snapshot of currently registered ids.
func (r *Registry) ListLive() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Deliver sends event through the handle registered for id and reports whether
// the send succeeded. A failure is swallowed and does not unregister the id:
// the dead handle stays until its own loop observes the failure.
func (r *Registry) Deliver(id string, event any) bool {
	r.mu.RLock()
	c, ok := r.clients[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	if err := c.Send(event); err != nil {
		r.logger.Error("failed to send to user", zap.String("user", id), zap.Error(err))
		r.metrics.DeliveryFailures.Inc()
		return false
	}
	return true
}

// BroadcastStatus announces a presence change to every live id except userID.
// Best effort: one failed peer must not abort delivery to the rest. The peer
// snapshot is taken before sending so broadcast never holds the lock across a
// write.
func (r *Registry) BroadcastStatus(userID, status string) {
	ev := protocol.NewStatus(userID, status)

	r.mu.RLock()
	peers := make([]*Client, 0, len(r.clients))
	for id, c := range r.clients {
		if id != userID {
			peers = append(peers, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range peers {
		if err := c.Send(ev); err != nil {
			r.logger.Debug("status broadcast failed", zap.String("peer", c.ID), zap.Error(err))
		}
	}
}

// CloseAll tears down every live connection. Used on shutdown.
func (r *Registry) CloseAll(reason string) {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	for _, c := range clients {
		c.CloseGoingAway(reason)
	}
	r.metrics.Connections.Set(0)
}
