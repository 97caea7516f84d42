package ws

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatd/internal/domain"
)

// Conn is the subset of *websocket.Conn the registry needs. Tests
// substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// event is the envelope written to live connections.
type event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	id   uuid.UUID
	sock Conn

	// gorilla connections allow only one concurrent writer
	writeMu sync.Mutex
}

// Registry is the process-wide presence map from user ID to the user's
// single live connection. It is owned by the server process, created at
// startup and torn down at shutdown, and injected wherever delivery needs
// it. At most one entry exists per user: a new connection for the same
// user replaces the prior one.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*client
	log     zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		clients: make(map[int64]*client),
		log:     log,
	}
}

// Connect records sock as the user's live connection and returns its
// connection ID. Any previously registered connection for the same user is
// closed and replaced (last writer wins).
func (r *Registry) Connect(userID int64, sock Conn) uuid.UUID {
	c := &client{id: uuid.New(), sock: sock}

	r.mu.Lock()
	prev := r.clients[userID]
	r.clients[userID] = c
	r.mu.Unlock()

	if prev != nil {
		_ = prev.sock.Close()
		r.log.Debug().Int64("user_id", userID).Msg("replaced live connection")
	}
	return c.id
}

// Disconnect removes the user's entry if its recorded connection ID still
// matches connID. Duplicate or racing disconnects are no-ops, as is a
// stale disconnect arriving after the user already reconnected.
func (r *Registry) Disconnect(userID int64, connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[userID]; ok && c.id == connID {
		delete(r.clients, userID)
	}
}

// Lookup returns the user's live connection ID. Absence means offline and
// is a normal outcome.
func (r *Registry) Lookup(userID int64) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[userID]
	if !ok {
		return uuid.Nil, false
	}
	return c.id, true
}

// OnlineUserIDs returns a snapshot of all currently connected user IDs.
func (r *Registry) OnlineUserIDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

// Push writes the event to the user's live connection. An offline user
// yields an error wrapping domain.ErrNotFound. A failed write closes the
// connection and drops the entry; the read loop's own disconnect stays a
// no-op afterwards.
func (r *Registry) Push(userID int64, eventName string, payload any) error {
	r.mu.RLock()
	c, ok := r.clients[userID]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}

	c.writeMu.Lock()
	err := c.sock.WriteJSON(event{Event: eventName, Data: payload})
	c.writeMu.Unlock()

	if err != nil {
		_ = c.sock.Close()
		r.Disconnect(userID, c.id)
		return fmt.Errorf("write to user %d: %w", userID, err)
	}
	return nil
}

// BroadcastAll sends the event to every live connection, best effort.
func (r *Registry) BroadcastAll(eventName string, payload any) {
	r.mu.RLock()
	targets := make(map[int64]*client, len(r.clients))
	for id, c := range r.clients {
		targets[id] = c
	}
	r.mu.RUnlock()

	for userID, c := range targets {
		c.writeMu.Lock()
		err := c.sock.WriteJSON(event{Event: eventName, Data: payload})
		c.writeMu.Unlock()
		if err != nil {
			_ = c.sock.Close()
			r.Disconnect(userID, c.id)
		}
	}
}

// Close tears down every live connection, for server shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.clients {
		_ = c.sock.Close()
		delete(r.clients, id)
	}
}
