package websocket

import (
	"log/slog"
	"sync"
	"time"
)

// Transport is one writable realtime connection. *gorilla.Conn satisfies it
// in production; tests plug in fakes.
type Transport interface {
	WriteJSON(v any) error
	Close() error
}

// AdminIdentity is who a verified credential belongs to.
type AdminIdentity struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// ConnectionInfo is one row of the connected-admins snapshot.
type ConnectionInfo struct {
	AdminID     string    `json:"admin_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	ConnectedAt time.Time `json:"connected_at"`
}

type connection struct {
	transport   Transport
	identity    AdminIdentity
	connectedAt time.Time
}

// Registry tracks which admin is connected on which transport and fans
// messages out. One transport per admin: registering again for the same
// admin closes the previous transport and takes its place.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*connection
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*connection),
		logger: logger,
	}
}

// Register adds a connection and announces it to everyone else. If the
// admin already had a connection, the old transport is closed first and all
// subsequent traffic goes to the new one.
func (r *Registry) Register(identity AdminIdentity, t Transport) {
	r.mu.Lock()
	if old, ok := r.conns[identity.AdminID]; ok {
		old.transport.Close()
		r.logger.Info("replaced existing connection", "admin_id", identity.AdminID)
	}
	r.conns[identity.AdminID] = &connection{
		transport:   t,
		identity:    identity,
		connectedAt: time.Now().UTC(),
	}
	total := len(r.conns)
	r.mu.Unlock()

	r.logger.Info("admin connected", "admin_id", identity.AdminID, "total_connections", total)

	r.Broadcast(NewMessage(TypeAdminConnected, map[string]any{
		"admin_id":          identity.AdminID,
		"email":             identity.Email,
		"role":              identity.Role,
		"total_connections": total,
	}), identity.AdminID)
}

// Unregister removes the connection and announces the departure. It only
// removes when t is still the registered transport, so the deferred cleanup
// of a replaced connection cannot evict its successor. Unknown admins are a
// no-op.
func (r *Registry) Unregister(adminID string, t Transport) {
	r.mu.Lock()
	current, ok := r.conns[adminID]
	if !ok || current.transport != t {
		r.mu.Unlock()
		return
	}
	delete(r.conns, adminID)
	total := len(r.conns)
	r.mu.Unlock()

	r.logger.Info("admin disconnected", "admin_id", adminID, "total_connections", total)

	r.Broadcast(NewMessage(TypeAdminDisconnected, map[string]any{
		"admin_id":          adminID,
		"total_connections": total,
	}))
}

// SendTo writes to one admin. The bool reports whether the admin had a
// connection at all; a write failure also drops the dead connection.
func (r *Registry) SendTo(adminID string, msg Message) (bool, error) {
	r.mu.RLock()
	conn, ok := r.conns[adminID]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := conn.transport.WriteJSON(msg); err != nil {
		r.logger.Warn("unicast write failed, dropping connection", "admin_id", adminID, "error", err)
		r.remove(adminID, conn.transport)
		return true, err
	}
	return true, nil
}

// Broadcast writes to every connection except the excluded admins. Failed
// connections are collected during the write pass and removed afterwards,
// so one dead client never blocks delivery to the rest.
func (r *Registry) Broadcast(msg Message, exclude ...string) {
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	r.mu.RLock()
	targets := make(map[string]Transport, len(r.conns))
	for id, conn := range r.conns {
		if _, skip := excluded[id]; skip {
			continue
		}
		targets[id] = conn.transport
	}
	r.mu.RUnlock()

	var failed []string
	for id, t := range targets {
		if err := t.WriteJSON(msg); err != nil {
			r.logger.Warn("broadcast write failed", "admin_id", id, "error", err)
			failed = append(failed, id)
		}
	}

	for _, id := range failed {
		r.remove(id, targets[id])
	}
}

// remove drops adminID if t is still its registered transport, then closes t.
func (r *Registry) remove(adminID string, t Transport) {
	r.mu.Lock()
	if current, ok := r.conns[adminID]; ok && current.transport == t {
		delete(r.conns, adminID)
	}
	r.mu.Unlock()
	t.Close()
}

// Connections returns a snapshot of who is connected and since when.
func (r *Registry) Connections() []ConnectionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConnectionInfo, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, ConnectionInfo{
			AdminID:     conn.identity.AdminID,
			Email:       conn.identity.Email,
			Role:        conn.identity.Role,
			ConnectedAt: conn.connectedAt,
		})
	}
	return out
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
