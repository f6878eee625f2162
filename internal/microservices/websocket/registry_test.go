package websocket

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeTransport records everything written to it and can be told to fail.
type fakeTransport struct {
	mu         sync.Mutex
	messages   []Message
	failWrites bool
	closed     bool
}

func (f *fakeTransport) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("write failed")
	}
	f.messages = append(f.messages, v.(Message))
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) received() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *fakeTransport) receivedOfType(msgType MessageType) []Message {
	var out []Message
	for _, msg := range f.received() {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ident(adminID string) AdminIdentity {
	return AdminIdentity{AdminID: adminID, Email: adminID + "@patent.ai", Role: "admin"}
}

func connectedIDs(r *Registry) []string {
	var ids []string
	for _, conn := range r.Connections() {
		ids = append(ids, conn.AdminID)
	}
	return ids
}

func TestRegister_AnnouncesToOthers(t *testing.T) {
	registry := NewRegistry(testLogger())
	first := &fakeTransport{}
	second := &fakeTransport{}

	registry.Register(ident("admin-1"), first)
	registry.Register(ident("admin-2"), second)

	// The earlier connection hears about the newcomer, identity included
	announcements := first.receivedOfType(TypeAdminConnected)
	assert.Len(t, announcements, 1)
	assert.Equal(t, "admin-2", announcements[0].Data["admin_id"])
	assert.Equal(t, "admin-2@patent.ai", announcements[0].Data["email"])
	assert.Equal(t, "admin", announcements[0].Data["role"])

	// The newcomer does not hear about itself
	assert.Empty(t, second.receivedOfType(TypeAdminConnected))
	assert.Equal(t, 2, registry.Len())
}

func TestRegister_ReplacesExistingConnection(t *testing.T) {
	registry := NewRegistry(testLogger())
	old := &fakeTransport{}
	replacement := &fakeTransport{}

	registry.Register(ident("admin-1"), old)
	registry.Register(ident("admin-1"), replacement)

	assert.True(t, old.isClosed())
	assert.Equal(t, 1, registry.Len())

	// Traffic flows to the replacement only
	existed, err := registry.SendTo("admin-1", NewMessage(TypeSystemAlert, map[string]any{"message": "hello"}))
	assert.True(t, existed)
	assert.NoError(t, err)
	assert.Len(t, replacement.receivedOfType(TypeSystemAlert), 1)
	assert.Empty(t, old.receivedOfType(TypeSystemAlert))
}

func TestUnregister_AnnouncesDeparture(t *testing.T) {
	registry := NewRegistry(testLogger())
	leaver := &fakeTransport{}
	stayer := &fakeTransport{}

	registry.Register(ident("admin-1"), leaver)
	registry.Register(ident("admin-2"), stayer)
	registry.Unregister("admin-1", leaver)

	assert.Equal(t, 1, registry.Len())
	departures := stayer.receivedOfType(TypeAdminDisconnected)
	assert.Len(t, departures, 1)
	assert.Equal(t, "admin-1", departures[0].Data["admin_id"])
}

func TestUnregister_UnknownAdminIsNoOp(t *testing.T) {
	registry := NewRegistry(testLogger())
	connected := &fakeTransport{}
	registry.Register(ident("admin-1"), connected)

	registry.Unregister("admin-2", &fakeTransport{})

	assert.Equal(t, 1, registry.Len())
	assert.Empty(t, connected.receivedOfType(TypeAdminDisconnected))
}

func TestUnregister_StaleTransportCannotEvictSuccessor(t *testing.T) {
	registry := NewRegistry(testLogger())
	old := &fakeTransport{}
	replacement := &fakeTransport{}

	registry.Register(ident("admin-1"), old)
	registry.Register(ident("admin-1"), replacement)

	// The replaced connection's deferred cleanup fires late
	registry.Unregister("admin-1", old)

	assert.Equal(t, 1, registry.Len())
	existed, err := registry.SendTo("admin-1", NewMessage(TypePong, nil))
	assert.True(t, existed)
	assert.NoError(t, err)
}

func TestSendTo_UnknownAdmin(t *testing.T) {
	registry := NewRegistry(testLogger())

	existed, err := registry.SendTo("nobody", NewMessage(TypePong, nil))

	assert.False(t, existed)
	assert.NoError(t, err)
}

func TestSendTo_WriteFailureDropsConnection(t *testing.T) {
	registry := NewRegistry(testLogger())
	dead := &fakeTransport{failWrites: true}
	registry.Register(ident("admin-1"), dead)

	existed, err := registry.SendTo("admin-1", NewMessage(TypePong, nil))

	assert.True(t, existed)
	assert.Error(t, err)
	assert.Equal(t, 0, registry.Len())
	assert.True(t, dead.isClosed())
}

func TestBroadcast_ExcludesSender(t *testing.T) {
	registry := NewRegistry(testLogger())
	sender := &fakeTransport{}
	receiver := &fakeTransport{}
	registry.Register(ident("admin-1"), sender)
	registry.Register(ident("admin-2"), receiver)

	registry.Broadcast(NewMessage(TypeSystemAlert, map[string]any{"message": "deploy"}), "admin-1")

	assert.Empty(t, sender.receivedOfType(TypeSystemAlert))
	assert.Len(t, receiver.receivedOfType(TypeSystemAlert), 1)
}

func TestBroadcast_DeadConnectionRemovedOthersStillDelivered(t *testing.T) {
	registry := NewRegistry(testLogger())
	alive1 := &fakeTransport{}
	dead := &fakeTransport{failWrites: true}
	alive2 := &fakeTransport{}
	registry.Register(ident("admin-1"), alive1)
	registry.Register(ident("admin-2"), dead)
	registry.Register(ident("admin-3"), alive2)

	registry.Broadcast(NewMessage(TypeSystemAlert, map[string]any{"message": "disk full"}))

	assert.Len(t, alive1.receivedOfType(TypeSystemAlert), 1)
	assert.Len(t, alive2.receivedOfType(TypeSystemAlert), 1)
	assert.Equal(t, 2, registry.Len())
	assert.True(t, dead.isClosed())
	assert.NotContains(t, connectedIDs(registry), "admin-2")
}

func TestConnections_SnapshotCarriesIdentity(t *testing.T) {
	registry := NewRegistry(testLogger())
	before := time.Now().UTC()
	registry.Register(AdminIdentity{AdminID: "admin-1", Email: "ops@patent.ai", Role: "super_admin"}, &fakeTransport{})

	snapshot := registry.Connections()
	assert.Len(t, snapshot, 1)
	assert.Equal(t, "admin-1", snapshot[0].AdminID)
	assert.Equal(t, "ops@patent.ai", snapshot[0].Email)
	assert.Equal(t, "super_admin", snapshot[0].Role)
	assert.False(t, snapshot[0].ConnectedAt.Before(before))
	assert.False(t, snapshot[0].ConnectedAt.After(time.Now().UTC()))
}

func TestSendTo_DeliversEnvelopeVerbatim(t *testing.T) {
	registry := NewRegistry(testLogger())
	conn := &fakeTransport{}
	registry.Register(ident("admin-1"), conn)

	sent := NewMessage(TypeSystemAlert, map[string]any{"message": "maintenance at 02:00"})
	existed, err := registry.SendTo("admin-1", sent)
	assert.True(t, existed)
	assert.NoError(t, err)

	got := conn.receivedOfType(TypeSystemAlert)
	assert.Len(t, got, 1)
	assert.Equal(t, sent, got[0])

	_, parseErr := time.Parse(time.RFC3339, got[0].Timestamp)
	assert.NoError(t, parseErr)
}
