package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"patentadmin/internal/microservices/websocket"
)

// stubConn implements websocket.Transport for registry-backed tests.
type stubConn struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (s *stubConn) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, v.(websocket.Message))
	return nil
}

func (s *stubConn) Close() error { return nil }

func (s *stubConn) ofType(msgType websocket.MessageType) []websocket.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []websocket.Message
	for _, msg := range s.messages {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}

func newTestRegistry() *websocket.Registry {
	return websocket.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func wsIdent(adminID string) websocket.AdminIdentity {
	return websocket.AdminIdentity{AdminID: adminID, Email: adminID + "@patent.ai", Role: "admin"}
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asAdmin injects the context keys AuthMiddleware would set.
func asAdmin(adminID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("adminID", adminID)
		c.Next()
	}
}

func TestConnectedAdmins(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(wsIdent("admin-1"), &stubConn{})
	registry.Register(wsIdent("admin-2"), &stubConn{})

	handler := NewRealtimeHandler(registry)
	router := setupRouter()
	router.GET("/connected-admins", handler.ConnectedAdmins)

	req, _ := http.NewRequest("GET", "/connected-admins", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		ConnectedAdmins  []websocket.ConnectionInfo `json:"connected_admins"`
		TotalConnections int                        `json:"total_connections"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, 2, response.TotalConnections)

	var ids []string
	for _, conn := range response.ConnectedAdmins {
		ids = append(ids, conn.AdminID)
		assert.NotEmpty(t, conn.Email)
		assert.Equal(t, "admin", conn.Role)
		assert.False(t, conn.ConnectedAt.IsZero())
	}
	assert.ElementsMatch(t, []string{"admin-1", "admin-2"}, ids)
}

func TestBroadcast_ExcludesCaller(t *testing.T) {
	registry := newTestRegistry()
	callerConn := &stubConn{}
	otherConn := &stubConn{}
	registry.Register(wsIdent("admin-1"), callerConn)
	registry.Register(wsIdent("admin-2"), otherConn)

	handler := NewRealtimeHandler(registry)
	router := setupRouter()
	router.POST("/broadcast", asAdmin("admin-1"), handler.Broadcast)

	body, _ := json.Marshal(map[string]any{
		"message_type": "system_alert",
		"data":         map[string]any{"message": "maintenance window"},
	})
	req, _ := http.NewRequest("POST", "/broadcast", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, callerConn.ofType(websocket.TypeSystemAlert))

	delivered := otherConn.ofType(websocket.TypeSystemAlert)
	assert.Len(t, delivered, 1)
	assert.Equal(t, "maintenance window", delivered[0].Data["message"])
}

func TestNotify_DeliversToTarget(t *testing.T) {
	registry := newTestRegistry()
	targetConn := &stubConn{}
	registry.Register(wsIdent("admin-2"), targetConn)

	handler := NewRealtimeHandler(registry)
	router := setupRouter()
	router.POST("/notify/:admin_id", asAdmin("admin-1"), handler.Notify)

	body, _ := json.Marshal(map[string]any{
		"data": map[string]any{"message": "your report is ready"},
	})
	req, _ := http.NewRequest("POST", "/notify/admin-2", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	delivered := targetConn.ofType(websocket.TypeAdminNotification)
	assert.Len(t, delivered, 1)
	assert.Equal(t, "your report is ready", delivered[0].Data["message"])
}

func TestNotify_OfflineAdmin(t *testing.T) {
	handler := NewRealtimeHandler(newTestRegistry())
	router := setupRouter()
	router.POST("/notify/:admin_id", asAdmin("admin-1"), handler.Notify)

	body, _ := json.Marshal(map[string]any{
		"data": map[string]any{"message": "hello?"},
	})
	req, _ := http.NewRequest("POST", "/notify/admin-9", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
