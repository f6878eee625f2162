package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
)

// Close codes sent when the handshake fails after the upgrade.
const (
	CloseUnauthorized  = 4001
	CloseInternalError = 4000
)

// ErrUnauthorized marks a rejected credential. Verifier adapters wrap their
// auth errors in it so the handler can pick the right close code.
var ErrUnauthorized = errors.New("unauthorized")

// TokenVerifier checks the credential presented on the handshake and
// returns the admin it belongs to.
type TokenVerifier interface {
	Verify(token string) (AdminIdentity, error)
}

// TokenVerifierFunc adapts a function to the TokenVerifier interface.
type TokenVerifierFunc func(token string) (AdminIdentity, error)

func (f TokenVerifierFunc) Verify(token string) (AdminIdentity, error) { return f(token) }

// Handler upgrades admin dashboard connections and runs their message
// loops against the registry.
type Handler struct {
	registry          *Registry
	verifier          TokenVerifier
	provider          DataProvider
	heartbeatInterval time.Duration
	upgrader          gws.Upgrader
	logger            *slog.Logger
}

func NewHandler(registry *Registry, verifier TokenVerifier, provider DataProvider, heartbeatInterval time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		registry:          registry,
		verifier:          verifier,
		provider:          provider,
		heartbeatInterval: heartbeatInterval,
		upgrader: gws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard frontend runs on a different origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleConnection is the GET /api/v1/ws/connect endpoint. The token rides
// in the query string because browser WebSocket clients cannot set headers.
// Auth happens after the upgrade so the client receives a proper close code:
// 4001 for a bad credential, 4000 for an unexpected failure.
func (h *Handler) HandleConnection(c *gin.Context) {
	token := c.Query("token")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	identity, err := h.verifier.Verify(token)
	if err != nil {
		code := CloseInternalError
		reason := "Internal Server Error"
		if errors.Is(err, ErrUnauthorized) {
			code = CloseUnauthorized
			reason = "Unauthorized"
		} else {
			h.logger.Error("handshake verification failed", "error", err)
		}
		h.closeWith(conn, code, reason)
		return
	}

	h.serve(c.Request.Context(), conn, identity)
}

func (h *Handler) closeWith(conn *gws.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	conn.WriteControl(gws.CloseMessage, gws.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}

func (h *Handler) serve(ctx context.Context, conn *gws.Conn, identity AdminIdentity) {
	h.registry.Register(identity, conn)
	defer func() {
		h.registry.Unregister(identity.AdminID, conn)
		conn.Close()
	}()

	// Greet after registration so the welcome reflects the final state
	if err := conn.WriteJSON(NewMessage(TypeConnectionEstablished, map[string]any{
		"admin_id": identity.AdminID,
		"email":    identity.Email,
		"role":     identity.Role,
		"message":  "Connected to admin dashboard",
	})); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan Inbound, 8)
	go h.readPump(ctx, conn, frames)

	client := NewClient(identity.AdminID, conn, h.provider, h.heartbeatInterval, h.logger)
	client.Run(ctx, frames)
}

// readPump feeds raw frames into the client loop. A read error means the
// peer is gone; closing the channel ends the loop. A frame that is not
// valid JSON becomes a zero Inbound, which the loop answers with an error
// message while the connection stays up.
func (h *Handler) readPump(ctx context.Context, conn *gws.Conn, frames chan<- Inbound) {
	defer close(frames)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var in Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			in = Inbound{}
		}

		select {
		case frames <- in:
		case <-ctx.Done():
			return
		}
	}
}
