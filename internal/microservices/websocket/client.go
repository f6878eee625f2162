package websocket

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrUnknownDataType is returned by a DataProvider for a data_type it does
// not serve.
var ErrUnknownDataType = errors.New("unknown data type")

// DataProvider answers request_data messages. The dashboard service backs
// this in production.
type DataProvider interface {
	FetchData(ctx context.Context, dataType string) (map[string]any, error)
}

// Client runs the message loop for one connected admin. Inbound frames
// arrive on a channel fed by the read pump; the loop also owns the
// heartbeat timer. A bad frame gets an error reply, it never tears the
// connection down.
type Client struct {
	AdminID           string
	transport         Transport
	provider          DataProvider
	heartbeatInterval time.Duration
	logger            *slog.Logger
}

func NewClient(adminID string, t Transport, provider DataProvider, heartbeatInterval time.Duration, logger *slog.Logger) *Client {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &Client{
		AdminID:           adminID,
		transport:         t,
		provider:          provider,
		heartbeatInterval: heartbeatInterval,
		logger:            logger,
	}
}

// Run consumes frames until the channel closes (read pump ended) or the
// context is cancelled. When nothing arrives within the heartbeat interval
// a heartbeat is sent to keep the connection alive.
func (c *Client) Run(ctx context.Context, frames <-chan Inbound) {
	timer := time.NewTimer(c.heartbeatInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			c.handle(ctx, frame)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.heartbeatInterval)
		case <-timer.C:
			c.send(NewMessage(TypeHeartbeat, nil))
			timer.Reset(c.heartbeatInterval)
		}
	}
}

func (c *Client) handle(ctx context.Context, frame Inbound) {
	switch frame.Type {
	case TypePing:
		c.send(NewMessage(TypePong, nil))
	case TypeSubscribeToAlerts:
		alertTypes, ok := frame.Data["alert_types"]
		if !ok {
			alertTypes = []any{}
		}
		c.send(NewMessage(TypeSubscriptionConfirmed, map[string]any{
			"alert_types": alertTypes,
			"admin_id":    c.AdminID,
		}))
	case TypeRequestData:
		c.handleRequestData(ctx, frame.DataType)
	case "":
		c.send(NewErrorMessage("Invalid message format"))
	default:
		c.send(NewErrorMessage("Unknown message type: " + string(frame.Type)))
	}
}

func (c *Client) handleRequestData(ctx context.Context, dataType string) {
	data, err := c.provider.FetchData(ctx, dataType)
	if errors.Is(err, ErrUnknownDataType) {
		c.send(NewDataResponse(dataType, map[string]any{"error": "Unknown data type"}))
		return
	}
	if err != nil {
		c.logger.Error("data request failed", "admin_id", c.AdminID, "data_type", dataType, "error", err)
		c.send(NewErrorMessage("Failed to fetch data"))
		return
	}
	c.send(NewDataResponse(dataType, data))
}

// send writes a reply on this client's own transport. Write failures are
// logged only; the read pump notices the dead connection and ends the loop.
func (c *Client) send(msg Message) {
	if err := c.transport.WriteJSON(msg); err != nil {
		c.logger.Warn("reply write failed", "admin_id", c.AdminID, "error", err)
	}
}
