package websocket

import "time"

// MessageType enumerates every message that crosses the admin socket, in
// both directions. The set is closed: anything else a client sends gets an
// ErrorMessage back, the connection stays up.
type MessageType string

const (
	// Server -> client lifecycle
	TypeConnectionEstablished MessageType = "connection_established"
	TypeAdminConnected        MessageType = "admin_connected"
	TypeAdminDisconnected     MessageType = "admin_disconnected"
	TypeHeartbeat             MessageType = "heartbeat"

	// Client -> server requests and their replies
	TypePing                  MessageType = "ping"
	TypePong                  MessageType = "pong"
	TypeSubscribeToAlerts     MessageType = "subscribe_to_alerts"
	TypeSubscriptionConfirmed MessageType = "subscription_confirmed"
	TypeRequestData           MessageType = "request_data"
	TypeDataResponse          MessageType = "data_response"

	// Server pushes
	TypeSystemMetrics     MessageType = "system_metrics"
	TypeSystemAlert       MessageType = "system_alert"
	TypeAdminNotification MessageType = "admin_notification"
	TypeUserActivity      MessageType = "user_activity"
	TypePaymentUpdate     MessageType = "payment_update"

	TypeError MessageType = "error"
)

// Message is the JSON envelope on the wire. Timestamp is RFC 3339 and set
// by the sender at construction time.
type Message struct {
	Type      MessageType    `json:"type"`
	DataType  string         `json:"data_type,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Inbound is a client frame before dispatch.
type Inbound struct {
	Type     MessageType    `json:"type"`
	DataType string         `json:"data_type,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewMessage builds an envelope with the current timestamp.
func NewMessage(msgType MessageType, data map[string]any) Message {
	return Message{
		Type:      msgType,
		Data:      data,
		Timestamp: now(),
	}
}

// NewDataResponse builds a data_response carrying the echoed data_type.
func NewDataResponse(dataType string, data map[string]any) Message {
	return Message{
		Type:      TypeDataResponse,
		DataType:  dataType,
		Data:      data,
		Timestamp: now(),
	}
}

// NewErrorMessage builds an error envelope with a human-readable reason.
func NewErrorMessage(reason string) Message {
	return NewMessage(TypeError, map[string]any{"message": reason})
}
