package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"patentadmin/internal/microservices/http-api/dto"
	"patentadmin/internal/microservices/websocket"
)

// RealtimeHandler is the REST surface over the socket registry: who is
// connected, push to everyone, push to one admin.
type RealtimeHandler struct {
	registry *websocket.Registry
}

func NewRealtimeHandler(registry *websocket.Registry) *RealtimeHandler {
	return &RealtimeHandler{registry: registry}
}

func (h *RealtimeHandler) ConnectedAdmins(c *gin.Context) {
	connections := h.registry.Connections()
	c.JSON(http.StatusOK, gin.H{
		"connected_admins":  connections,
		"total_connections": len(connections),
	})
}

// Broadcast pushes a message to every connected admin except the caller,
// who already knows what they sent.
func (h *RealtimeHandler) Broadcast(c *gin.Context) {
	var req dto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	senderID := c.GetString("adminID")
	h.registry.Broadcast(websocket.NewMessage(websocket.MessageType(req.MessageType), req.Data), senderID)

	c.JSON(http.StatusOK, gin.H{
		"message":    "broadcast sent",
		"recipients": h.registry.Len(),
	})
}

// Notify pushes a message to a single admin; 404 when they are offline.
func (h *RealtimeHandler) Notify(c *gin.Context) {
	var req dto.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminID := c.Param("admin_id")
	existed, err := h.registry.SendTo(adminID, websocket.NewMessage(websocket.TypeAdminNotification, req.Data))
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"error": "admin not connected"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed, connection dropped"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification sent"})
}
