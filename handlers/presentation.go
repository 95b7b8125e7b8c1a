package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"media54/services"
	"media54/types"
	"media54/websocket"

	"github.com/gin-gonic/gin"
)

// PresentationHandler handles display, surface and broadcast endpoints
type PresentationHandler struct {
	hub        websocket.Hub
	displays   services.DisplayService
	launcher   services.SurfaceLauncher
	baseURL    string
	sendBuffer int
}

// NewPresentationHandler creates a new presentation handler. baseURL is the
// address presentation windows use to reach this server.
func NewPresentationHandler(hub websocket.Hub, displays services.DisplayService, launcher services.SurfaceLauncher, baseURL string, sendBuffer int) *PresentationHandler {
	return &PresentationHandler{
		hub:        hub,
		displays:   displays,
		launcher:   launcher,
		baseURL:    baseURL,
		sendBuffer: sendBuffer,
	}
}

type openPresentationRequest struct {
	Display *int `json:"display" binding:"required"`
}

type broadcastRequest struct {
	ActiveSlideIndex *int            `json:"activeSlideIndex" binding:"required"`
	Payload          json.RawMessage `json:"payload"`
}

// ListDisplays returns the configured displays
func (h *PresentationHandler) ListDisplays(c *gin.Context) {
	displays := h.displays.ListDisplays()
	c.JSON(http.StatusOK, gin.H{
		"displays": displays,
		"count":    len(displays),
	})
}

// OpenPresentation launches a full-screen presentation surface on a display
func (h *PresentationHandler) OpenPresentation(c *gin.Context) {
	var req openPresentationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "display index is required",
			"details": err.Error(),
		})
		return
	}

	display, err := h.displays.Display(*req.Display)
	if err != nil {
		respondError(c, "unknown display", err)
		return
	}

	pageURL := fmt.Sprintf("%s/presentation?display=%d", h.baseURL, *req.Display)
	if err := h.launcher.Launch(display, pageURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open presentation surface",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "presentation surface opening",
		"display": display,
		"url":     pageURL,
	})
}

// Broadcast pushes a new playback state to every live surface
func (h *PresentationHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "activeSlideIndex is required",
			"details": err.Error(),
		})
		return
	}

	h.hub.Broadcast(*req.ActiveSlideIndex, req.Payload)
	c.JSON(http.StatusAccepted, gin.H{
		"message": "broadcast queued",
	})
}

// GetState returns the last broadcast state
func (h *PresentationHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state": h.hub.State(),
	})
}

// ListSurfaces returns the live surfaces
func (h *PresentationHandler) ListSurfaces(c *gin.Context) {
	surfaces := h.hub.Surfaces()
	c.JSON(http.StatusOK, gin.H{
		"surfaces": surfaces,
		"count":    len(surfaces),
	})
}

// HandleSurfaceConnection upgrades a surface window and registers it.
// ?role=control marks the control surface; anything else is a presentation.
func (h *PresentationHandler) HandleSurfaceConnection(c *gin.Context) {
	role := types.SurfaceRolePresentation
	switch c.DefaultQuery("role", string(types.SurfaceRolePresentation)) {
	case string(types.SurfaceRoleControl):
		role = types.SurfaceRoleControl
	case string(types.SurfaceRolePresentation):
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be 'control' or 'presentation'"})
		return
	}

	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, role, h.sendBuffer)
	h.hub.RegisterSurface(client)

	// Start client pumps
	client.StartPumps()
}
