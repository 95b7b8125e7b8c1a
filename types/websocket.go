package types

// Message types sent to surfaces
const (
	MessageTypeState  = "state"  // playback state update
	MessageTypeHello  = "hello"  // sent once after registration
	MessageTypeClosed = "closed" // surface is being closed by the controller
)

// SurfaceMessage represents a WebSocket message sent to a surface
type SurfaceMessage struct {
	Type      string        `json:"type"`
	SurfaceID string        `json:"surfaceId,omitempty"`
	State     *SurfaceState `json:"state,omitempty"`
}
