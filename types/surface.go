package types

import (
	"encoding/json"
	"time"
)

// SurfaceRole distinguishes the control surface from presentation outputs
type SurfaceRole string

const (
	SurfaceRoleControl      SurfaceRole = "control"
	SurfaceRolePresentation SurfaceRole = "presentation"
)

// SurfaceStatus is the lifecycle state of a registered surface
type SurfaceStatus string

const (
	SurfaceStatusLive   SurfaceStatus = "live"
	SurfaceStatusClosed SurfaceStatus = "closed"
)

// SurfaceState is the playback state shared by every surface.
// Version is zero until the first broadcast.
type SurfaceState struct {
	Version          uint64          `json:"version"`
	ActiveSlideIndex int             `json:"activeSlideIndex"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// SurfaceInfo describes a registered surface
type SurfaceInfo struct {
	ID           string        `json:"id"`
	Role         SurfaceRole   `json:"role"`
	Status       SurfaceStatus `json:"status"`
	RegisteredAt time.Time     `json:"registeredAt"`
}
