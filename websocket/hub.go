package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"media54/types"
)

// ErrTransportFailure is reported when a message cannot be queued for a
// surface. It is handled inside the hub and never returned from Broadcast.
var ErrTransportFailure = errors.New("transport failure")

// Surface is an output target the hub can push state to. The hub holds a
// reference to send to it but does not own its lifetime.
type Surface interface {
	ID() string
	Role() types.SurfaceRole
	// Send queues msg without blocking; an error means the surface is gone.
	Send(msg types.SurfaceMessage) error
	// Close tears the surface down. It must be idempotent and must not call
	// back into the hub synchronously.
	Close()
}

// Hub interface defines the methods of the presentation sync controller
type Hub interface {
	Run(ctx context.Context)
	RegisterSurface(surface Surface)
	UnregisterSurface(id string)
	Broadcast(activeSlideIndex int, payload json.RawMessage)
	State() types.SurfaceState
	Surfaces() []types.SurfaceInfo
}

type entry struct {
	surface      Surface
	status       types.SurfaceStatus
	registeredAt time.Time
}

type stateUpdate struct {
	activeSlideIndex int
	payload          json.RawMessage
}

// hub owns the registry of live surfaces and the last broadcast state.
// All registry access happens on the Run goroutine.
type hub struct {
	// Registered surfaces keyed by surface ID
	surfaces map[string]*entry

	// Last broadcast state, pushed to late joiners
	state types.SurfaceState

	register   chan Surface
	unregister chan string
	broadcast  chan stateUpdate
	queries    chan func()

	done chan struct{}
}

// NewHub creates a new presentation sync hub
func NewHub() Hub {
	return &hub{
		surfaces:   make(map[string]*entry),
		register:   make(chan Surface),
		unregister: make(chan string),
		broadcast:  make(chan stateUpdate),
		queries:    make(chan func()),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop. When ctx is cancelled every
// registered surface is closed.
func (h *hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for id := range h.surfaces {
				h.closeSurface(id)
			}
			return

		case surface := <-h.register:
			h.handleRegister(surface)

		case id := <-h.unregister:
			h.handleUnregister(id)

		case update := <-h.broadcast:
			h.handleBroadcast(update)

		case query := <-h.queries:
			query()
		}
	}
}

func (h *hub) handleRegister(surface Surface) {
	id := surface.ID()
	if _, exists := h.surfaces[id]; exists {
		log.Printf("Surface %s already registered", id)
		return
	}
	h.surfaces[id] = &entry{
		surface:      surface,
		status:       types.SurfaceStatusLive,
		registeredAt: time.Now(),
	}
	log.Printf("Surface %s (%s) registered", id, surface.Role())

	h.send(id, types.SurfaceMessage{Type: types.MessageTypeHello, SurfaceID: id})
	if h.state.Version > 0 {
		state := h.state
		h.send(id, types.SurfaceMessage{Type: types.MessageTypeState, SurfaceID: id, State: &state})
	}
}

func (h *hub) handleUnregister(id string) {
	e, ok := h.surfaces[id]
	if !ok {
		return
	}
	h.closeSurface(id)
	log.Printf("Surface %s (%s) closed", id, e.surface.Role())

	// closing the control surface closes every output it drives
	if e.surface.Role() == types.SurfaceRoleControl {
		for otherID, other := range h.surfaces {
			if other.surface.Role() == types.SurfaceRolePresentation {
				h.closeSurface(otherID)
				log.Printf("Surface %s closed with control surface %s", otherID, id)
			}
		}
	}
}

func (h *hub) handleBroadcast(update stateUpdate) {
	h.state = types.SurfaceState{
		Version:          h.state.Version + 1,
		ActiveSlideIndex: update.activeSlideIndex,
		Payload:          update.payload,
		UpdatedAt:        time.Now(),
	}

	ids := make([]string, 0, len(h.surfaces))
	for id := range h.surfaces {
		ids = append(ids, id)
	}
	for _, id := range ids {
		state := h.state
		h.send(id, types.SurfaceMessage{Type: types.MessageTypeState, SurfaceID: id, State: &state})
	}
}

// send delivers msg to one surface, dropping the surface if it is gone
func (h *hub) send(id string, msg types.SurfaceMessage) {
	e, ok := h.surfaces[id]
	if !ok || e.status != types.SurfaceStatusLive {
		return
	}
	if err := e.surface.Send(msg); err != nil {
		log.Printf("Dropping surface %s: %v", id, errors.Join(ErrTransportFailure, err))
		h.closeSurface(id)
	}
}

// closeSurface marks the entry closed, removes it and tears the surface down
func (h *hub) closeSurface(id string) {
	e, ok := h.surfaces[id]
	if !ok {
		return
	}
	e.status = types.SurfaceStatusClosed
	delete(h.surfaces, id)
	e.surface.Close()
}

// RegisterSurface adds a surface to the live set and pushes the last state
func (h *hub) RegisterSurface(surface Surface) {
	select {
	case h.register <- surface:
	case <-h.done:
		surface.Close()
	}
}

// UnregisterSurface removes a surface after it reported closure
func (h *hub) UnregisterSurface(id string) {
	select {
	case h.unregister <- id:
	case <-h.done:
	}
}

// Broadcast records the new state and sends it to every live surface,
// including the control surface. Broadcasts are applied in call order.
func (h *hub) Broadcast(activeSlideIndex int, payload json.RawMessage) {
	update := stateUpdate{activeSlideIndex: activeSlideIndex, payload: append(json.RawMessage(nil), payload...)}
	select {
	case h.broadcast <- update:
	case <-h.done:
		log.Printf("Hub stopped, dropping broadcast of slide %d", activeSlideIndex)
	}
}

// query runs fn on the Run goroutine, after every request that was
// accepted before it
func (h *hub) query(fn func()) bool {
	finished := make(chan struct{})
	select {
	case h.queries <- func() { fn(); close(finished) }:
		<-finished
		return true
	case <-h.done:
		return false
	}
}

// State returns the last broadcast state
func (h *hub) State() types.SurfaceState {
	var state types.SurfaceState
	h.query(func() { state = h.state })
	return state
}

// Surfaces returns the live surfaces
func (h *hub) Surfaces() []types.SurfaceInfo {
	infos := []types.SurfaceInfo{}
	h.query(func() {
		for id, e := range h.surfaces {
			infos = append(infos, types.SurfaceInfo{
				ID:           id,
				Role:         e.surface.Role(),
				Status:       e.status,
				RegisteredAt: e.registeredAt,
			})
		}
	})
	return infos
}
