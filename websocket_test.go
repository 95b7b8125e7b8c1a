package main

import (
	"net/http"
	"testing"
	"time"

	"media54/types"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateResponse struct {
	State types.SurfaceState `json:"state"`
}

type surfacesResponse struct {
	Surfaces []types.SurfaceInfo `json:"surfaces"`
	Count    int                 `json:"count"`
}

// readUntilClosed drains a surface connection and reports whether the
// server announced its closure
func readUntilClosed(t *testing.T, conn *websocket.Conn) bool {
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg types.SurfaceMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return false
		}
		if msg.Type == types.MessageTypeClosed {
			return true
		}
	}
}

// TestSurfaceBroadcast tests fan-out of a broadcast to every connected surface
func TestSurfaceBroadcast(t *testing.T) {
	helper := NewTestHelper(t)

	control, _ := helper.ConnectSurface(t, types.SurfaceRoleControl)
	first, _ := helper.ConnectSurface(t, types.SurfaceRolePresentation)
	second, _ := helper.ConnectSurface(t, types.SurfaceRolePresentation)
	helper.WaitForSurfaces(t, 3)

	resp := helper.PostJSON(t, "/api/broadcast", map[string]interface{}{
		"activeSlideIndex": 3,
		"payload":          map[string]interface{}{"position": 1.5, "playing": true},
	}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	for name, conn := range map[string]*websocket.Conn{"control": control, "first": first, "second": second} {
		msg := ReadSurfaceMessage(t, conn)
		assert.Equal(t, types.MessageTypeState, msg.Type, name)
		require.NotNil(t, msg.State, name)
		assert.Equal(t, uint64(1), msg.State.Version, name)
		assert.Equal(t, 3, msg.State.ActiveSlideIndex, name)
		assert.JSONEq(t, `{"position":1.5,"playing":true}`, string(msg.State.Payload), name)
	}

	var state stateResponse
	helper.GetJSON(t, "/api/state", &state)
	assert.Equal(t, uint64(1), state.State.Version)
	assert.Equal(t, 3, state.State.ActiveSlideIndex)
}

// TestSurfaceBroadcastOrder tests that surfaces see broadcasts in send order
func TestSurfaceBroadcastOrder(t *testing.T) {
	helper := NewTestHelper(t)

	conn, _ := helper.ConnectSurface(t, types.SurfaceRolePresentation)
	helper.WaitForSurfaces(t, 1)

	for i := 0; i < 10; i++ {
		resp := helper.PostJSON(t, "/api/broadcast", map[string]interface{}{"activeSlideIndex": i}, nil)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}

	for i := 0; i < 10; i++ {
		msg := ReadSurfaceMessage(t, conn)
		require.Equal(t, types.MessageTypeState, msg.Type)
		assert.Equal(t, i, msg.State.ActiveSlideIndex)
		assert.Equal(t, uint64(i+1), msg.State.Version)
	}
}

// TestSurfaceLateJoiner tests that a new surface starts at the last state
func TestSurfaceLateJoiner(t *testing.T) {
	helper := NewTestHelper(t)

	resp := helper.PostJSON(t, "/api/broadcast", map[string]interface{}{"activeSlideIndex": 1}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp = helper.PostJSON(t, "/api/broadcast", map[string]interface{}{"activeSlideIndex": 7, "payload": "slide seven"}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	conn, _ := helper.ConnectSurface(t, types.SurfaceRolePresentation)
	msg := ReadSurfaceMessage(t, conn)
	assert.Equal(t, types.MessageTypeState, msg.Type)
	require.NotNil(t, msg.State)
	assert.Equal(t, uint64(2), msg.State.Version)
	assert.Equal(t, 7, msg.State.ActiveSlideIndex)
	assert.JSONEq(t, `"slide seven"`, string(msg.State.Payload))
}

// TestControlSurfaceCloseCascades tests that closing the control surface
// closes every presentation surface
func TestControlSurfaceCloseCascades(t *testing.T) {
	helper := NewTestHelper(t)

	control, _ := helper.ConnectSurface(t, types.SurfaceRoleControl)
	first, _ := helper.ConnectSurface(t, types.SurfaceRolePresentation)
	second, _ := helper.ConnectSurface(t, types.SurfaceRolePresentation)
	helper.WaitForSurfaces(t, 3)

	control.Close()

	assert.True(t, readUntilClosed(t, first), "first presentation should be told to close")
	assert.True(t, readUntilClosed(t, second), "second presentation should be told to close")
	helper.WaitForSurfaces(t, 0)
}

// TestPresentationSurfaceClose tests that one presentation closing leaves the
// rest connected and still receiving broadcasts
func TestPresentationSurfaceClose(t *testing.T) {
	helper := NewTestHelper(t)

	_, controlID := helper.ConnectSurface(t, types.SurfaceRoleControl)
	gone, _ := helper.ConnectSurface(t, types.SurfaceRolePresentation)
	stays, staysID := helper.ConnectSurface(t, types.SurfaceRolePresentation)
	helper.WaitForSurfaces(t, 3)

	gone.Close()
	surfaces := helper.WaitForSurfaces(t, 2)
	var ids []string
	for _, s := range surfaces {
		ids = append(ids, s.ID)
		assert.Equal(t, types.SurfaceStatusLive, s.Status)
	}
	assert.ElementsMatch(t, []string{controlID, staysID}, ids)

	resp := helper.PostJSON(t, "/api/broadcast", map[string]interface{}{"activeSlideIndex": 2}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	msg := ReadSurfaceMessage(t, stays)
	assert.Equal(t, 2, msg.State.ActiveSlideIndex)
}

// TestSurfacesEndpoint tests the live surface listing
func TestSurfacesEndpoint(t *testing.T) {
	helper := NewTestHelper(t)

	var list surfacesResponse
	helper.GetJSON(t, "/api/surfaces", &list)
	assert.Equal(t, 0, list.Count)

	_, controlID := helper.ConnectSurface(t, types.SurfaceRoleControl)
	helper.WaitForSurfaces(t, 1)

	helper.GetJSON(t, "/api/surfaces", &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, controlID, list.Surfaces[0].ID)
	assert.Equal(t, types.SurfaceRoleControl, list.Surfaces[0].Role)
}

// TestSurfaceInvalidRole tests rejection of unknown surface roles
func TestSurfaceInvalidRole(t *testing.T) {
	helper := NewTestHelper(t)

	wsURL := "ws" + helper.Server.URL[4:] + "/api/ws/surface?role=projector"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var state stateResponse
	helper.GetJSON(t, "/api/state", &state)
	assert.Equal(t, uint64(0), state.State.Version)
}

// TestInvalidBroadcast tests broadcast request validation
func TestInvalidBroadcast(t *testing.T) {
	helper := NewTestHelper(t)

	resp := helper.PostJSON(t, "/api/broadcast", map[string]interface{}{"payload": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var state stateResponse
	helper.GetJSON(t, "/api/state", &state)
	assert.Equal(t, uint64(0), state.State.Version)
}
