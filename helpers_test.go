package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"media54/cmd"
	"media54/config"
	"media54/services"
	"media54/types"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelper provides utilities for testing the Media54 server
type TestHelper struct {
	Server    *httptest.Server
	DataRoot  string
	SourceDir string
	Launcher  *recordingLauncher
	App       *cmd.Server
}

// recordingLauncher stands in for the browser launcher
type recordingLauncher struct {
	mu       sync.Mutex
	launches []launch
}

type launch struct {
	Display types.Display
	URL     string
}

func (l *recordingLauncher) Launch(display types.Display, pageURL string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches = append(l.launches, launch{Display: display, URL: pageURL})
	return nil
}

func (l *recordingLauncher) Launches() []launch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]launch(nil), l.launches...)
}

// NewTestHelper creates a server over a temporary data root
func NewTestHelper(t *testing.T) *TestHelper {
	gin.SetMode(gin.TestMode)

	tmp := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataRoot = filepath.Join(tmp, "collections")
	cfg.Surfaces.SendBuffer = 16
	cfg.Displays = []types.Display{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 1280, Height: 720},
	}

	sourceDir := filepath.Join(tmp, "sources")
	require.NoError(t, os.MkdirAll(sourceDir, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := services.NewCollectionStore(cfg.DataRoot, services.NewTagExtractor(), time.Minute)
	launcher := &recordingLauncher{}
	app, err := cmd.NewServer(ctx, cfg, store, launcher)
	require.NoError(t, err)

	server := httptest.NewServer(app.Router)
	t.Cleanup(server.Close)

	return &TestHelper{
		Server:    server,
		DataRoot:  cfg.DataRoot,
		SourceDir: sourceDir,
		Launcher:  launcher,
		App:       app,
	}
}

// createMinimalMP3File creates a minimal MP3 file with an empty ID3 header
func createMinimalMP3File() []byte {
	return []byte("ID3\x03\x00\x00\x00\x00\x00\x00")
}

// CreateSourceFile creates a file outside the data root to import from
func (h *TestHelper) CreateSourceFile(t *testing.T, name string, content []byte) string {
	path := filepath.Join(h.SourceDir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// doJSON makes a request and unmarshals the JSON response into target
func (h *TestHelper) doJSON(t *testing.T, method, path string, requestBody, target interface{}) *http.Response {
	resp := h.MakeRequest(t, method, path, requestBody)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if target != nil {
		require.NoError(t, json.Unmarshal(body, target), "body: %s", body)
	}
	return resp
}

// GetJSON makes a GET request and unmarshals JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	return h.doJSON(t, http.MethodGet, path, nil, target)
}

// PostJSON makes a POST request with JSON body and unmarshals JSON response
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	return h.doJSON(t, http.MethodPost, path, requestBody, target)
}

// PutJSON makes a PUT request with JSON body and unmarshals JSON response
func (h *TestHelper) PutJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	return h.doJSON(t, http.MethodPut, path, requestBody, target)
}

// ConnectSurface opens a surface WebSocket with the given role and consumes
// its hello message
func (h *TestHelper) ConnectSurface(t *testing.T, role types.SurfaceRole) (*websocket.Conn, string) {
	wsURL := "ws" + h.Server.URL[4:] + "/api/ws/surface?role=" + string(role) // Replace http:// with ws://

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello := ReadSurfaceMessage(t, conn)
	require.Equal(t, types.MessageTypeHello, hello.Type)
	require.NotEmpty(t, hello.SurfaceID)
	return conn, hello.SurfaceID
}

// ReadSurfaceMessage reads one message with a deadline
func ReadSurfaceMessage(t *testing.T, conn *websocket.Conn) types.SurfaceMessage {
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg types.SurfaceMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// WaitForSurfaces waits until the hub reports count live surfaces
func (h *TestHelper) WaitForSurfaces(t *testing.T, count int) []types.SurfaceInfo {
	var surfaces []types.SurfaceInfo
	assert.Eventually(t, func() bool {
		surfaces = h.App.Hub.Surfaces()
		return len(surfaces) == count
	}, 3*time.Second, 20*time.Millisecond, "expected %d live surfaces", count)
	return surfaces
}

// AssertFileExists checks if a file exists under the data root
func (h *TestHelper) AssertFileExists(t *testing.T, relativePath string) {
	_, err := os.Stat(filepath.Join(h.DataRoot, relativePath))
	assert.NoError(t, err, "File should exist: %s", relativePath)
}
