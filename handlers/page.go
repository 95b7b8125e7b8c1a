package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PresentationPage serves the minimal page loaded by presentation windows.
// It connects as a presentation surface and exposes every state update as a
// "media54:state" DOM event for the renderer.
func PresentationPage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, presentationPage)
}

const presentationPage = `<!doctype html>
<html lang="en">
<meta charset="utf-8" />
<title>Media54 presentation</title>
<style>html,body{margin:0;height:100%;background:#000;color:#fff;font-family:system-ui}</style>
<body>
<script>
const ws = new WebSocket(location.origin.replace(/^http/, "ws") + "/api/ws/surface?role=presentation");
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type === "state") {
    window.dispatchEvent(new CustomEvent("media54:state", { detail: msg.state }));
  } else if (msg.type === "closed") {
    window.close();
  }
};
ws.onclose = () => window.close();
</script>
</body>
</html>
`
