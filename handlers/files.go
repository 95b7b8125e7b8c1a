package handlers

import (
	"net/http"
	"os"

	"media54/services"

	"github.com/gin-gonic/gin"
)

// FileHandler streams staged collection assets
type FileHandler struct {
	store services.CollectionStore
}

// NewFileHandler creates a new file handler
func NewFileHandler(store services.CollectionStore) *FileHandler {
	return &FileHandler{
		store: store,
	}
}

// StreamFile serves an asset with range support so players can seek
func (h *FileHandler) StreamFile(c *gin.Context) {
	id, ok := collectionID(c)
	if !ok {
		return
	}

	path, err := h.store.AssetPath(id, c.Param("name"))
	if err != nil {
		respondError(c, "file not found", err)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open file",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return
	}

	c.Header("Content-Type", services.GetContentType(path))
	c.Header("Cache-Control", "public, max-age=3600")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}
