package handlers

import (
	"net/http"
	"strconv"

	"media54/services"
	"media54/types"

	"github.com/gin-gonic/gin"
)

// CollectionHandler handles collection management endpoints
type CollectionHandler struct {
	store services.CollectionStore
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(store services.CollectionStore) *CollectionHandler {
	return &CollectionHandler{
		store: store,
	}
}

// importRequest carries the source paths chosen by the operator
type importRequest struct {
	Paths []string `json:"paths" binding:"required,min=1"`
}

// collectionID parses the :id path parameter
func collectionID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "collection id must be a non-negative integer",
		})
		return 0, false
	}
	return id, true
}

// ListCollections returns every collection, optionally filtered by ?q=
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	collections, err := h.store.ListCollections()
	if err != nil {
		respondError(c, "failed to list collections", err)
		return
	}

	collections = services.FilterCollections(collections, c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"collections": collections,
		"count":       len(collections),
	})
}

// CreateCollection allocates an id and initialises an empty collection
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	id, err := h.store.NextCollectionID()
	if err != nil {
		respondError(c, "failed to allocate collection id", err)
		return
	}
	if err := h.store.InitCollection(id); err != nil {
		respondError(c, "failed to create collection", err)
		return
	}

	record, err := h.store.LoadManifest(id)
	if err != nil {
		respondError(c, "failed to load collection", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         id,
		"collection": record,
	})
}

// GetCollection returns a collection manifest
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	id, ok := collectionID(c)
	if !ok {
		return
	}

	record, err := h.store.LoadManifest(id)
	if err != nil {
		respondError(c, "failed to load collection", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         id,
		"collection": record,
	})
}

// SaveCollection overwrites a collection manifest with the request body
func (h *CollectionHandler) SaveCollection(c *gin.Context) {
	id, ok := collectionID(c)
	if !ok {
		return
	}

	var record types.CollectionRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid collection format",
			"details": err.Error(),
		})
		return
	}

	if err := h.store.SaveManifest(id, &record); err != nil {
		respondError(c, "failed to save collection", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "collection saved",
		"id":         id,
		"collection": record,
	})
}

// ImportFiles stages the requested files into the collection
func (h *CollectionHandler) ImportFiles(c *gin.Context) {
	id, ok := collectionID(c)
	if !ok {
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "paths are required",
			"details": err.Error(),
		})
		return
	}

	items, err := h.store.ImportFiles(id, req.Paths)
	if err != nil {
		respondError(c, "import failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}
