package handlers

import (
	"errors"
	"log"
	"net/http"

	"media54/services"

	"github.com/gin-gonic/gin"
)

// statusFor maps store error kinds to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrCorruptData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidRecord):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s: %v", message, err)
	}
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
