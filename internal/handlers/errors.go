package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/services"
)

// respondError translates a service error into the status+message pair the
// API exposes. Deny reasons surface verbatim; everything unexpected becomes a
// generic 500.
func respondError(c *gin.Context, err error) {
	var denied *services.DeniedError
	if errors.As(err, &denied) {
		c.JSON(http.StatusForbidden, gin.H{"message": denied.Reason})
		return
	}

	var invalid *services.ValidationError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{"message": invalid.Msg})
		return
	}

	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{"message": conflict.Msg})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// parseUUIDParam reads a path parameter as a UUID, responding 400 on failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
