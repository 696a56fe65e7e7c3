package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"template-repo-service/internal/core/domain"
)

// mapDomainError is the single place sentinel errors become status codes.
// Anything unrecognized is a storage or persistence failure: callers get a
// generic message, the cause stays in the logs.
func mapDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrTemplateExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrMissingCategory),
		errors.Is(err, domain.ErrMissingTitle),
		errors.Is(err, domain.ErrMissingDescription),
		errors.Is(err, domain.ErrMissingOwner),
		errors.Is(err, domain.ErrMissingFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrMissingPrincipal):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
