package handler

import (
	"errors"
	"net/http"

	"github.com/tjappo/simple-books/internal/service"
	"github.com/tjappo/simple-books/pkg/response"

	"github.com/gin-gonic/gin"
)

// abortWithError maps the service error taxonomy onto HTTP statuses:
// NotFound 404, InvalidState 409, InvalidInput 400, anything else 500.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	c.JSON(status, response.Error(status, err.Error()))
}
