package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AgendaLivre/service-scheduling/pkg/domain"
)

// Envelope is the uniform JSON response wrapper.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries pagination information.
type Meta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Success writes a 200 response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with data and pagination meta.
func Paginated(c *gin.Context, data interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes a 400 response with an error message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: message})
}

// Error maps a domain error to the appropriate HTTP status code.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		message = domErr.Error()
		switch {
		case errors.Is(domErr, domain.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(domErr, domain.ErrConflict):
			status = http.StatusConflict
		case errors.Is(domErr, domain.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(domErr, domain.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(domErr, domain.ErrForbidden):
			status = http.StatusForbidden
		}
	}

	c.JSON(status, Envelope{Success: false, Error: message})
}
