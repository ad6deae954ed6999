package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// Accepted sends 202 for work that continues in the background.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail sends an error envelope with the given status.
func Fail(c *gin.Context, status int, err string) {
	c.JSON(status, Body{Success: false, Error: err})
}

// BadRequest sends 400.
func BadRequest(c *gin.Context, err string) { Fail(c, http.StatusBadRequest, err) }

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) { Fail(c, http.StatusUnauthorized, err) }

// NotFound sends 404.
func NotFound(c *gin.Context, err string) { Fail(c, http.StatusNotFound, err) }

// Conflict sends 409.
func Conflict(c *gin.Context, err string) { Fail(c, http.StatusConflict, err) }

// TooLarge sends 413.
func TooLarge(c *gin.Context, err string) { Fail(c, http.StatusRequestEntityTooLarge, err) }

// Internal sends 500.
func Internal(c *gin.Context, err string) { Fail(c, http.StatusInternalServerError, err) }

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) { Fail(c, http.StatusForbidden, err) }
