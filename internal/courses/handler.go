// Package courses exposes course CRUD. A course code namespaces its lectures' artifacts.
package courses

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-lectures/backend/internal/models"
	"github.com/aura-lectures/backend/pkg/response"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]{0,31}$`)

// Store is the persistence the handler needs.
type Store interface {
	Create(ctx context.Context, c *models.Course) error
	GetByCode(ctx context.Context, code string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	Update(ctx context.Context, code string, title, description *string) (*models.Course, error)
	Delete(ctx context.Context, code string) error
}

// CreateRequest is the body for POST /courses.
type CreateRequest struct {
	Code        string `json:"code" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// UpdateRequest is the body for PATCH /courses/:code.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Handler handles course HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a course handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// Create handles POST /courses.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	req.Title = strings.TrimSpace(req.Title)
	if !codePattern.MatchString(req.Code) {
		response.BadRequest(c, "code must be 1-32 letters, digits, spaces, dots, dashes or underscores")
		return
	}
	if req.Title == "" {
		response.BadRequest(c, "title required")
		return
	}
	course := &models.Course{Code: req.Code, Title: req.Title, Description: strings.TrimSpace(req.Description)}
	if err := h.store.Create(c.Request.Context(), course); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			response.Conflict(c, "course code already exists")
			return
		}
		h.logger.Error("create course failed", zap.Error(err), zap.String("course_code", req.Code))
		response.Internal(c, "failed to create course")
		return
	}
	response.Created(c, course)
}

// List handles GET /courses.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list courses failed", zap.Error(err))
		response.Internal(c, "failed to list courses")
		return
	}
	response.OK(c, list)
}

// Get handles GET /courses/:code.
func (h *Handler) Get(c *gin.Context) {
	course, err := h.store.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err, "get course failed")
		return
	}
	response.OK(c, course)
}

// Update handles PATCH /courses/:code.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			response.BadRequest(c, "title cannot be empty")
			return
		}
		req.Title = &t
	}
	course, err := h.store.Update(c.Request.Context(), c.Param("code"), req.Title, req.Description)
	if err != nil {
		h.writeError(c, err, "update course failed")
		return
	}
	response.OK(c, course)
}

// Delete handles DELETE /courses/:code. Stored artifacts are left in place.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("code")); err != nil {
		h.writeError(c, err, "delete course failed")
		return
	}
	response.NoContent(c)
}

func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	if errors.Is(err, models.ErrNotFound) {
		response.NotFound(c, "course not found")
		return
	}
	h.logger.Error(msg, zap.Error(err), zap.String("course_code", c.Param("code")))
	response.Internal(c, "internal error")
}
