package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"build-hooks/internal/api/middleware"
	"build-hooks/internal/buildhook"
	"build-hooks/pkg/filter"
	"build-hooks/pkg/hooks"
)

// BuildHookHandler serves the JSON build hook API
type BuildHookHandler struct {
	svc *buildhook.Service
}

// NewBuildHookHandler creates a new build hook handler
func NewBuildHookHandler(svc *buildhook.Service) *BuildHookHandler {
	return &BuildHookHandler{svc: svc}
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var httpErr *hooks.HTTPError
	var urlErr *url.Error
	switch {
	case buildhook.IsConfigurationError(err):
		return http.StatusConflict
	case errors.As(err, &httpErr), errors.As(err, &urlErr), errors.Is(err, hooks.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Status returns the status view
// GET /api/v1/status
func (h *BuildHookHandler) Status(c *gin.Context) {
	view, err := h.svc.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// Trigger triggers a build
// POST /api/v1/trigger
func (h *BuildHookHandler) Trigger(c *gin.Context) {
	result, err := h.svc.Trigger(c.Request.Context(), middleware.CurrentRole(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSettings returns the settings view
// GET /api/v1/settings
func (h *BuildHookHandler) GetSettings(c *gin.Context) {
	view, err := h.svc.Settings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateSettings saves the settings
// PUT /api/v1/settings
func (h *BuildHookHandler) UpdateSettings(c *gin.Context) {
	var form buildhook.SettingsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.SaveSettings(form); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	view, err := h.svc.Settings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListWorkflows lists the recent workflows, optionally filtered by status
// GET /api/v1/workflows?include=success,failed&exclude=running&latest=5
func (h *BuildHookHandler) ListWorkflows(c *gin.Context) {
	latest := 0
	if raw := c.Query("latest"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid latest value"})
			return
		}
		latest = n
	}

	f, err := filter.NewFilter(filter.ParseList(c.Query("include")), filter.ParseList(c.Query("exclude")), latest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.svc.RecentWorkflows(c.Request.Context(), f)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rows)
}
