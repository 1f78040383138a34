package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"build-hooks/internal/api/middleware"
	"build-hooks/internal/buildhook"
)

// Form actions accepted by the status page
const ActionTriggerBuild = "trigger_build"

// PageHandler renders the admin pages
type PageHandler struct {
	svc *buildhook.Service
}

// NewPageHandler creates a new page handler
func NewPageHandler(svc *buildhook.Service) *PageHandler {
	return &PageHandler{svc: svc}
}

// StatusPage renders the build hook status page
// GET /build-hooks
func (h *PageHandler) StatusPage(c *gin.Context) {
	h.renderStatus(c, http.StatusOK, "", "")
}

// StatusAction handles the trigger form of the status page
// POST /build-hooks
func (h *PageHandler) StatusAction(c *gin.Context) {
	if action := c.PostForm("action"); action != ActionTriggerBuild {
		h.renderStatus(c, http.StatusBadRequest, "", fmt.Sprintf("unknown action %q", action))
		return
	}

	result, err := h.svc.Trigger(c.Request.Context(), middleware.CurrentRole(c))
	if err != nil {
		h.renderStatus(c, statusFor(err), "", err.Error())
		return
	}

	notice := fmt.Sprintf("%s build triggered.", result.Type.Label())
	if result.WorkflowID != "" {
		notice = fmt.Sprintf("%s build triggered, workflow %s.", result.Type.Label(), result.WorkflowID)
	}
	h.renderStatus(c, http.StatusOK, notice, "")
}

func (h *PageHandler) renderStatus(c *gin.Context, code int, notice, errMsg string) {
	view, err := h.svc.Status(c.Request.Context())
	if err != nil {
		slog.Error("failed to build status view", "err", err)
		c.String(http.StatusInternalServerError, "failed to load build hook status")
		return
	}

	canManage, err := h.svc.CanManageSettings(middleware.CurrentRole(c))
	if err != nil {
		slog.Error("failed to load roles", "err", err)
	}

	c.HTML(code, "status.html", gin.H{
		"Title":             "Build Hooks",
		"View":              view,
		"CanManageSettings": canManage,
		"Notice":            notice,
		"Error":             errMsg,
	})
}

// SettingsPage renders the settings page
// GET /build-hooks/settings
func (h *PageHandler) SettingsPage(c *gin.Context) {
	h.renderSettings(c, http.StatusOK, "", "")
}

// SaveSettings handles the settings form
// POST /build-hooks/settings
func (h *PageHandler) SaveSettings(c *gin.Context) {
	var form buildhook.SettingsForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderSettings(c, http.StatusBadRequest, "", err.Error())
		return
	}

	if err := h.svc.SaveSettings(form); err != nil {
		h.renderSettings(c, http.StatusBadRequest, "", err.Error())
		return
	}

	h.renderSettings(c, http.StatusOK, "Settings saved.", "")
}

func (h *PageHandler) renderSettings(c *gin.Context, code int, notice, errMsg string) {
	view, err := h.svc.Settings()
	if err != nil {
		slog.Error("failed to build settings view", "err", err)
		c.String(http.StatusInternalServerError, "failed to load build hook settings")
		return
	}

	c.HTML(code, "settings.html", gin.H{
		"Title":             "Settings",
		"View":              view,
		"CanManageSettings": true,
		"Notice":            notice,
		"Error":             errMsg,
	})
}
