package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"build-hooks/internal/db/models"
	"build-hooks/internal/db/store"
	"build-hooks/pkg/notification"
)

// ChannelRequest is the body of channel create and update requests. Enabled
// defaults to true on create and keeps the stored value on update.
type ChannelRequest struct {
	Name       string                       `json:"name" binding:"required"`
	Type       string                       `json:"type" binding:"required,oneof=slack webhook"`
	WebhookURL string                       `json:"webhook_url" binding:"required,url"`
	Condition  models.NotificationCondition `json:"condition" binding:"omitempty,oneof=all failed"`
	Enabled    *bool                        `json:"enabled"`
}

func (r ChannelRequest) apply(channel *models.NotificationChannel) {
	channel.Name = r.Name
	channel.Type = r.Type
	channel.WebhookURL = r.WebhookURL
	channel.Condition = r.Condition
	if channel.Condition == "" {
		channel.Condition = models.NotificationAll
	}
	if r.Enabled != nil {
		channel.Enabled = *r.Enabled
	}
}

// NotificationHandler manages the channels that hear about triggers and
// workflow status changes
type NotificationHandler struct {
	store *store.Store
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(store *store.Store) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// CreateNotificationChannel creates a new notification channel
// POST /api/v1/notifications
func (h *NotificationHandler) CreateNotificationChannel(c *gin.Context) {
	var req ChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel := models.NotificationChannel{Enabled: true}
	req.apply(&channel)

	if err := h.store.CreateNotificationChannel(&channel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// gorm inserts the column default for a false Enabled
	if !channel.Enabled {
		if err := h.store.UpdateNotificationChannel(&channel); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, channel)
}

// GetNotificationChannel gets a notification channel by ID
// GET /api/v1/notifications/:id
func (h *NotificationHandler) GetNotificationChannel(c *gin.Context) {
	channel, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, channel)
}

// ListNotificationChannels lists all notification channels
// GET /api/v1/notifications
func (h *NotificationHandler) ListNotificationChannels(c *gin.Context) {
	channels, err := h.store.ListNotificationChannels()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, channels)
}

// UpdateNotificationChannel replaces the settings of a notification channel
// PUT /api/v1/notifications/:id
func (h *NotificationHandler) UpdateNotificationChannel(c *gin.Context) {
	channel, ok := h.lookup(c)
	if !ok {
		return
	}

	var req ChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.apply(channel)

	if err := h.store.UpdateNotificationChannel(channel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, channel)
}

// DeleteNotificationChannel deletes a notification channel
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotificationChannel(c *gin.Context) {
	channel, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := h.store.DeleteNotificationChannel(channel.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// TestNotificationChannel sends a test message to the channel
// POST /api/v1/notifications/:id/test
func (h *NotificationHandler) TestNotificationChannel(c *gin.Context) {
	channel, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := notification.NewNotifier(channel).SendTestMessage(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "test notification sent"})
}

// lookup loads the channel named by the id path parameter. It writes the
// error response itself and reports whether the handler may continue.
func (h *NotificationHandler) lookup(c *gin.Context) (*models.NotificationChannel, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel ID"})
		return nil, false
	}

	channel, err := h.store.GetNotificationChannel(uint(id))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "notification channel not found"})
		return nil, false
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return channel, true
}
