package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"build-hooks/internal/db/store"
)

// TriggerHandler serves the trigger history
type TriggerHandler struct {
	store *store.Store
}

// NewTriggerHandler creates a new trigger history handler
func NewTriggerHandler(store *store.Store) *TriggerHandler {
	return &TriggerHandler{store: store}
}

// GetTrigger gets a trigger record by ID
// GET /api/v1/triggers/:id
func (h *TriggerHandler) GetTrigger(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trigger ID"})
		return
	}

	rec, err := h.store.GetTriggerRecord(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trigger not found"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ListTriggers lists the most recent trigger records
// GET /api/v1/triggers
func (h *TriggerHandler) ListTriggers(c *gin.Context) {
	// Parse optional limit parameter
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	recs, err := h.store.ListTriggerRecords(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, recs)
}

// GetStats gets trigger statistics
// GET /api/v1/stats
func (h *TriggerHandler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
