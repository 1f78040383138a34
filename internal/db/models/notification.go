package models

import "time"

// Channel types
const (
	ChannelSlack   = "slack"
	ChannelWebhook = "webhook"
)

// NotificationChannel is a destination for build notifications
type NotificationChannel struct {
	ID         uint                  `gorm:"primaryKey" json:"id"`
	Name       string                `gorm:"uniqueIndex;not null" json:"name"`
	Type       string                `gorm:"not null" json:"type"`
	WebhookURL string                `gorm:"not null" json:"webhook_url"`
	Condition  NotificationCondition `gorm:"type:varchar(10);default:'all'" json:"condition"`
	Enabled    bool                  `gorm:"default:true" json:"enabled"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// NotificationCondition represents when to send notifications
type NotificationCondition string

const (
	NotificationAll    NotificationCondition = "all"    // Send on success and failure
	NotificationFailed NotificationCondition = "failed" // Send only on failure
)

// Wants reports whether the channel should hear about an event with the
// given outcome
func (c *NotificationChannel) Wants(failed bool) bool {
	if !c.Enabled {
		return false
	}
	if c.Condition == NotificationFailed {
		return failed
	}
	return true
}
