package models

import (
	"time"
)

// TriggerStatus represents the outcome of a trigger attempt
type TriggerStatus string

const (
	TriggerSuccess TriggerStatus = "success"
	TriggerFailed  TriggerStatus = "failed"
)

// TriggerRecord is one build trigger attempt
type TriggerRecord struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	HookType     string        `gorm:"type:varchar(20);index" json:"hook_type"`
	Role         string        `gorm:"type:varchar(64)" json:"role"`
	Status       TriggerStatus `gorm:"type:varchar(20);index" json:"status"`
	WorkflowID   string        `gorm:"type:varchar(64)" json:"workflow_id,omitempty"`
	ErrorMessage string        `gorm:"type:text" json:"error_message,omitempty"`
	Duration     time.Duration `json:"duration"`
	CreatedAt    time.Time     `gorm:"index" json:"created_at"`
}

// TableName specifies the table name
func (TriggerRecord) TableName() string {
	return "trigger_records"
}

// Succeeded reports whether the trigger reached the provider and was accepted
func (r *TriggerRecord) Succeeded() bool {
	return r.Status == TriggerSuccess
}
