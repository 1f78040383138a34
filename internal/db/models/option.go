package models

import (
	"time"
)

// Option is a named configuration value
type Option struct {
	Name      string    `gorm:"primaryKey;type:varchar(191)" json:"name"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Option) TableName() string {
	return "options"
}
