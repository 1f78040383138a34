package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"build-hooks/internal/db/models"
)

// Store represents the database store
type Store struct {
	db *gorm.DB
}

// NewStore opens (and migrates) the sqlite database at dbPath
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto migrate schemas
	if err := db.AutoMigrate(
		&models.Option{},
		&models.TriggerRecord{},
		&models.NotificationChannel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Option operations

// GetOption implements settings.Store
func (s *Store) GetOption(key string) (string, bool, error) {
	var opt models.Option
	err := s.db.Where("name = ?", key).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return opt.Value, true, nil
}

// UpdateOption implements settings.Store; it inserts or overwrites
func (s *Store) UpdateOption(key, value string) error {
	opt := models.Option{Name: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&opt).Error
}

// TriggerRecord operations
func (s *Store) CreateTriggerRecord(rec *models.TriggerRecord) error {
	return s.db.Create(rec).Error
}

func (s *Store) GetTriggerRecord(id uint) (*models.TriggerRecord, error) {
	var rec models.TriggerRecord
	if err := s.db.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListTriggerRecords(limit int) ([]models.TriggerRecord, error) {
	var recs []models.TriggerRecord
	query := s.db.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// Statistics
func (s *Store) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalTriggers int64
	if err := s.db.Model(&models.TriggerRecord{}).Count(&totalTriggers).Error; err != nil {
		return nil, err
	}
	stats["total_triggers"] = totalTriggers

	var successTriggers int64
	if err := s.db.Model(&models.TriggerRecord{}).Where("status = ?", models.TriggerSuccess).Count(&successTriggers).Error; err != nil {
		return nil, err
	}
	stats["success_triggers"] = successTriggers

	var failedTriggers int64
	if err := s.db.Model(&models.TriggerRecord{}).Where("status = ?", models.TriggerFailed).Count(&failedTriggers).Error; err != nil {
		return nil, err
	}
	stats["failed_triggers"] = failedTriggers

	var channels int64
	if err := s.db.Model(&models.NotificationChannel{}).Count(&channels).Error; err != nil {
		return nil, err
	}
	stats["notification_channels"] = channels

	return stats, nil
}

// NotificationChannel operations
func (s *Store) CreateNotificationChannel(channel *models.NotificationChannel) error {
	return s.db.Create(channel).Error
}

func (s *Store) GetNotificationChannel(id uint) (*models.NotificationChannel, error) {
	var channel models.NotificationChannel
	if err := s.db.First(&channel, id).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

func (s *Store) ListNotificationChannels() ([]models.NotificationChannel, error) {
	var channels []models.NotificationChannel
	if err := s.db.Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

func (s *Store) ListEnabledNotificationChannels() ([]models.NotificationChannel, error) {
	var channels []models.NotificationChannel
	if err := s.db.Where("enabled = ?", true).Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

func (s *Store) UpdateNotificationChannel(channel *models.NotificationChannel) error {
	return s.db.Save(channel).Error
}

// DeleteNotificationChannel removes the row so its name can be reused
func (s *Store) DeleteNotificationChannel(id uint) error {
	return s.db.Delete(&models.NotificationChannel{}, id).Error
}
