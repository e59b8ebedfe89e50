package services

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/larsjuhl/kantine-kiosk/models"
)

// OrderJournal is the station's local record of submitted orders, kept in an
// embedded sqlite file for end-of-day reconciliation against the backend.
// The backend remains the system of record; the journal only answers "what
// did this terminal send and how did it end".
type OrderJournal struct {
	db *gorm.DB
}

// OpenJournal opens (or creates) the journal database at path.
func OpenJournal(path string) (*OrderJournal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := db.AutoMigrate(&models.OrderRecord{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &OrderJournal{db: db}, nil
}

// NewOrderJournal wraps an existing gorm connection, used by tests with an
// in-memory database.
func NewOrderJournal(db *gorm.DB) *OrderJournal {
	return &OrderJournal{db: db}
}

// Record appends a freshly submitted order.
func (j *OrderJournal) Record(rec *models.OrderRecord) error {
	if err := j.db.Create(rec).Error; err != nil {
		return fmt.Errorf("journal order %s: %w", rec.OrderID, err)
	}
	return nil
}

// Settle stamps the terminal status onto the journal row for an order. An
// order that was never recorded is an error; a silent no-op here would leave
// the settlement lost without a trace.
func (j *OrderJournal) Settle(orderID string, status models.OrderStatus) error {
	now := time.Now()
	result := j.db.Model(&models.OrderRecord{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     string(status),
			"settled_at": &now,
		})
	if result.Error != nil {
		return fmt.Errorf("settle order %s: %w", orderID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("settle order %s: no journal row", orderID)
	}
	return nil
}

// Recent returns the newest journal rows, most recent first.
func (j *OrderJournal) Recent(limit int) ([]models.OrderRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.OrderRecord
	if err := j.db.Order("submitted_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return records, nil
}
