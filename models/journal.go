package models

import "time"

// OrderRecord is one row in the station's local order journal. The journal
// is an append-mostly sqlite file used for end-of-day reconciliation with
// the canteen backend; it is not the system of record for orders.
type OrderRecord struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	OrderID       string     `gorm:"index;not null" json:"order_id"`
	ContextID     string     `gorm:"not null" json:"context_id"`
	Mode          string     `gorm:"type:varchar(20);not null" json:"mode"`
	PaymentMethod string     `gorm:"type:varchar(20);not null" json:"payment_method"`
	TotalAmount   float64    `gorm:"not null;default:0" json:"total_amount"`
	Status        string     `gorm:"type:varchar(20);not null;default:'loading'" json:"status"`
	SubmittedAt   time.Time  `gorm:"not null" json:"submitted_at"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}
