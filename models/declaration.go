package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

type Declaration struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CustomerID  string     `gorm:"type:varchar(36);index;not null" json:"customer_id"`
	Type        string     `gorm:"type:varchar(50);not null" json:"type"`
	Month       int        `gorm:"not null" json:"month"`
	Year        int        `gorm:"not null" json:"year"`
	Status      string     `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	Note        string     `gorm:"type:varchar(500);not null;default:''" json:"note"`
	// LedgerType, müşterinin defter türünün oluşturma anındaki kopyası.
	// Sunucu taraflı filtreleme join'siz bu alan üzerinden yapılır;
	// müşteri sonradan değişirse senkronize edilmez.
	LedgerType string    `gorm:"type:varchar(30);not null" json:"ledger_type"`
	CreatedAt  time.Time `gorm:"index;not null" json:"created_at"`

	// Liste cevaplarında doldurulur, store'da tutulmaz.
	CustomerName string `gorm:"-" json:"customer_name,omitempty"`
}

// BeforeCreate -> store tarafında atanan opak kimlik
func (d *Declaration) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
