package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Defter türleri
const (
	LedgerIsletme   = "İşletme"
	LedgerBilanco   = "Bilanço"
	LedgerBasitUsul = "Basit Usul"
)

type Customer struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	TaxNo      string    `gorm:"type:varchar(20);not null" json:"tax_no"`
	LedgerType string    `gorm:"type:varchar(30);not null" json:"ledger_type"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate -> store tarafında atanan opak kimlik
func (cu *Customer) BeforeCreate(tx *gorm.DB) error {
	if cu.ID == "" {
		cu.ID = uuid.NewString()
	}
	return nil
}
