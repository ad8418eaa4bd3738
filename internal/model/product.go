package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item. The catalog is read-only at runtime;
// cmd/seed is the only writer.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:255;not null;index"`
	Slug        string          `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Category    string          `json:"category" gorm:"size:100;index"`
	ImageURL    string          `json:"image_url" gorm:"size:512"`
	InStock     bool            `json:"in_stock" gorm:"default:true"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
