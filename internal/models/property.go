package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Property is a listed property, owned by the agent/seller who listed it
type Property struct {
	gorm.Model
	PropertyID string  `json:"property_id" gorm:"uniqueIndex"`
	OwnerID    string  `json:"owner_id" gorm:"index;not null"` // listing agent's UserID
	Title      string  `json:"title" gorm:"not null"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Price      float64 `json:"price"`
	Bedrooms   int     `json:"bedrooms"`
	AreaSqft   float64 `json:"area_sqft"`
	Status     string  `json:"status" gorm:"default:listed"` // "listed", "under_offer", "sold", "delisted"
}

// Property status constants
const (
	PropertyStatusListed     = "listed"
	PropertyStatusUnderOffer = "under_offer"
	PropertyStatusSold       = "sold"
	PropertyStatusDelisted   = "delisted"
)

// BeforeCreate generates PropertyID
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.PropertyID == "" {
		var count int64
		tx.Model(&Property{}).Count(&count)
		p.PropertyID = fmt.Sprintf("PROP%05d", count+1)
	}
	return nil
}

// PropertySummary is the directory projection handed to the deal view.
type PropertySummary struct {
	PropertyID string  `json:"property_id"`
	OwnerID    string  `json:"owner_id"`
	Title      string  `json:"title"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	Price      float64 `json:"price"`
}

// Summary projects the directory fields.
func (p *Property) Summary() PropertySummary {
	return PropertySummary{
		PropertyID: p.PropertyID,
		OwnerID:    p.OwnerID,
		Title:      p.Title,
		Address:    p.Address,
		City:       p.City,
		Price:      p.Price,
	}
}
