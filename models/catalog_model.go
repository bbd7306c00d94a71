package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Catalog price sources. Content authoring lives elsewhere; this service
// only reads them to price booking items authoritatively.

type Tour struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Slug          string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	PricePerAdult int64     `gorm:"not null" json:"price_per_adult"`
	PricePerChild int64     `gorm:"not null" json:"price_per_child"`
	Currency      string    `gorm:"size:3;not null;default:'KES'" json:"currency"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tour) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TransferRoute struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Origin          string    `gorm:"size:255;not null" json:"origin"`
	Destination     string    `gorm:"size:255;not null" json:"destination"`
	VehicleClass    string    `gorm:"size:50;not null" json:"vehicle_class"`
	PricePerVehicle int64     `gorm:"not null" json:"price_per_vehicle"`
	MaxPassengers   int       `gorm:"not null;default:4" json:"max_passengers"`
	MaxLuggage      int       `gorm:"not null;default:4" json:"max_luggage"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *TransferRoute) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type TourPackage struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Slug           string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Days           int       `gorm:"not null;default:1" json:"days"`
	PricePerPerson int64     `gorm:"not null" json:"price_per_person"`
	Currency       string    `gorm:"size:3;not null;default:'KES'" json:"currency"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *TourPackage) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
