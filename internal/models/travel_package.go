package models

import "time"

// TravelPackage represents a curated, bookable travel package
type TravelPackage struct {
	ID            string    `json:"id" db:"id"`
	Slug          string    `json:"slug" db:"slug"`
	Title         string    `json:"title" db:"title"`
	Destination   string    `json:"destination" db:"destination"`
	DurationLabel string    `json:"duration_label" db:"duration_label"` // e.g. "4-6 Days"
	Price         float64   `json:"price" db:"price"`                   // major currency unit per traveler
	Currency      string    `json:"currency" db:"currency"`
	Description   *string   `json:"description,omitempty" db:"description"`
	Highlights    JSONB     `json:"highlights,omitempty" db:"highlights"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
