package models

import "time"

// RoomType is a template shared by physical rooms: the maximum occupants and the monthly price.
type RoomType struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Capacity      int       `db:"capacity" json:"capacity"`
	PricePerMonth float64   `db:"price_per_month" json:"price_per_month"`
	Description   string    `db:"description" json:"description"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
