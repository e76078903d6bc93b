package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemKind names the stock pool an inventory operation targets.
type ItemKind string

const (
	KindRoom    ItemKind = "room"
	KindProduct ItemKind = "product"
)

// Room is a bookable room type. Stock counts the units that can still be reserved.
type Room struct {
	ID          int64           `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Type        string          `json:"type" yaml:"type"`
	Description string          `json:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Capacity    int             `json:"capacity" yaml:"capacity"`
	Available   bool            `json:"available" yaml:"available"`
	Stock       int             `json:"stock" yaml:"stock"`
	CreatedAt   time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time       `json:"updated_at" yaml:"-"`
}

// Bookable reports whether at least one unit of the room can be reserved.
func (r *Room) Bookable() bool {
	return r.Available && r.Stock > 0
}

type Product struct {
	ID          int64           `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	ImageURL    string          `json:"image_url" yaml:"image_url"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Stock       int             `json:"stock" yaml:"stock"`
	CreatedAt   time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time       `json:"updated_at" yaml:"-"`
}
