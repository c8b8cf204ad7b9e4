package entity

import "time"

// Site representa una sede física (bodega, tienda, centro de distribución) identificada por un código único.
type Site struct {
	ID        string
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location es una ubicación dentro de una sede (pasillo, estante, zona). El código es único por sede.
type Location struct {
	ID        string
	SiteID    string
	Code      string
	Name      string
	CreatedAt time.Time
}
