package models

import "time"

// Product is the model for the 'products' table.
// Ownership is transitive: a product belongs to whoever owns its brand.
type Product struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	Description   string  `json:"description" db:"description"`
	Price         float64 `json:"price" db:"price"`
	ImageURL      *string `json:"imageUrl,omitempty" db:"image_url"`
	AffiliateLink *string `json:"affiliateLink,omitempty" db:"affiliate_link"`
	BrandID       int64   `json:"brandId" db:"brand_id"`
	Status        string  `json:"status" db:"status"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joins (populated manually, not DB columns)
	Brand *Brand `json:"brand,omitempty" db:"-"`
}
