package models

import "time"

const DefaultCategory = "General"

type Product struct {
	ID          int       `json:"id"`
	VendorID    int       `json:"vendor_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       int     `json:"stock" binding:"gte=0"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

// UpdateProductRequest is a partial update. Empty strings and a zero price keep
// the stored value; Stock is a pointer so that zero can be set explicitly.
type UpdateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"omitempty,gt=0"`
	Stock       *int    `json:"stock" binding:"omitempty,gte=0"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

// Apply copies the set fields of req onto p.
func (req UpdateProductRequest) Apply(p *Product) {
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.Price > 0 {
		p.Price = req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Category != "" {
		p.Category = req.Category
	}
	if req.Image != "" {
		p.Image = req.Image
	}
}
