package domain

import "time"

// Category is the root of the catalog hierarchy.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subcategory belongs to exactly one Category.
type Subcategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Product belongs to one Category and one of that category's Subcategories.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Stock         int       `json:"stock"`
	Price         float64   `json:"price"`
	CategoryID    string    `json:"category"`
	SubcategoryID string    `json:"subCategory"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Ref is a resolved reference embedded in read models.
type Ref struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// SubcategoryView is a Subcategory with its parent category resolved.
type SubcategoryView struct {
	Subcategory
	Category Ref `json:"category"`
}

// ProductView is a Product with both parents resolved.
type ProductView struct {
	Product
	Category    Ref `json:"category"`
	Subcategory Ref `json:"subCategory"`
}
