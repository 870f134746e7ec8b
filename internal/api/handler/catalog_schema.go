package handler

import (
	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1"`
	Description *string `json:"description" validate:"omitnil,min=1"`
}

func (r updateCategoryRequest) patch() ports.CategoryPatch {
	return ports.CategoryPatch{Name: r.Name, Description: r.Description}
}

type createSubcategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
}

type updateSubcategoryRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1"`
	Description *string `json:"description" validate:"omitnil,min=1"`
	Category    *string `json:"category" validate:"omitnil,min=1"`
}

func (r updateSubcategoryRequest) patch() ports.SubcategoryPatch {
	return ports.SubcategoryPatch{Name: r.Name, Description: r.Description, CategoryID: r.Category}
}

// Stock and price are pointers so an explicit zero passes "required".
type createProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"required"`
	SubCategory string   `json:"subCategory" validate:"required"`
}

type updateProductRequest struct {
	Name        *string  `json:"name" validate:"omitnil,min=1"`
	Description *string  `json:"description" validate:"omitnil,min=1"`
	Stock       *int     `json:"stock" validate:"omitnil,gte=0"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	Category    *string  `json:"category" validate:"omitnil,min=1"`
	SubCategory *string  `json:"subCategory" validate:"omitnil,min=1"`
}

func (r updateProductRequest) patch() ports.ProductPatch {
	return ports.ProductPatch{
		Name:          r.Name,
		Description:   r.Description,
		Stock:         r.Stock,
		Price:         r.Price,
		CategoryID:    r.Category,
		SubcategoryID: r.SubCategory,
	}
}

// deleteResponse is returned by every DELETE route.
type deleteResponse struct {
	Message string `json:"message"`
	domain.CascadeResult
}

func newDeleteResponse(res *domain.CascadeResult) deleteResponse {
	msg := string(res.Entity) + " deactivated"
	if res.Mode == domain.ModeHard {
		msg = string(res.Entity) + " deleted"
	}
	return deleteResponse{Message: msg, CascadeResult: *res}
}
