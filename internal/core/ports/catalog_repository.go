package ports

import (
	"context"

	"github.com/inventario/catalog-api/internal/core/domain"
)

// ListFilter carries the query parameters shared by the catalog lists.
// Empty reference ids mean "no filter".
type ListFilter struct {
	IncludeInactive bool   // false restricts to active != false
	CategoryID      string // subcategories and products
	SubcategoryID   string // products only
}

// ParentRefs selects products by parent. A product matches when its category
// is in CategoryIDs or its subcategory is in SubcategoryIDs.
type ParentRefs struct {
	CategoryIDs    []string
	SubcategoryIDs []string
}

// Empty reports whether no parent is selected.
func (p ParentRefs) Empty() bool {
	return len(p.CategoryIDs) == 0 && len(p.SubcategoryIDs) == 0
}

// CategoryPatch holds the sparse field set of a category update.
type CategoryPatch struct {
	Name        *string
	Description *string
}

// SubcategoryPatch holds the sparse field set of a subcategory update.
type SubcategoryPatch struct {
	Name        *string
	Description *string
	CategoryID  *string
}

// ProductPatch holds the sparse field set of a product update.
type ProductPatch struct {
	Name          *string
	Description   *string
	Stock         *int
	Price         *float64
	CategoryID    *string
	SubcategoryID *string
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Category, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Category, error)
	// ExistsByName matches case-insensitively and ignores excludeID.
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Update(ctx context.Context, id string, patch CategoryPatch) (*domain.Category, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// SubcategoryRepository persists subcategories.
type SubcategoryRepository interface {
	Create(ctx context.Context, s *domain.Subcategory) (*domain.Subcategory, error)
	FindByID(ctx context.Context, id string) (*domain.Subcategory, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Subcategory, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Subcategory, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Update(ctx context.Context, id string, patch SubcategoryPatch) (*domain.Subcategory, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error

	// IDsByCategory returns the ids of every subcategory under categoryID,
	// active or not.
	IDsByCategory(ctx context.Context, categoryID string) ([]string, error)
	// SetActiveByIDs returns the number of matched documents.
	SetActiveByIDs(ctx context.Context, ids []string, active bool) (int64, error)
	// DeleteByIDs returns the number of removed documents.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// ProductRepository persists products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Product, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Update(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error

	SetActiveByParents(ctx context.Context, refs ParentRefs, active bool) (int64, error)
	DeleteByParents(ctx context.Context, refs ParentRefs) (int64, error)
	// SetCategoryBySubcategory points every product under subcategoryID at
	// categoryID and returns the number of matched documents.
	SetCategoryBySubcategory(ctx context.Context, subcategoryID, categoryID string) (int64, error)
}
