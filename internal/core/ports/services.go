package ports

import (
	"context"

	"github.com/inventario/catalog-api/internal/core/domain"
)

// CreateCategoryInput is the DTO passed from the transport layer.
type CreateCategoryInput struct {
	Name        string
	Description string
}

// CreateSubcategoryInput is the DTO passed from the transport layer.
type CreateSubcategoryInput struct {
	Name        string
	Description string
	CategoryID  string
}

// CreateProductInput is the DTO passed from the transport layer.
type CreateProductInput struct {
	Name          string
	Description   string
	Stock         int
	Price         float64
	CategoryID    string
	SubcategoryID string
}

// CategoryService defines category use cases.
type CategoryService interface {
	Create(ctx context.Context, in CreateCategoryInput) (*domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Category, error)
	Update(ctx context.Context, id string, patch CategoryPatch) (*domain.Category, error)
}

// SubcategoryService defines subcategory use cases. Reads resolve the parent
// category explicitly.
type SubcategoryService interface {
	Create(ctx context.Context, in CreateSubcategoryInput) (*domain.Subcategory, error)
	Get(ctx context.Context, id string) (*domain.SubcategoryView, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.SubcategoryView, error)
	Update(ctx context.Context, id string, patch SubcategoryPatch) (*domain.Subcategory, error)
}

// ProductService defines product use cases.
type ProductService interface {
	Create(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.ProductView, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.ProductView, error)
	Update(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error)
}

// RemoveInput identifies the target of a cascade.
type RemoveInput struct {
	Entity domain.EntityType
	ID     string
	Mode   domain.DeleteMode
	Actor  string // username of the caller, recorded in the audit trail
}

// CascadeCoordinator removes or deactivates an entity and its descendants.
type CascadeCoordinator interface {
	Remove(ctx context.Context, in RemoveInput) (*domain.CascadeResult, error)
}

// RegisterInput carries a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string // empty means auxiliar
}

// TokenPair is returned on login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService defines account and token use cases.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
