package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/inventario/catalog-api/internal/api/metrics"
	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

type ProductService struct {
	repo          ports.ProductRepository
	categories    ports.CategoryRepository
	subcategories ports.SubcategoryRepository
	logger        zerolog.Logger
}

func NewProductService(
	repo ports.ProductRepository,
	categories ports.CategoryRepository,
	subcategories ports.SubcategoryRepository,
	logger zerolog.Logger,
) *ProductService {
	return &ProductService{
		repo:          repo,
		categories:    categories,
		subcategories: subcategories,
		logger:        logger,
	}
}

func (s *ProductService) Create(ctx context.Context, in ports.CreateProductInput) (*domain.Product, error) {
	name, err := domain.RequireText("name", in.Name)
	if err != nil {
		return nil, err
	}
	description, err := domain.RequireText("description", in.Description)
	if err != nil {
		return nil, err
	}
	if err := domain.RequireNonNegative("stock", in.Stock); err != nil {
		return nil, err
	}
	if err := domain.RequireNonNegative("price", in.Price); err != nil {
		return nil, err
	}
	categoryID, err := domain.RequireText("category", in.CategoryID)
	if err != nil {
		return nil, err
	}
	subcategoryID, err := domain.RequireText("subCategory", in.SubcategoryID)
	if err != nil {
		return nil, err
	}

	if err := s.requireParents(ctx, categoryID, subcategoryID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, name, "")
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if exists {
		return nil, domain.ErrProductExists
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Product{
		Name:          name,
		Description:   description,
		Stock:         in.Stock,
		Price:         in.Price,
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	metrics.EntitiesCreatedTotal.WithLabelValues(string(domain.EntityProduct)).Inc()
	s.logger.Info().
		Str("product_id", created.ID).
		Str("subcategory_id", subcategoryID).
		Msg("product created")
	return created, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.ProductView, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.resolve(ctx, []*domain.Product{p})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *ProductService) List(ctx context.Context, filter ports.ListFilter) ([]*domain.ProductView, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, products)
}

// Update merges only the supplied fields. When either parent reference
// changes, the resulting pair is checked against the stored product.
func (s *ProductService) Update(ctx context.Context, id string, patch ports.ProductPatch) (*domain.Product, error) {
	var err error
	if patch.Name, err = domain.OptionalText("name", patch.Name); err != nil {
		return nil, err
	}
	if patch.Description, err = domain.OptionalText("description", patch.Description); err != nil {
		return nil, err
	}
	if patch.CategoryID, err = domain.OptionalText("category", patch.CategoryID); err != nil {
		return nil, err
	}
	if patch.SubcategoryID, err = domain.OptionalText("subCategory", patch.SubcategoryID); err != nil {
		return nil, err
	}
	if patch.Stock != nil {
		if err := domain.RequireNonNegative("stock", *patch.Stock); err != nil {
			return nil, err
		}
	}
	if patch.Price != nil {
		if err := domain.RequireNonNegative("price", *patch.Price); err != nil {
			return nil, err
		}
	}

	if patch.CategoryID != nil || patch.SubcategoryID != nil {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		categoryID, subcategoryID := current.CategoryID, current.SubcategoryID
		if patch.CategoryID != nil {
			categoryID = *patch.CategoryID
		}
		if patch.SubcategoryID != nil {
			subcategoryID = *patch.SubcategoryID
		}
		if err := s.requireParents(ctx, categoryID, subcategoryID); err != nil {
			return nil, err
		}
	}

	if patch.Name != nil {
		exists, err := s.repo.ExistsByName(ctx, *patch.Name, id)
		if err != nil {
			return nil, fmt.Errorf("update product: %w", err)
		}
		if exists {
			return nil, domain.ErrProductExists
		}
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("product_id", id).Msg("product updated")
	return updated, nil
}

// requireParents checks that both references resolve, are active, and that
// the subcategory belongs to the category.
func (s *ProductService) requireParents(ctx context.Context, categoryID, subcategoryID string) error {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if !category.Active {
		return domain.NewValidationError("category", "parent category is inactive")
	}
	sub, err := s.subcategories.FindByID(ctx, subcategoryID)
	if err != nil {
		return err
	}
	if !sub.Active {
		return domain.NewValidationError("subCategory", "parent subcategory is inactive")
	}
	if sub.CategoryID != categoryID {
		return domain.NewValidationError("subCategory", "subcategory does not belong to the given category")
	}
	return nil
}

func (s *ProductService) resolve(ctx context.Context, products []*domain.Product) ([]*domain.ProductView, error) {
	subIDs := make([]string, 0, len(products))
	catIDs := make([]string, 0, len(products))
	for _, p := range products {
		subIDs = append(subIDs, p.SubcategoryID)
		catIDs = append(catIDs, p.CategoryID)
	}

	subs, err := s.subcategories.FindByIDs(ctx, uniqueIDs(subIDs))
	if err != nil {
		return nil, err
	}
	cats, err := s.categories.FindByIDs(ctx, uniqueIDs(catIDs))
	if err != nil {
		return nil, err
	}

	subRefs := make(map[string]domain.Ref, len(subs))
	for _, sub := range subs {
		subRefs[sub.ID] = domain.Ref{ID: sub.ID, Name: sub.Name, Active: sub.Active}
	}
	catRefs := make(map[string]domain.Ref, len(cats))
	for _, c := range cats {
		catRefs[c.ID] = domain.Ref{ID: c.ID, Name: c.Name, Active: c.Active}
	}

	views := make([]*domain.ProductView, 0, len(products))
	for _, p := range products {
		cat, ok := catRefs[p.CategoryID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", p.ID, domain.ErrCategoryNotFound)
		}
		sub, ok := subRefs[p.SubcategoryID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", p.ID, domain.ErrSubcategoryNotFound)
		}
		views = append(views, &domain.ProductView{Product: *p, Category: cat, Subcategory: sub})
	}
	return views, nil
}
