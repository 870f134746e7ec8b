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

const lockReleaseTimeout = 5 * time.Second

type SubcategoryService struct {
	repo       ports.SubcategoryRepository
	categories ports.CategoryRepository
	products   ports.ProductRepository
	locker     CascadeLocker
	logger     zerolog.Logger
}

// NewSubcategoryService returns the subcategory use cases. locker may be nil.
func NewSubcategoryService(
	repo ports.SubcategoryRepository,
	categories ports.CategoryRepository,
	products ports.ProductRepository,
	locker CascadeLocker,
	logger zerolog.Logger,
) *SubcategoryService {
	return &SubcategoryService{
		repo:       repo,
		categories: categories,
		products:   products,
		locker:     locker,
		logger:     logger,
	}
}

func (s *SubcategoryService) Create(ctx context.Context, in ports.CreateSubcategoryInput) (*domain.Subcategory, error) {
	name, err := domain.RequireText("name", in.Name)
	if err != nil {
		return nil, err
	}
	description, err := domain.RequireText("description", in.Description)
	if err != nil {
		return nil, err
	}
	categoryID, err := domain.RequireText("category", in.CategoryID)
	if err != nil {
		return nil, err
	}

	if err := s.requireActiveCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, name, "")
	if err != nil {
		return nil, fmt.Errorf("create subcategory: %w", err)
	}
	if exists {
		return nil, domain.ErrSubcategoryExists
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Subcategory{
		Name:        name,
		Description: description,
		CategoryID:  categoryID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	metrics.EntitiesCreatedTotal.WithLabelValues(string(domain.EntitySubcategory)).Inc()
	s.logger.Info().
		Str("subcategory_id", created.ID).
		Str("category_id", categoryID).
		Msg("subcategory created")
	return created, nil
}

func (s *SubcategoryService) Get(ctx context.Context, id string) (*domain.SubcategoryView, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.resolve(ctx, []*domain.Subcategory{sub})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *SubcategoryService) List(ctx context.Context, filter ports.ListFilter) ([]*domain.SubcategoryView, error) {
	subs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, subs)
}

// Update merges only the supplied fields. Moving the subcategory to another
// category moves its products with it, under the hierarchy lock of both
// categories.
func (s *SubcategoryService) Update(ctx context.Context, id string, patch ports.SubcategoryPatch) (*domain.Subcategory, error) {
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

	var from string
	if patch.CategoryID != nil {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.CategoryID != *patch.CategoryID {
			if err := s.requireActiveCategory(ctx, *patch.CategoryID); err != nil {
				return nil, err
			}
			from = current.CategoryID
		}
	}
	if patch.Name != nil {
		exists, err := s.repo.ExistsByName(ctx, *patch.Name, id)
		if err != nil {
			return nil, fmt.Errorf("update subcategory: %w", err)
		}
		if exists {
			return nil, domain.ErrSubcategoryExists
		}
	}

	if from == "" {
		updated, err := s.repo.Update(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		s.logger.Info().Str("subcategory_id", id).Msg("subcategory updated")
		return updated, nil
	}
	return s.move(ctx, id, from, patch)
}

// move rewrites the subcategory and then its products. If the products
// cannot follow, the subcategory is pointed back at its old category.
func (s *SubcategoryService) move(ctx context.Context, id, from string, patch ports.SubcategoryPatch) (*domain.Subcategory, error) {
	to := *patch.CategoryID

	release, err := lockCategories(ctx, s.locker, lockReleaseTimeout, s.logger, from, to)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	moved, err := s.products.SetCategoryBySubcategory(ctx, id, to)
	if err != nil {
		if _, rerr := s.repo.Update(context.WithoutCancel(ctx), id, ports.SubcategoryPatch{CategoryID: &from}); rerr != nil {
			s.logger.Error().
				Err(rerr).
				Str("subcategory_id", id).
				Str("category_id", from).
				Msg("failed to restore subcategory category")
		}
		return nil, fmt.Errorf("move subcategory %s products: %w", id, err)
	}

	s.logger.Info().
		Str("subcategory_id", id).
		Str("from_category_id", from).
		Str("to_category_id", to).
		Int64("products_moved", moved).
		Msg("subcategory moved")
	return updated, nil
}

func (s *SubcategoryService) requireActiveCategory(ctx context.Context, categoryID string) error {
	parent, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if !parent.Active {
		return domain.NewValidationError("category", "parent category is inactive")
	}
	return nil
}

// resolve joins each subcategory with its parent category. A dangling
// reference fails the whole read with ErrCategoryNotFound.
func (s *SubcategoryService) resolve(ctx context.Context, subs []*domain.Subcategory) ([]*domain.SubcategoryView, error) {
	byID, err := categoryRefs(ctx, s.categories, subs)
	if err != nil {
		return nil, err
	}

	views := make([]*domain.SubcategoryView, 0, len(subs))
	for _, sub := range subs {
		ref, ok := byID[sub.CategoryID]
		if !ok {
			return nil, fmt.Errorf("subcategory %s: %w", sub.ID, domain.ErrCategoryNotFound)
		}
		views = append(views, &domain.SubcategoryView{Subcategory: *sub, Category: ref})
	}
	return views, nil
}

func categoryRefs(ctx context.Context, repo ports.CategoryRepository, subs []*domain.Subcategory) (map[string]domain.Ref, error) {
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.CategoryID)
	}
	categories, err := repo.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	refs := make(map[string]domain.Ref, len(categories))
	for _, c := range categories {
		refs[c.ID] = domain.Ref{ID: c.ID, Name: c.Name, Active: c.Active}
	}
	return refs, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
