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

// CategoryService implements category create/read/update. Removal lives in
// the cascade coordinator.
type CategoryService struct {
	repo   ports.CategoryRepository
	logger zerolog.Logger
}

func NewCategoryService(repo ports.CategoryRepository, logger zerolog.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger}
}

func (s *CategoryService) Create(ctx context.Context, in ports.CreateCategoryInput) (*domain.Category, error) {
	name, err := domain.RequireText("name", in.Name)
	if err != nil {
		return nil, err
	}
	description, err := domain.RequireText("description", in.Description)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, name, "")
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	if exists {
		return nil, domain.ErrCategoryExists
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Category{
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	metrics.EntitiesCreatedTotal.WithLabelValues(string(domain.EntityCategory)).Inc()
	s.logger.Info().Str("category_id", created.ID).Str("name", created.Name).Msg("category created")
	return created, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CategoryService) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Category, error) {
	return s.repo.List(ctx, filter)
}

// Update merges only the supplied fields. A name that collides with another
// category is rejected before any write.
func (s *CategoryService) Update(ctx context.Context, id string, patch ports.CategoryPatch) (*domain.Category, error) {
	var err error
	if patch.Name, err = domain.OptionalText("name", patch.Name); err != nil {
		return nil, err
	}
	if patch.Description, err = domain.OptionalText("description", patch.Description); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		exists, err := s.repo.ExistsByName(ctx, *patch.Name, id)
		if err != nil {
			return nil, fmt.Errorf("update category: %w", err)
		}
		if exists {
			return nil, domain.ErrCategoryExists
		}
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("category_id", id).Msg("category updated")
	return updated, nil
}
