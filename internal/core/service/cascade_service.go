package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/inventario/catalog-api/internal/api/metrics"
	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

const defaultStepTimeout = 10 * time.Second

// Cascade step names, reported in CascadeError and the audit trail.
const (
	stepDeactivateCategory      = "deactivate_category"
	stepDeactivateSubcategory   = "deactivate_subcategory"
	stepDeactivateSubcategories = "deactivate_subcategories"
	stepDeactivateProduct       = "deactivate_product"
	stepDeactivateProducts      = "deactivate_products"
	stepDeleteProducts          = "delete_products"
	stepDeleteProduct           = "delete_product"
	stepDeleteSubcategories     = "delete_subcategories"
	stepDeleteSubcategory       = "delete_subcategory"
	stepDeleteCategory          = "delete_category"
)

// CascadeService walks Category → Subcategory → Product applying one delete
// mode to the target and all of its descendants.
type CascadeService struct {
	categories    ports.CategoryRepository
	subcategories ports.SubcategoryRepository
	products      ports.ProductRepository
	locker        CascadeLocker
	audit         ports.AuditSink
	stepTimeout   time.Duration
	log           zerolog.Logger
}

// NewCascadeService returns a coordinator. locker and audit may be nil.
func NewCascadeService(
	categories ports.CategoryRepository,
	subcategories ports.SubcategoryRepository,
	products ports.ProductRepository,
	locker CascadeLocker,
	audit ports.AuditSink,
	stepTimeout time.Duration,
	log zerolog.Logger,
) *CascadeService {
	if stepTimeout <= 0 {
		stepTimeout = defaultStepTimeout
	}
	return &CascadeService{
		categories:    categories,
		subcategories: subcategories,
		products:      products,
		locker:        locker,
		audit:         audit,
		stepTimeout:   stepTimeout,
		log:           log,
	}
}

// step is one write of a cascade. It returns the number of descendants it
// touched.
type step struct {
	name string
	run  func(ctx context.Context) (int64, error)
	kind domain.EntityType // descendant kind counted by run; empty for the target
}

// plan locates the target and names the root category to lock. build reads
// the descendants and returns the ordered writes; it runs under the lock and
// the step deadline.
type plan struct {
	lockKey string
	build   func(ctx context.Context) ([]step, error)
}

// Remove applies in.Mode to the target and its descendants. Steps run in
// sequence, each under its own deadline; the first failure aborts the rest.
// A failure after any committed step is reported as *domain.CascadeError.
func (s *CascadeService) Remove(ctx context.Context, in ports.RemoveInput) (*domain.CascadeResult, error) {
	if in.Mode != domain.ModeSoft && in.Mode != domain.ModeHard {
		return nil, domain.NewValidationError("mode", "must be soft or hard")
	}

	p, err := s.plan(ctx, in)
	if err != nil {
		return nil, err
	}

	release, err := lockCategories(ctx, s.locker, s.stepTimeout, s.log, p.lockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	steps, err := s.buildSteps(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("remove %s %s: %w", in.Entity, in.ID, err)
	}

	result := &domain.CascadeResult{Entity: in.Entity, ID: in.ID, Mode: in.Mode}
	completed := make([]string, 0, len(steps))

	for _, st := range steps {
		n, err := s.runStep(ctx, st)
		if err != nil {
			return nil, s.fail(in, result, completed, st.name, err)
		}
		completed = append(completed, st.name)
		switch st.kind {
		case domain.EntitySubcategory:
			result.SubcategoriesAffected += n
		case domain.EntityProduct:
			result.ProductsAffected += n
		}
	}

	metrics.CascadeOperationsTotal.WithLabelValues(string(in.Entity), string(in.Mode), domain.OutcomeCompleted).Inc()
	metrics.CascadeAffectedTotal.WithLabelValues(string(domain.EntitySubcategory), string(in.Mode)).Add(float64(result.SubcategoriesAffected))
	metrics.CascadeAffectedTotal.WithLabelValues(string(domain.EntityProduct), string(in.Mode)).Add(float64(result.ProductsAffected))
	s.record(in, result, completed, domain.OutcomeCompleted, "", nil)

	s.log.Info().
		Str("entity", string(in.Entity)).
		Str("id", in.ID).
		Str("mode", string(in.Mode)).
		Int64("subcategories_affected", result.SubcategoriesAffected).
		Int64("products_affected", result.ProductsAffected).
		Msg("cascade completed")

	return result, nil
}

func (s *CascadeService) buildSteps(ctx context.Context, p *plan) ([]step, error) {
	buildCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return p.build(buildCtx)
}

func (s *CascadeService) runStep(ctx context.Context, st step) (int64, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return st.run(stepCtx)
}

// fail classifies a step error. With nothing committed the store error is
// returned as is; otherwise the cascade is partial.
func (s *CascadeService) fail(in ports.RemoveInput, result *domain.CascadeResult, completed []string, failed string, err error) error {
	if len(completed) == 0 {
		metrics.CascadeOperationsTotal.WithLabelValues(string(in.Entity), string(in.Mode), domain.OutcomeFailed).Inc()
		s.record(in, result, completed, domain.OutcomeFailed, failed, err)
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("remove %s %s: %w", in.Entity, in.ID, err)
	}

	metrics.CascadeOperationsTotal.WithLabelValues(string(in.Entity), string(in.Mode), domain.OutcomePartial).Inc()
	s.record(in, result, completed, domain.OutcomePartial, failed, err)
	s.log.Error().
		Err(err).
		Str("entity", string(in.Entity)).
		Str("id", in.ID).
		Str("mode", string(in.Mode)).
		Strs("completed_steps", completed).
		Str("failed_step", failed).
		Msg("cascade partially applied")

	return &domain.CascadeError{
		Entity:    in.Entity,
		ID:        in.ID,
		Mode:      in.Mode,
		Step:      failed,
		Completed: append([]string(nil), completed...),
		Err:       err,
	}
}

func (s *CascadeService) plan(ctx context.Context, in ports.RemoveInput) (*plan, error) {
	switch in.Entity {
	case domain.EntityCategory:
		return s.planCategory(ctx, in)
	case domain.EntitySubcategory:
		return s.planSubcategory(ctx, in)
	case domain.EntityProduct:
		return s.planProduct(ctx, in)
	default:
		return nil, domain.NewValidationError("entity", fmt.Sprintf("unsupported entity %q", in.Entity))
	}
}

func (s *CascadeService) planCategory(ctx context.Context, in ports.RemoveInput) (*plan, error) {
	if _, err := s.categories.FindByID(ctx, in.ID); err != nil {
		return nil, err
	}
	return &plan{lockKey: in.ID, build: func(ctx context.Context) ([]step, error) {
		subIDs, err := s.subcategories.IDsByCategory(ctx, in.ID)
		if err != nil {
			return nil, fmt.Errorf("list subcategories: %w", err)
		}
		refs := ports.ParentRefs{CategoryIDs: []string{in.ID}, SubcategoryIDs: subIDs}

		if in.Mode == domain.ModeSoft {
			return []step{
				{name: stepDeactivateCategory, run: func(ctx context.Context) (int64, error) {
					return 0, s.categories.SetActive(ctx, in.ID, false)
				}},
				{name: stepDeactivateSubcategories, kind: domain.EntitySubcategory, run: func(ctx context.Context) (int64, error) {
					return s.subcategories.SetActiveByIDs(ctx, subIDs, false)
				}},
				{name: stepDeactivateProducts, kind: domain.EntityProduct, run: func(ctx context.Context) (int64, error) {
					return s.products.SetActiveByParents(ctx, refs, false)
				}},
			}, nil
		}
		return []step{
			{name: stepDeleteProducts, kind: domain.EntityProduct, run: func(ctx context.Context) (int64, error) {
				return s.products.DeleteByParents(ctx, refs)
			}},
			{name: stepDeleteSubcategories, kind: domain.EntitySubcategory, run: func(ctx context.Context) (int64, error) {
				return s.subcategories.DeleteByIDs(ctx, subIDs)
			}},
			{name: stepDeleteCategory, run: func(ctx context.Context) (int64, error) {
				return 0, s.categories.Delete(ctx, in.ID)
			}},
		}, nil
	}}, nil
}

func (s *CascadeService) planSubcategory(ctx context.Context, in ports.RemoveInput) (*plan, error) {
	sub, err := s.subcategories.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	refs := ports.ParentRefs{SubcategoryIDs: []string{in.ID}}

	return &plan{lockKey: sub.CategoryID, build: func(context.Context) ([]step, error) {
		if in.Mode == domain.ModeSoft {
			return []step{
				{name: stepDeactivateSubcategory, run: func(ctx context.Context) (int64, error) {
					return 0, s.subcategories.SetActive(ctx, in.ID, false)
				}},
				{name: stepDeactivateProducts, kind: domain.EntityProduct, run: func(ctx context.Context) (int64, error) {
					return s.products.SetActiveByParents(ctx, refs, false)
				}},
			}, nil
		}
		return []step{
			{name: stepDeleteProducts, kind: domain.EntityProduct, run: func(ctx context.Context) (int64, error) {
				return s.products.DeleteByParents(ctx, refs)
			}},
			{name: stepDeleteSubcategory, run: func(ctx context.Context) (int64, error) {
				return 0, s.subcategories.Delete(ctx, in.ID)
			}},
		}, nil
	}}, nil
}

func (s *CascadeService) planProduct(ctx context.Context, in ports.RemoveInput) (*plan, error) {
	p, err := s.products.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	return &plan{lockKey: p.CategoryID, build: func(context.Context) ([]step, error) {
		if in.Mode == domain.ModeSoft {
			return []step{{name: stepDeactivateProduct, run: func(ctx context.Context) (int64, error) {
				return 0, s.products.SetActive(ctx, in.ID, false)
			}}}, nil
		}
		return []step{{name: stepDeleteProduct, run: func(ctx context.Context) (int64, error) {
			return 0, s.products.Delete(ctx, in.ID)
		}}}, nil
	}}, nil
}

func (s *CascadeService) record(in ports.RemoveInput, result *domain.CascadeResult, completed []string, outcome, failed string, err error) {
	if s.audit == nil {
		return
	}
	entry := domain.CascadeAudit{
		Entity:                in.Entity,
		EntityID:              in.ID,
		Mode:                  in.Mode,
		Outcome:               outcome,
		Actor:                 in.Actor,
		CompletedSteps:        append([]string(nil), completed...),
		FailedStep:            failed,
		SubcategoriesAffected: result.SubcategoriesAffected,
		ProductsAffected:      result.ProductsAffected,
		At:                    time.Now().UTC(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.audit.Enqueue(entry)
}
