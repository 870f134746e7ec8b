package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

type stubLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	acquired []string
	released []string
}

func newStubLocker() *stubLocker { return &stubLocker{held: make(map[string]bool)} }

func (l *stubLocker) Acquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	l.acquired = append(l.acquired, key)
	return true, nil
}

func (l *stubLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

type recordingSink struct {
	mu      sync.Mutex
	entries []domain.CascadeAudit
}

func (s *recordingSink) Enqueue(a domain.CascadeAudit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, a)
}

func (s *recordingSink) last(t *testing.T) domain.CascadeAudit {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.entries, "expected an audit entry")
	return s.entries[len(s.entries)-1]
}

type cascadeFixture struct {
	store  *memCatalog
	locker *stubLocker
	sink   *recordingSink
	svc    *CascadeService

	categoryID    string
	subcategoryID string
	productID     string
}

// newCascadeFixture seeds Beverages → Soda → Cola.
func newCascadeFixture(t *testing.T) *cascadeFixture {
	t.Helper()
	store := newMemCatalog()
	f := &cascadeFixture{
		store:  store,
		locker: newStubLocker(),
		sink:   &recordingSink{},
	}
	f.svc = NewCascadeService(store.categoryRepo(), store.subcategoryRepo(), store.productRepo(),
		f.locker, f.sink, time.Second, zerolog.Nop())

	f.categoryID, f.subcategoryID, f.productID = seedBranch(t, store, "Beverages", "Soda", "Cola")
	store.writes = 0
	return f
}

func seedBranch(t *testing.T, store *memCatalog, category, sub, product string) (string, string, string) {
	t.Helper()
	ctx := context.Background()

	c, err := store.categoryRepo().Create(ctx, &domain.Category{Name: category, Description: "d", Active: true})
	require.NoError(t, err)
	s, err := store.subcategoryRepo().Create(ctx, &domain.Subcategory{Name: sub, Description: "d", CategoryID: c.ID, Active: true})
	require.NoError(t, err)
	p, err := store.productRepo().Create(ctx, &domain.Product{
		Name: product, Description: "d", Stock: 1, Price: 1,
		CategoryID: c.ID, SubcategoryID: s.ID, Active: true,
	})
	require.NoError(t, err)
	return c.ID, s.ID, p.ID
}

func TestCascade_SoftDeleteCategory(t *testing.T) {
	f := newCascadeFixture(t)

	res, err := f.svc.Remove(context.Background(), ports.RemoveInput{
		Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeSoft, Actor: "root",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.SubcategoriesAffected)
	assert.Equal(t, int64(1), res.ProductsAffected)

	assert.False(t, f.store.categories[f.categoryID].Active)
	assert.False(t, f.store.subcategories[f.subcategoryID].Active)
	assert.False(t, f.store.products[f.productID].Active)

	entry := f.sink.last(t)
	assert.Equal(t, domain.OutcomeCompleted, entry.Outcome)
	assert.Equal(t, "root", entry.Actor)
	assert.Equal(t, []string{stepDeactivateCategory, stepDeactivateSubcategories, stepDeactivateProducts}, entry.CompletedSteps)

	assert.Equal(t, []string{"category:" + f.categoryID}, f.locker.acquired)
	assert.Equal(t, []string{"category:" + f.categoryID}, f.locker.released)
}

func TestCascade_HardDeleteCategory(t *testing.T) {
	f := newCascadeFixture(t)

	res, err := f.svc.Remove(context.Background(), ports.RemoveInput{
		Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeHard,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.SubcategoriesAffected)
	assert.Equal(t, int64(1), res.ProductsAffected)

	assert.Empty(t, f.store.categories)
	assert.Empty(t, f.store.subcategories)
	assert.Empty(t, f.store.products)
}

func TestCascade_CountsEveryDescendant(t *testing.T) {
	store := newMemCatalog()
	ctx := context.Background()
	svc := NewCascadeService(store.categoryRepo(), store.subcategoryRepo(), store.productRepo(), nil, nil, 0, zerolog.Nop())

	cat, err := store.categoryRepo().Create(ctx, &domain.Category{Name: "Hardware", Active: true})
	require.NoError(t, err)
	const subs, perSub = 3, 4
	for i := 0; i < subs; i++ {
		s, err := store.subcategoryRepo().Create(ctx, &domain.Subcategory{Name: fmt.Sprintf("sub-%d", i), CategoryID: cat.ID, Active: true})
		require.NoError(t, err)
		for j := 0; j < perSub; j++ {
			_, err := store.productRepo().Create(ctx, &domain.Product{
				Name: fmt.Sprintf("p-%d-%d", i, j), CategoryID: cat.ID, SubcategoryID: s.ID, Active: true,
			})
			require.NoError(t, err)
		}
	}
	// Untouched sibling hierarchy.
	seedBranch(t, store, "Garden", "Tools", "Rake")

	res, err := svc.Remove(ctx, ports.RemoveInput{Entity: domain.EntityCategory, ID: cat.ID, Mode: domain.ModeHard})
	require.NoError(t, err)
	assert.Equal(t, int64(subs), res.SubcategoriesAffected)
	assert.Equal(t, int64(subs*perSub), res.ProductsAffected)
	assert.Len(t, store.categories, 1)
	assert.Len(t, store.subcategories, 1)
	assert.Len(t, store.products, 1)
}

func TestCascade_SoftDeleteSubcategory(t *testing.T) {
	f := newCascadeFixture(t)

	res, err := f.svc.Remove(context.Background(), ports.RemoveInput{
		Entity: domain.EntitySubcategory, ID: f.subcategoryID, Mode: domain.ModeSoft,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.SubcategoriesAffected)
	assert.Equal(t, int64(1), res.ProductsAffected)

	assert.True(t, f.store.categories[f.categoryID].Active, "parent category must stay active")
	assert.False(t, f.store.subcategories[f.subcategoryID].Active)
	assert.False(t, f.store.products[f.productID].Active)
	assert.Equal(t, []string{"category:" + f.categoryID}, f.locker.acquired)
}

func TestCascade_HardDeleteProduct(t *testing.T) {
	f := newCascadeFixture(t)

	res, err := f.svc.Remove(context.Background(), ports.RemoveInput{
		Entity: domain.EntityProduct, ID: f.productID, Mode: domain.ModeHard,
	})
	require.NoError(t, err)
	assert.Zero(t, res.SubcategoriesAffected)
	assert.Zero(t, res.ProductsAffected)
	assert.Empty(t, f.store.products)
	assert.Len(t, f.store.subcategories, 1)
}

func TestCascade_PartialFailureReturnsCascadeError(t *testing.T) {
	f := newCascadeFixture(t)
	boom := errors.New("connection reset")
	f.store.failOn["product.SetActiveByParents"] = boom

	_, err := f.svc.Remove(context.Background(), ports.RemoveInput{
		Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeSoft,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCascadeFailure)
	assert.ErrorIs(t, err, boom)

	var cerr *domain.CascadeError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, stepDeactivateProducts, cerr.Step)
	assert.Equal(t, []string{stepDeactivateCategory, stepDeactivateSubcategories}, cerr.Completed)

	// Committed steps are not rolled back.
	assert.False(t, f.store.categories[f.categoryID].Active)
	assert.False(t, f.store.subcategories[f.subcategoryID].Active)
	assert.True(t, f.store.products[f.productID].Active)

	entry := f.sink.last(t)
	assert.Equal(t, domain.OutcomePartial, entry.Outcome)
	assert.Equal(t, stepDeactivateProducts, entry.FailedStep)
	assert.Contains(t, entry.Error, "connection reset")
	assert.Equal(t, []string{"category:" + f.categoryID}, f.locker.released)
}

func TestCascade_HardPartialFailureLeavesTarget(t *testing.T) {
	f := newCascadeFixture(t)
	f.store.failOn["subcategory.DeleteByIDs"] = errors.New("write conflict")

	_, err := f.svc.Remove(context.Background(), ports.RemoveInput{
		Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeHard,
	})
	var cerr *domain.CascadeError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, stepDeleteSubcategories, cerr.Step)
	assert.Equal(t, []string{stepDeleteProducts}, cerr.Completed)

	assert.Empty(t, f.store.products)
	assert.Len(t, f.store.subcategories, 1)
	assert.Len(t, f.store.categories, 1, "target is removed last")
}

func TestCascade_FirstStepFailureIsNotPartial(t *testing.T) {
	f := newCascadeFixture(t)
	boom := errors.New("primary stepped down")
	f.store.failOn["category.SetActive"] = boom

	_, err := f.svc.Remove(context.Background(), ports.RemoveInput{
		Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeSoft,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrCascadeFailure)
	assert.Zero(t, f.store.writes)
	assert.Equal(t, domain.OutcomeFailed, f.sink.last(t).Outcome)
}

func TestCascade_DescendantLookupFailureWritesNothing(t *testing.T) {
	f := newCascadeFixture(t)
	f.store.failOn["subcategory.IDsByCategory"] = errors.New("timeout")

	_, err := f.svc.Remove(context.Background(), ports.RemoveInput{
		Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeHard,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCascadeFailure)
	assert.Zero(t, f.store.writes)
	assert.Len(t, f.store.categories, 1)
}

func TestCascade_NotFound(t *testing.T) {
	f := newCascadeFixture(t)

	cases := []struct {
		entity domain.EntityType
		want   error
	}{
		{domain.EntityCategory, domain.ErrCategoryNotFound},
		{domain.EntitySubcategory, domain.ErrSubcategoryNotFound},
		{domain.EntityProduct, domain.ErrProductNotFound},
	}
	for _, tc := range cases {
		t.Run(string(tc.entity), func(t *testing.T) {
			_, err := f.svc.Remove(context.Background(), ports.RemoveInput{Entity: tc.entity, ID: "missing", Mode: domain.ModeHard})
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
	assert.Zero(t, f.store.writes)
	assert.Empty(t, f.locker.acquired)
}

func TestCascade_InvalidMode(t *testing.T) {
	f := newCascadeFixture(t)

	_, err := f.svc.Remove(context.Background(), ports.RemoveInput{Entity: domain.EntityCategory, ID: f.categoryID, Mode: "purge"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.store.writes)
}

func TestCascade_LockHeldRejects(t *testing.T) {
	f := newCascadeFixture(t)
	f.locker.held["category:"+f.categoryID] = true

	// A product under the locked category contends for the same lock.
	_, err := f.svc.Remove(context.Background(), ports.RemoveInput{Entity: domain.EntityProduct, ID: f.productID, Mode: domain.ModeSoft})
	assert.ErrorIs(t, err, domain.ErrCascadeInProgress)
	assert.Zero(t, f.store.writes)
	assert.True(t, f.store.products[f.productID].Active)
}

func TestCascade_LockStoreDownProceeds(t *testing.T) {
	f := newCascadeFixture(t)
	f.locker.err = errors.New("dial tcp: connection refused")

	res, err := f.svc.Remove(context.Background(), ports.RemoveInput{Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeSoft})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ProductsAffected)
	assert.Empty(t, f.locker.released)
}

func TestCascade_SoftDeleteIsRepeatable(t *testing.T) {
	f := newCascadeFixture(t)
	in := ports.RemoveInput{Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeSoft}

	_, err := f.svc.Remove(context.Background(), in)
	require.NoError(t, err)
	res, err := f.svc.Remove(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.SubcategoriesAffected, "matched documents are counted again")
	assert.Equal(t, int64(1), res.ProductsAffected)
}

type deadlineSubcategoryRepo struct {
	*memSubcategoryRepo
	sawDeadline bool
}

func (r *deadlineSubcategoryRepo) IDsByCategory(ctx context.Context, categoryID string) ([]string, error) {
	_, r.sawDeadline = ctx.Deadline()
	return r.memSubcategoryRepo.IDsByCategory(ctx, categoryID)
}

func TestCascade_DescendantReadRunsUnderStepDeadline(t *testing.T) {
	store := newMemCatalog()
	subs := &deadlineSubcategoryRepo{memSubcategoryRepo: store.subcategoryRepo()}
	svc := NewCascadeService(store.categoryRepo(), subs, store.productRepo(), nil, nil, time.Second, zerolog.Nop())
	catID, _, _ := seedBranch(t, store, "Beverages", "Soda", "Cola")

	_, err := svc.Remove(context.Background(), ports.RemoveInput{Entity: domain.EntityCategory, ID: catID, Mode: domain.ModeSoft})
	require.NoError(t, err)
	assert.True(t, subs.sawDeadline)
}

func TestCascade_SoftDeletedBranchLeavesDefaultLists(t *testing.T) {
	f := newCascadeFixture(t)
	ctx := context.Background()
	log := zerolog.Nop()
	categories := NewCategoryService(f.store.categoryRepo(), log)
	subcategories := NewSubcategoryService(f.store.subcategoryRepo(), f.store.categoryRepo(), f.store.productRepo(), f.locker, log)
	products := NewProductService(f.store.productRepo(), f.store.categoryRepo(), f.store.subcategoryRepo(), log)

	_, err := f.svc.Remove(ctx, ports.RemoveInput{Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeSoft})
	require.NoError(t, err)

	cats, err := categories.List(ctx, ports.ListFilter{})
	require.NoError(t, err)
	for _, c := range cats {
		assert.NotEqual(t, "Beverages", c.Name)
	}
	subs, err := subcategories.List(ctx, ports.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, subs)
	prods, err := products.List(ctx, ports.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, prods)

	all := ports.ListFilter{IncludeInactive: true}
	cats, err = categories.List(ctx, all)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Beverages", cats[0].Name)
	assert.False(t, cats[0].Active)

	subs, err = subcategories.List(ctx, all)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Soda", subs[0].Name)
	assert.False(t, subs[0].Active)

	prods, err = products.List(ctx, all)
	require.NoError(t, err)
	require.Len(t, prods, 1)
	assert.Equal(t, "Cola", prods[0].Name)
	assert.False(t, prods[0].Active)
	assert.False(t, prods[0].Category.Active)
	assert.False(t, prods[0].Subcategory.Active)
}

func TestCascade_HardDeletedBranchIsNotFound(t *testing.T) {
	f := newCascadeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Remove(ctx, ports.RemoveInput{Entity: domain.EntityCategory, ID: f.categoryID, Mode: domain.ModeHard})
	require.NoError(t, err)

	_, err = f.store.categoryRepo().FindByID(ctx, f.categoryID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.store.subcategoryRepo().FindByID(ctx, f.subcategoryID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.store.productRepo().FindByID(ctx, f.productID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cats, err := NewCategoryService(f.store.categoryRepo(), zerolog.Nop()).List(ctx, ports.ListFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestCascade_PartialFailureIsLoggedOnce(t *testing.T) {
	var logs bytes.Buffer
	store := newMemCatalog()
	svc := NewCascadeService(store.categoryRepo(), store.subcategoryRepo(), store.productRepo(), nil, nil, time.Second, zerolog.New(&logs))
	catID, _, _ := seedBranch(t, store, "Beverages", "Soda", "Cola")
	store.failOn["product.SetActiveByParents"] = errors.New("write timeout")

	_, err := svc.Remove(context.Background(), ports.RemoveInput{Entity: domain.EntityCategory, ID: catID, Mode: domain.ModeSoft})
	require.ErrorIs(t, err, domain.ErrCascadeFailure)

	assert.Equal(t, 1, strings.Count(logs.String(), "cascade partially applied"))
	assert.Contains(t, logs.String(), `"failed_step":"deactivate_products"`)
	assert.Contains(t, logs.String(), "write timeout")
}
