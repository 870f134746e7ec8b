package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory catalog shared by the three repository fakes. Name lookups are
// case-insensitive, like the collated unique index.
// ---------------------------------------------------------------------------

type memCatalog struct {
	mu            sync.Mutex
	seq           int
	categories    map[string]*domain.Category
	subcategories map[string]*domain.Subcategory
	products      map[string]*domain.Product

	writes int              // successful mutating calls
	failOn map[string]error // method name → injected error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		categories:    make(map[string]*domain.Category),
		subcategories: make(map[string]*domain.Subcategory),
		products:      make(map[string]*domain.Product),
		failOn:        make(map[string]error),
	}
}

func (m *memCatalog) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%03d", prefix, m.seq)
}

func (m *memCatalog) fault(method string) error {
	return m.failOn[method]
}

func (m *memCatalog) categoryRepo() *memCategoryRepo       { return &memCategoryRepo{m} }
func (m *memCatalog) subcategoryRepo() *memSubcategoryRepo { return &memSubcategoryRepo{m} }
func (m *memCatalog) productRepo() *memProductRepo         { return &memProductRepo{m} }

func sameName(a, b string) bool { return strings.EqualFold(a, b) }

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// --- categories -------------------------------------------------------------

type memCategoryRepo struct{ m *memCatalog }

func (r *memCategoryRepo) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("category.Create"); err != nil {
		return nil, err
	}
	for _, existing := range r.m.categories {
		if sameName(existing.Name, c.Name) {
			return nil, domain.ErrCategoryExists
		}
	}
	clone := *c
	clone.ID = r.m.nextID("cat")
	r.m.categories[clone.ID] = &clone
	r.m.writes++
	out := clone
	return &out, nil
}

func (r *memCategoryRepo) FindByID(_ context.Context, id string) (*domain.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *memCategoryRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.Category
	for _, id := range ids {
		if c, ok := r.m.categories[id]; ok {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memCategoryRepo) List(_ context.Context, f ports.ListFilter) ([]*domain.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("category.List"); err != nil {
		return nil, err
	}
	var out []*domain.Category
	for _, c := range r.m.categories {
		if !f.IncludeInactive && !c.Active {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCategoryRepo) ExistsByName(_ context.Context, name, excludeID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, c := range r.m.categories {
		if id != excludeID && sameName(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memCategoryRepo) Update(_ context.Context, id string, p ports.CategoryPatch) (*domain.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	r.m.writes++
	clone := *c
	return &clone, nil
}

func (r *memCategoryRepo) SetActive(_ context.Context, id string, active bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("category.SetActive"); err != nil {
		return err
	}
	c, ok := r.m.categories[id]
	if !ok {
		return domain.ErrCategoryNotFound
	}
	c.Active = active
	r.m.writes++
	return nil
}

func (r *memCategoryRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("category.Delete"); err != nil {
		return err
	}
	if _, ok := r.m.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.m.categories, id)
	r.m.writes++
	return nil
}

// --- subcategories ----------------------------------------------------------

type memSubcategoryRepo struct{ m *memCatalog }

func (r *memSubcategoryRepo) Create(_ context.Context, s *domain.Subcategory) (*domain.Subcategory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.subcategories {
		if sameName(existing.Name, s.Name) {
			return nil, domain.ErrSubcategoryExists
		}
	}
	clone := *s
	clone.ID = r.m.nextID("sub")
	r.m.subcategories[clone.ID] = &clone
	r.m.writes++
	out := clone
	return &out, nil
}

func (r *memSubcategoryRepo) FindByID(_ context.Context, id string) (*domain.Subcategory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.subcategories[id]
	if !ok {
		return nil, domain.ErrSubcategoryNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *memSubcategoryRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Subcategory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.Subcategory
	for _, id := range ids {
		if s, ok := r.m.subcategories[id]; ok {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memSubcategoryRepo) List(_ context.Context, f ports.ListFilter) ([]*domain.Subcategory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.Subcategory
	for _, s := range r.m.subcategories {
		if !f.IncludeInactive && !s.Active {
			continue
		}
		if f.CategoryID != "" && s.CategoryID != f.CategoryID {
			continue
		}
		clone := *s
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSubcategoryRepo) ExistsByName(_ context.Context, name, excludeID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, s := range r.m.subcategories {
		if id != excludeID && sameName(s.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSubcategoryRepo) Update(_ context.Context, id string, p ports.SubcategoryPatch) (*domain.Subcategory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("subcategory.Update"); err != nil {
		return nil, err
	}
	s, ok := r.m.subcategories[id]
	if !ok {
		return nil, domain.ErrSubcategoryNotFound
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.CategoryID != nil {
		s.CategoryID = *p.CategoryID
	}
	r.m.writes++
	clone := *s
	return &clone, nil
}

func (r *memSubcategoryRepo) SetActive(_ context.Context, id string, active bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.subcategories[id]
	if !ok {
		return domain.ErrSubcategoryNotFound
	}
	s.Active = active
	r.m.writes++
	return nil
}

func (r *memSubcategoryRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.subcategories[id]; !ok {
		return domain.ErrSubcategoryNotFound
	}
	delete(r.m.subcategories, id)
	r.m.writes++
	return nil
}

func (r *memSubcategoryRepo) IDsByCategory(_ context.Context, categoryID string) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("subcategory.IDsByCategory"); err != nil {
		return nil, err
	}
	var ids []string
	for id, s := range r.m.subcategories {
		if s.CategoryID == categoryID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memSubcategoryRepo) SetActiveByIDs(_ context.Context, ids []string, active bool) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("subcategory.SetActiveByIDs"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if s, ok := r.m.subcategories[id]; ok {
			s.Active = active
			n++
		}
	}
	r.m.writes++
	return n, nil
}

func (r *memSubcategoryRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("subcategory.DeleteByIDs"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.m.subcategories[id]; ok {
			delete(r.m.subcategories, id)
			n++
		}
	}
	r.m.writes++
	return n, nil
}

// --- products ---------------------------------------------------------------

type memProductRepo struct{ m *memCatalog }

func (r *memProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.products {
		if sameName(existing.Name, p.Name) {
			return nil, domain.ErrProductExists
		}
	}
	clone := *p
	clone.ID = r.m.nextID("prd")
	r.m.products[clone.ID] = &clone
	r.m.writes++
	out := clone
	return &out, nil
}

func (r *memProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memProductRepo) List(_ context.Context, f ports.ListFilter) ([]*domain.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.Product
	for _, p := range r.m.products {
		if !f.IncludeInactive && !p.Active {
			continue
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.SubcategoryID != "" && p.SubcategoryID != f.SubcategoryID {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memProductRepo) ExistsByName(_ context.Context, name, excludeID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, p := range r.m.products {
		if id != excludeID && sameName(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memProductRepo) Update(_ context.Context, id string, patch ports.ProductPatch) (*domain.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.SubcategoryID != nil {
		p.SubcategoryID = *patch.SubcategoryID
	}
	r.m.writes++
	clone := *p
	return &clone, nil
}

func (r *memProductRepo) SetActive(_ context.Context, id string, active bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Active = active
	r.m.writes++
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.m.products, id)
	r.m.writes++
	return nil
}

func (r *memProductRepo) matches(p *domain.Product, refs ports.ParentRefs) bool {
	return contains(refs.CategoryIDs, p.CategoryID) || contains(refs.SubcategoryIDs, p.SubcategoryID)
}

func (r *memProductRepo) SetActiveByParents(_ context.Context, refs ports.ParentRefs, active bool) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("product.SetActiveByParents"); err != nil {
		return 0, err
	}
	var n int64
	for _, p := range r.m.products {
		if r.matches(p, refs) {
			p.Active = active
			n++
		}
	}
	r.m.writes++
	return n, nil
}

func (r *memProductRepo) DeleteByParents(_ context.Context, refs ports.ParentRefs) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("product.DeleteByParents"); err != nil {
		return 0, err
	}
	var n int64
	for id, p := range r.m.products {
		if r.matches(p, refs) {
			delete(r.m.products, id)
			n++
		}
	}
	r.m.writes++
	return n, nil
}

func (r *memProductRepo) SetCategoryBySubcategory(_ context.Context, subcategoryID, categoryID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fault("product.SetCategoryBySubcategory"); err != nil {
		return 0, err
	}
	var n int64
	for _, p := range r.m.products {
		if p.SubcategoryID == subcategoryID {
			p.CategoryID = categoryID
			n++
		}
	}
	r.m.writes++
	return n, nil
}
