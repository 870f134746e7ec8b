package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(collectionProducts)}
}

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Stock       int                `bson:"stock"`
	Price       float64            `bson:"price"`
	Category    primitive.ObjectID `bson:"category"`
	SubCategory primitive.ObjectID `bson:"subCategory"`
	Active      *bool              `bson:"active,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *productDoc) toDomain() *domain.Product {
	return &domain.Product{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		Stock:         d.Stock,
		Price:         d.Price,
		CategoryID:    d.Category.Hex(),
		SubcategoryID: d.SubCategory.Hex(),
		Active:        isActive(d.Active),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	categoryID, ok := parseID(p.CategoryID)
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	subcategoryID, ok := parseID(p.SubcategoryID)
	if !ok {
		return nil, domain.ErrSubcategoryNotFound
	}
	active := p.Active
	doc := productDoc{
		Name:        p.Name,
		Description: p.Description,
		Stock:       p.Stock,
		Price:       p.Price,
		Category:    categoryID,
		SubCategory: subcategoryID,
		Active:      &active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	oid, err := insert(ctx, r.col, doc, domain.ErrProductExists)
	if err != nil {
		return nil, err
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDoc
	if err := findByID(ctx, r.col, id, &doc, domain.ErrProductNotFound); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ProductRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Product, error) {
	q := activeFilter(filter.IncludeInactive)
	for field, id := range map[string]string{"category": filter.CategoryID, "subCategory": filter.SubcategoryID} {
		if id == "" {
			continue
		}
		oid, ok := parseID(id)
		if !ok {
			return []*domain.Product{}, nil
		}
		q[field] = oid
	}

	var docs []productDoc
	if err := findMany(ctx, r.col, q, &docs, newestFirst()); err != nil {
		return nil, err
	}
	out := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *ProductRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return existsByName(ctx, r.col, name, excludeID)
}

func (r *ProductRepository) Update(ctx context.Context, id string, patch ports.ProductPatch) (*domain.Product, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.CategoryID != nil {
		oid, ok := parseID(*patch.CategoryID)
		if !ok {
			return nil, domain.ErrCategoryNotFound
		}
		set["category"] = oid
	}
	if patch.SubcategoryID != nil {
		oid, ok := parseID(*patch.SubcategoryID)
		if !ok {
			return nil, domain.ErrSubcategoryNotFound
		}
		set["subCategory"] = oid
	}

	var doc productDoc
	if err := updateFields(ctx, r.col, id, set, &doc, domain.ErrProductNotFound, domain.ErrProductExists); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ProductRepository) SetActive(ctx context.Context, id string, active bool) error {
	return setActive(ctx, r.col, id, active, domain.ErrProductNotFound)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrProductNotFound)
}

func (r *ProductRepository) SetActiveByParents(ctx context.Context, refs ports.ParentRefs, active bool) (int64, error) {
	filter, ok := parentFilter(refs)
	if !ok {
		return 0, nil
	}
	return setActiveMany(ctx, r.col, filter, active)
}

func (r *ProductRepository) DeleteByParents(ctx context.Context, refs ports.ParentRefs) (int64, error) {
	filter, ok := parentFilter(refs)
	if !ok {
		return 0, nil
	}
	return deleteMany(ctx, r.col, filter)
}

func (r *ProductRepository) SetCategoryBySubcategory(ctx context.Context, subcategoryID, categoryID string) (int64, error) {
	subOID, ok := parseID(subcategoryID)
	if !ok {
		return 0, nil
	}
	catOID, ok := parseID(categoryID)
	if !ok {
		return 0, domain.ErrCategoryNotFound
	}
	res, err := r.col.UpdateMany(ctx, bson.M{"subCategory": subOID}, bson.M{"$set": bson.M{
		"category":  catOID,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return 0, fmt.Errorf("%s set category: %w", r.col.Name(), err)
	}
	return res.MatchedCount, nil
}

// parentFilter matches products under any of the given categories or
// subcategories. ok is false when nothing would match.
func parentFilter(refs ports.ParentRefs) (bson.M, bool) {
	if refs.Empty() {
		return nil, false
	}
	var or bson.A
	if oids := parseIDs(refs.CategoryIDs); len(oids) > 0 {
		or = append(or, bson.M{"category": bson.M{"$in": oids}})
	}
	if oids := parseIDs(refs.SubcategoryIDs); len(oids) > 0 {
		or = append(or, bson.M{"subCategory": bson.M{"$in": oids}})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.M{"$or": or}, true
}
