package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

type SubcategoryRepository struct {
	col *mongo.Collection
}

func NewSubcategoryRepository(db *mongo.Database) *SubcategoryRepository {
	return &SubcategoryRepository{col: db.Collection(collectionSubcategories)}
}

type subcategoryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Category    primitive.ObjectID `bson:"category"`
	Active      *bool              `bson:"active,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *subcategoryDoc) toDomain() *domain.Subcategory {
	return &domain.Subcategory{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		CategoryID:  d.Category.Hex(),
		Active:      isActive(d.Active),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r *SubcategoryRepository) Create(ctx context.Context, s *domain.Subcategory) (*domain.Subcategory, error) {
	categoryID, ok := parseID(s.CategoryID)
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	active := s.Active
	doc := subcategoryDoc{
		Name:        s.Name,
		Description: s.Description,
		Category:    categoryID,
		Active:      &active,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	oid, err := insert(ctx, r.col, doc, domain.ErrSubcategoryExists)
	if err != nil {
		return nil, err
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *SubcategoryRepository) FindByID(ctx context.Context, id string) (*domain.Subcategory, error) {
	var doc subcategoryDoc
	if err := findByID(ctx, r.col, id, &doc, domain.ErrSubcategoryNotFound); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *SubcategoryRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Subcategory, error) {
	oids := parseIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	var docs []subcategoryDoc
	if err := findMany(ctx, r.col, bson.M{"_id": bson.M{"$in": oids}}, &docs); err != nil {
		return nil, err
	}
	return subcategoriesToDomain(docs), nil
}

func (r *SubcategoryRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Subcategory, error) {
	q := activeFilter(filter.IncludeInactive)
	if filter.CategoryID != "" {
		oid, ok := parseID(filter.CategoryID)
		if !ok {
			return []*domain.Subcategory{}, nil
		}
		q["category"] = oid
	}

	var docs []subcategoryDoc
	if err := findMany(ctx, r.col, q, &docs, newestFirst()); err != nil {
		return nil, err
	}
	return subcategoriesToDomain(docs), nil
}

func (r *SubcategoryRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return existsByName(ctx, r.col, name, excludeID)
}

func (r *SubcategoryRepository) Update(ctx context.Context, id string, patch ports.SubcategoryPatch) (*domain.Subcategory, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.CategoryID != nil {
		oid, ok := parseID(*patch.CategoryID)
		if !ok {
			return nil, domain.ErrCategoryNotFound
		}
		set["category"] = oid
	}

	var doc subcategoryDoc
	if err := updateFields(ctx, r.col, id, set, &doc, domain.ErrSubcategoryNotFound, domain.ErrSubcategoryExists); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *SubcategoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	return setActive(ctx, r.col, id, active, domain.ErrSubcategoryNotFound)
}

func (r *SubcategoryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrSubcategoryNotFound)
}

// IDsByCategory includes inactive subcategories.
func (r *SubcategoryRepository) IDsByCategory(ctx context.Context, categoryID string) ([]string, error) {
	oid, ok := parseID(categoryID)
	if !ok {
		return nil, nil
	}

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	if err := findMany(ctx, r.col, bson.M{"category": oid}, &docs, opts); err != nil {
		return nil, err
	}

	oids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		oids = append(oids, d.ID)
	}
	return hexIDs(oids), nil
}

func (r *SubcategoryRepository) SetActiveByIDs(ctx context.Context, ids []string, active bool) (int64, error) {
	oids := parseIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}
	return setActiveMany(ctx, r.col, bson.M{"_id": bson.M{"$in": oids}}, active)
}

func (r *SubcategoryRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	oids := parseIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}
	return deleteMany(ctx, r.col, bson.M{"_id": bson.M{"$in": oids}})
}

func subcategoriesToDomain(docs []subcategoryDoc) []*domain.Subcategory {
	out := make([]*domain.Subcategory, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out
}
