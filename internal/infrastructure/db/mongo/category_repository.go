package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

type CategoryRepository struct {
	col *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{col: db.Collection(collectionCategories)}
}

type categoryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Active      *bool              `bson:"active,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *categoryDoc) toDomain() *domain.Category {
	return &domain.Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Active:      isActive(d.Active),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	active := c.Active
	doc := categoryDoc{
		Name:        c.Name,
		Description: c.Description,
		Active:      &active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	oid, err := insert(ctx, r.col, doc, domain.ErrCategoryExists)
	if err != nil {
		return nil, err
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	var doc categoryDoc
	if err := findByID(ctx, r.col, id, &doc, domain.ErrCategoryNotFound); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *CategoryRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Category, error) {
	oids := parseIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	var docs []categoryDoc
	if err := findMany(ctx, r.col, bson.M{"_id": bson.M{"$in": oids}}, &docs); err != nil {
		return nil, err
	}
	return categoriesToDomain(docs), nil
}

func (r *CategoryRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Category, error) {
	var docs []categoryDoc
	if err := findMany(ctx, r.col, activeFilter(filter.IncludeInactive), &docs, newestFirst()); err != nil {
		return nil, err
	}
	return categoriesToDomain(docs), nil
}

func (r *CategoryRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return existsByName(ctx, r.col, name, excludeID)
}

func (r *CategoryRepository) Update(ctx context.Context, id string, patch ports.CategoryPatch) (*domain.Category, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}

	var doc categoryDoc
	if err := updateFields(ctx, r.col, id, set, &doc, domain.ErrCategoryNotFound, domain.ErrCategoryExists); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *CategoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	return setActive(ctx, r.col, id, active, domain.ErrCategoryNotFound)
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id, domain.ErrCategoryNotFound)
}

func categoriesToDomain(docs []categoryDoc) []*domain.Category {
	out := make([]*domain.Category, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out
}
