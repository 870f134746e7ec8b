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

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditRepository implements ports.AuditRepository over the cascade_audits
// collection.
type AuditRepository struct {
	col *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionCascadeAudits)}
}

type auditDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	Entity                string             `bson:"entity"`
	EntityID              string             `bson:"entity_id"`
	Mode                  string             `bson:"mode"`
	Outcome               string             `bson:"outcome"`
	Actor                 string             `bson:"actor,omitempty"`
	CompletedSteps        []string           `bson:"completed_steps"`
	FailedStep            string             `bson:"failed_step,omitempty"`
	Error                 string             `bson:"error,omitempty"`
	SubcategoriesAffected int64              `bson:"subcategories_affected"`
	ProductsAffected      int64              `bson:"products_affected"`
	At                    time.Time          `bson:"at"`
	RecordedAt            time.Time          `bson:"recorded_at"`
}

// Insert persists one cascade trace.
func (r *AuditRepository) Insert(ctx context.Context, a *domain.CascadeAudit) error {
	doc := auditDoc{
		Entity:                string(a.Entity),
		EntityID:              a.EntityID,
		Mode:                  string(a.Mode),
		Outcome:               a.Outcome,
		Actor:                 a.Actor,
		CompletedSteps:        a.CompletedSteps,
		FailedStep:            a.FailedStep,
		Error:                 a.Error,
		SubcategoriesAffected: a.SubcategoriesAffected,
		ProductsAffected:      a.ProductsAffected,
		At:                    a.At.UTC(),
		RecordedAt:            time.Now().UTC(),
	}
	if doc.CompletedSteps == nil {
		doc.CompletedSteps = []string{}
	}

	oid, err := insert(ctx, r.col, doc, nil)
	if err != nil {
		return err
	}
	a.ID = oid.Hex()
	return nil
}

// List returns the newest traces first.
func (r *AuditRepository) List(ctx context.Context, filter ports.AuditFilter) ([]*domain.CascadeAudit, error) {
	q := bson.M{}
	if filter.Outcome != "" {
		q["outcome"] = filter.Outcome
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(clampLimit(filter.Limit)))

	var docs []auditDoc
	if err := findMany(ctx, r.col, q, &docs, opts); err != nil {
		return nil, err
	}

	out := make([]*domain.CascadeAudit, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.CascadeAudit{
			ID:                    d.ID.Hex(),
			Entity:                domain.EntityType(d.Entity),
			EntityID:              d.EntityID,
			Mode:                  domain.DeleteMode(d.Mode),
			Outcome:               d.Outcome,
			Actor:                 d.Actor,
			CompletedSteps:        d.CompletedSteps,
			FailedStep:            d.FailedStep,
			Error:                 d.Error,
			SubcategoriesAffected: d.SubcategoriesAffected,
			ProductsAffected:      d.ProductsAffected,
			At:                    d.At,
		})
	}
	return out, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultAuditLimit
	case limit > maxAuditLimit:
		return maxAuditLimit
	default:
		return limit
	}
}
