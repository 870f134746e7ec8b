package ports

import (
	"context"

	"github.com/inventario/catalog-api/internal/core/domain"
)

// AuditFilter narrows a cascade audit listing.
type AuditFilter struct {
	Outcome string // optional: completed, partial, failed
	Limit   int    // capped by the repository
}

// AuditRepository stores cascade audit documents.
type AuditRepository interface {
	Insert(ctx context.Context, audit *domain.CascadeAudit) error
	List(ctx context.Context, filter AuditFilter) ([]*domain.CascadeAudit, error)
}

// AuditSink accepts audit records for asynchronous persistence.
type AuditSink interface {
	Enqueue(audit domain.CascadeAudit)
}
