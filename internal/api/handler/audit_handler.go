package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

// auditLister is the read side of ports.AuditRepository.
type auditLister interface {
	List(ctx context.Context, filter ports.AuditFilter) ([]*domain.CascadeAudit, error)
}

// AuditHandler exposes the cascade audit trail to operators.
type AuditHandler struct {
	audits auditLister
}

func NewAuditHandler(audits auditLister) *AuditHandler {
	return &AuditHandler{audits: audits}
}

type auditQuery struct {
	Outcome string `query:"outcome" validate:"omitempty,oneof=completed partial failed"`
	Limit   int    `query:"limit" validate:"gte=0"`
}

// ListCascades returns recent cascade audits, newest first. Partial
// outcomes are the ones needing manual repair.
//
// @Summary      List cascade audits
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        outcome  query     string  false  "completed, partial or failed"
// @Param        limit    query     int     false  "Maximum entries (default 50)"
// @Success      200      {array}   domain.CascadeAudit
// @Failure      400      {object}  ErrorBody
// @Failure      403      {object}  ErrorBody
// @Router       /api/audit/cascades [get]
func (h *AuditHandler) ListCascades(c echo.Context) error {
	var q auditQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	audits, err := h.audits.List(c.Request().Context(), ports.AuditFilter{
		Outcome: q.Outcome,
		Limit:   q.Limit,
	})
	if err != nil {
		return err
	}
	if audits == nil {
		audits = []*domain.CascadeAudit{}
	}
	return c.JSON(http.StatusOK, audits)
}
