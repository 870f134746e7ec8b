package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

// Context keys written by middleware.Auth.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

// caller is the authenticated identity behind a request.
type caller struct {
	UserID   string
	Username string
	Role     string
}

// ctxCaller extracts the identity injected by the Auth middleware. A missing
// subject means the middleware did not run and the request is rejected.
func ctxCaller(c echo.Context) (caller, error) {
	id, _ := c.Get(CtxUserID).(string)
	if id == "" {
		return caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	username, _ := c.Get(CtxUsername).(string)
	role, _ := c.Get(CtxRole).(string)
	return caller{UserID: id, Username: username, Role: role}, nil
}

// bindAndValidate decodes the request body into req and runs struct-tag
// validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

// listFilter reads the query parameters shared by the catalog lists.
func listFilter(c echo.Context) (ports.ListFilter, error) {
	var f ports.ListFilter
	err := echo.QueryParamsBinder(c).
		Bool("includeInactive", &f.IncludeInactive).
		String("category", &f.CategoryID).
		String("subCategory", &f.SubcategoryID).
		BindError()
	if err != nil {
		return f, domain.NewValidationError("query", "invalid query parameters")
	}
	return f, nil
}

// removeEntity runs the cascade for entity :id, hard when ?hardDelete=true.
func removeEntity(c echo.Context, coordinator ports.CascadeCoordinator, entity domain.EntityType) error {
	who, err := ctxCaller(c)
	if err != nil {
		return err
	}
	var hard bool
	if err := echo.QueryParamsBinder(c).Bool("hardDelete", &hard).BindError(); err != nil {
		return domain.NewValidationError("hardDelete", "must be true or false")
	}

	res, err := coordinator.Remove(c.Request().Context(), ports.RemoveInput{
		Entity: entity,
		ID:     c.Param("id"),
		Mode:   domain.ModeFromHardFlag(hard),
		Actor:  who.Username,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDeleteResponse(res))
}
