package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

// SubcategoryHandler serves /api/subcategories.
type SubcategoryHandler struct {
	service     ports.SubcategoryService
	coordinator ports.CascadeCoordinator
}

func NewSubcategoryHandler(service ports.SubcategoryService, coordinator ports.CascadeCoordinator) *SubcategoryHandler {
	return &SubcategoryHandler{service: service, coordinator: coordinator}
}

// Create handles POST /api/subcategories.
//
// @Summary      Create a subcategory under an active category
// @Tags         subcategories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSubcategoryRequest  true  "Subcategory"
// @Success      201   {object}  domain.Subcategory
// @Failure      400   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Router       /api/subcategories [post]
func (h *SubcategoryHandler) Create(c echo.Context) error {
	var req createSubcategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sub, err := h.service.Create(c.Request().Context(), ports.CreateSubcategoryInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.Category,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

// List handles GET /api/subcategories.
//
// @Summary      List subcategories with their category resolved
// @Tags         subcategories
// @Produce      json
// @Security     BearerAuth
// @Param        includeInactive  query     bool    false  "Include deactivated subcategories"
// @Param        category         query     string  false  "Only subcategories of this category"
// @Success      200              {array}   domain.SubcategoryView
// @Failure      400              {object}  ErrorBody
// @Router       /api/subcategories [get]
func (h *SubcategoryHandler) List(c echo.Context) error {
	filter, err := listFilter(c)
	if err != nil {
		return err
	}
	subs, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []*domain.SubcategoryView{}
	}
	return c.JSON(http.StatusOK, subs)
}

// Get handles GET /api/subcategories/:id.
//
// @Summary      Get a subcategory
// @Tags         subcategories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Subcategory id"
// @Success      200  {object}  domain.SubcategoryView
// @Failure      404  {object}  ErrorBody
// @Router       /api/subcategories/{id} [get]
func (h *SubcategoryHandler) Get(c echo.Context) error {
	sub, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// Update handles PUT /api/subcategories/:id.
//
// @Summary      Update a subcategory
// @Tags         subcategories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Subcategory id"
// @Param        body  body      updateSubcategoryRequest  true  "Fields to change"
// @Success      200   {object}  domain.Subcategory
// @Failure      400   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Failure      409   {object}  ErrorBody
// @Router       /api/subcategories/{id} [put]
func (h *SubcategoryHandler) Update(c echo.Context) error {
	var req updateSubcategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	sub, err := h.service.Update(c.Request().Context(), c.Param("id"), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// Delete handles DELETE /api/subcategories/:id. Products under the
// subcategory follow it.
//
// @Summary      Deactivate or delete a subcategory and its products
// @Tags         subcategories
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string  true   "Subcategory id"
// @Param        hardDelete  query     bool    false  "Physically remove instead of deactivating"
// @Success      200         {object}  deleteResponse
// @Failure      404         {object}  ErrorBody
// @Failure      409         {object}  ErrorBody
// @Failure      500         {object}  ErrorBody
// @Router       /api/subcategories/{id} [delete]
func (h *SubcategoryHandler) Delete(c echo.Context) error {
	return removeEntity(c, h.coordinator, domain.EntitySubcategory)
}
