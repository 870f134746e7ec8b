package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

// CategoryHandler serves /api/categories. Errors are rendered by the API's
// HTTPErrorHandler.
type CategoryHandler struct {
	service     ports.CategoryService
	coordinator ports.CascadeCoordinator
}

func NewCategoryHandler(service ports.CategoryService, coordinator ports.CascadeCoordinator) *CategoryHandler {
	return &CategoryHandler{service: service, coordinator: coordinator}
}

// Create handles POST /api/categories.
//
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCategoryRequest  true  "Category"
// @Success      201   {object}  domain.Category
// @Failure      400   {object}  ErrorBody
// @Failure      401   {object}  ErrorBody
// @Failure      403   {object}  ErrorBody
// @Router       /api/categories [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	var req createCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cat, err := h.service.Create(c.Request().Context(), ports.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

// List handles GET /api/categories.
//
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        includeInactive  query     bool  false  "Include deactivated categories"
// @Success      200              {array}   domain.Category
// @Failure      400              {object}  ErrorBody
// @Router       /api/categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	filter, err := listFilter(c)
	if err != nil {
		return err
	}
	cats, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if cats == nil {
		cats = []*domain.Category{}
	}
	return c.JSON(http.StatusOK, cats)
}

// Get handles GET /api/categories/:id.
//
// @Summary      Get a category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category id"
// @Success      200  {object}  domain.Category
// @Failure      404  {object}  ErrorBody
// @Router       /api/categories/{id} [get]
func (h *CategoryHandler) Get(c echo.Context) error {
	cat, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

// Update handles PUT /api/categories/:id.
//
// @Summary      Update a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Category id"
// @Param        body  body      updateCategoryRequest  true  "Fields to change"
// @Success      200   {object}  domain.Category
// @Failure      400   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Router       /api/categories/{id} [put]
func (h *CategoryHandler) Update(c echo.Context) error {
	var req updateCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cat, err := h.service.Update(c.Request().Context(), c.Param("id"), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

// Delete handles DELETE /api/categories/:id. Subcategories and products
// under the category follow it.
//
// @Summary      Deactivate or delete a category and its descendants
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string  true   "Category id"
// @Param        hardDelete  query     bool    false  "Physically remove instead of deactivating"
// @Success      200         {object}  deleteResponse
// @Failure      404         {object}  ErrorBody
// @Failure      409         {object}  ErrorBody
// @Failure      500         {object}  ErrorBody
// @Router       /api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	return removeEntity(c, h.coordinator, domain.EntityCategory)
}
