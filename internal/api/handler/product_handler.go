package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
)

// ProductHandler serves /api/products.
type ProductHandler struct {
	service     ports.ProductService
	coordinator ports.CascadeCoordinator
}

func NewProductHandler(service ports.ProductService, coordinator ports.CascadeCoordinator) *ProductHandler {
	return &ProductHandler{service: service, coordinator: coordinator}
}

// Create handles POST /api/products.
//
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createProductRequest  true  "Product"
// @Success      201   {object}  domain.Product
// @Failure      400   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Router       /api/products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	prod, err := h.service.Create(c.Request().Context(), ports.CreateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Stock:         *req.Stock,
		Price:         *req.Price,
		CategoryID:    req.Category,
		SubcategoryID: req.SubCategory,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, prod)
}

// List handles GET /api/products.
//
// @Summary      List products with category and subcategory resolved
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        includeInactive  query     bool    false  "Include deactivated products"
// @Param        category         query     string  false  "Only products of this category"
// @Param        subCategory      query     string  false  "Only products of this subcategory"
// @Success      200              {array}   domain.ProductView
// @Failure      400              {object}  ErrorBody
// @Router       /api/products [get]
func (h *ProductHandler) List(c echo.Context) error {
	filter, err := listFilter(c)
	if err != nil {
		return err
	}
	prods, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if prods == nil {
		prods = []*domain.ProductView{}
	}
	return c.JSON(http.StatusOK, prods)
}

// Get handles GET /api/products/:id.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  domain.ProductView
// @Failure      404  {object}  ErrorBody
// @Router       /api/products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	prod, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prod)
}

// Update handles PUT /api/products/:id.
//
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Product id"
// @Param        body  body      updateProductRequest  true  "Fields to change"
// @Success      200   {object}  domain.Product
// @Failure      400   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	var req updateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	prod, err := h.service.Update(c.Request().Context(), c.Param("id"), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prod)
}

// Delete handles DELETE /api/products/:id. Products are leaves, so the
// affected counts are always zero.
//
// @Summary      Deactivate or delete a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string  true   "Product id"
// @Param        hardDelete  query     bool    false  "Physically remove instead of deactivating"
// @Success      200         {object}  deleteResponse
// @Failure      404         {object}  ErrorBody
// @Failure      500         {object}  ErrorBody
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	return removeEntity(c, h.coordinator, domain.EntityProduct)
}
