package handler

import (
	"github.com/gin-gonic/gin"

	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

// ProductHandler exposes catalog endpoints plus the per-product lot and
// ledger views
type ProductHandler struct {
	BaseHandler
	products *inventoryapp.ProductService
	batches  *inventoryapp.BatchService
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(products *inventoryapp.ProductService, batches *inventoryapp.BatchService) *ProductHandler {
	return &ProductHandler{products: products, batches: batches}
}

// RegisterRoutes registers product endpoints on the API group
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.Create)
		products.GET("", h.List)
		products.GET("/:id", h.Get)
		products.PUT("/:id", h.Update)
		products.GET("/barcode/:barcode", h.GetByBarcode)
		products.GET("/:id/stock", h.GetStock)
		products.GET("/:id/batches", h.ListBatches)
		products.GET("/:id/movements", h.ListMovements)
		products.POST("/:id/reconcile", h.Reconcile)
	}
}

// Create registers a catalog entry
func (h *ProductHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.products.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List pages through the catalog
func (h *ProductHandler) List(c *gin.Context) {
	var filter inventoryapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.products.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns one catalog entry by id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid product id")
		return
	}

	resp, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update applies partial catalog changes
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid product id")
		return
	}

	var req inventoryapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.products.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByBarcode returns one catalog entry by barcode
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	resp, err := h.products.GetProductByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetStock returns the product's stock level, cache-first
func (h *ProductHandler) GetStock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid product id")
		return
	}

	resp, err := h.products.GetProductStock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListBatches pages through a product's lots
func (h *ProductHandler) ListBatches(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid product id")
		return
	}

	var filter inventoryapp.BatchListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.batches.ListBatches(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// movementListQuery filters the per-product ledger view
type movementListQuery struct {
	MovementType string `form:"movement_type" binding:"omitempty,oneof=purchase sale adjustment return damage transfer expired"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListMovements pages through a product's ledger entries
func (h *ProductHandler) ListMovements(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid product id")
		return
	}

	var q movementListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.MovementType != "" {
		filter.Filters["movement_type"] = q.MovementType
	}

	page, err := h.batches.ListMovements(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Reconcile recomputes the cached product stock from its lots
func (h *ProductHandler) Reconcile(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid product id")
		return
	}

	resp, err := h.batches.ReconcileProductStock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
