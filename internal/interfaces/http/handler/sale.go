package handler

import (
	"github.com/gin-gonic/gin"

	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
)

// SaleHandler exposes the FIFO sale endpoint
type SaleHandler struct {
	BaseHandler
	sales *inventoryapp.SaleService
}

// NewSaleHandler creates a SaleHandler
func NewSaleHandler(sales *inventoryapp.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// RegisterRoutes registers sale endpoints on the API group
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sales", h.Sell)
}

// Sell debits stock oldest lot first and returns the costed sale result
func (h *SaleHandler) Sell(c *gin.Context) {
	var req inventoryapp.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getOperatorID(c)
	}

	result, err := h.sales.Sell(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
