package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
)

const defaultExpiryWindowDays = 30

// ValuationHandler exposes the stock valuation and expiry reports
type ValuationHandler struct {
	BaseHandler
	valuation *inventoryapp.ValuationService
}

// NewValuationHandler creates a ValuationHandler
func NewValuationHandler(valuation *inventoryapp.ValuationService) *ValuationHandler {
	return &ValuationHandler{valuation: valuation}
}

// RegisterRoutes registers report endpoints on the API group
func (h *ValuationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/valuation", h.Valuation)
		reports.GET("/expiry", h.Expiry)
	}
}

// Valuation returns the cost and retail value of everything on hand
func (h *ValuationHandler) Valuation(c *gin.Context) {
	report, err := h.valuation.StockValuation(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Expiry lists lots expiring inside the requested window, defaulting to 30 days
func (h *ValuationHandler) Expiry(c *gin.Context) {
	days := defaultExpiryWindowDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "days must be an integer")
			return
		}
		days = parsed
	}

	report, err := h.valuation.ExpiryReport(c.Request.Context(), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
