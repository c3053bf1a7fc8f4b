package handler

import (
	"github.com/gin-gonic/gin"

	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
)

// ReceivingHandler exposes the goods receipt endpoint
type ReceivingHandler struct {
	BaseHandler
	receiving *inventoryapp.ReceivingService
}

// NewReceivingHandler creates a ReceivingHandler
func NewReceivingHandler(receiving *inventoryapp.ReceivingService) *ReceivingHandler {
	return &ReceivingHandler{receiving: receiving}
}

// RegisterRoutes registers receiving endpoints on the API group
func (h *ReceivingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/receipts", h.Receive)
}

// Receive confirms a supplier delivery and creates one lot per line
func (h *ReceivingHandler) Receive(c *gin.Context) {
	var req inventoryapp.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getOperatorID(c)
	}

	result, err := h.receiving.Receive(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
