package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
	"github.com/lotledger/backend/internal/domain/inventory"
)

// BatchHandler exposes lot lifecycle endpoints
type BatchHandler struct {
	BaseHandler
	batches *inventoryapp.BatchService
}

// NewBatchHandler creates a BatchHandler
func NewBatchHandler(batches *inventoryapp.BatchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// RegisterRoutes registers lot endpoints on the API group
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	batches := rg.Group("/batches")
	{
		batches.POST("", h.Create)
		batches.GET("/:id", h.Get)
		batches.GET("/number/:number", h.GetByNumber)
		batches.POST("/:id/adjust", h.Adjust)
		batches.POST("/:id/write-off", h.WriteOff)
		batches.POST("/:id/status", h.SetStatus)
		batches.POST("/:id/reserve", h.Reserve)
		batches.POST("/:id/release", h.Release)
		batches.POST("/expired/sweep", h.SweepExpired)
	}
}

// Create receives a single lot into stock
func (h *BatchHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getOperatorID(c)
	}

	resp, err := h.batches.CreateBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns one lot by id
func (h *BatchHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid batch id")
		return
	}

	resp, err := h.batches.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByNumber returns one lot by its batch number
func (h *BatchHandler) GetByNumber(c *gin.Context) {
	resp, err := h.batches.GetBatchByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Adjust applies a signed stocktake correction to one lot
func (h *BatchHandler) Adjust(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid batch id")
		return
	}

	var req inventoryapp.AdjustBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getOperatorID(c)
	}

	resp, err := h.batches.AdjustBatch(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// writeOffBody selects the terminal status a write-off moves the lot to
type writeOffBody struct {
	Status string `json:"status" binding:"required,oneof=expired damaged returned"`
	Reason string `json:"reason"`
}

// WriteOff removes a lot's remaining quantity from sellable stock
func (h *BatchHandler) WriteOff(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid batch id")
		return
	}

	var body writeOffBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	req := inventoryapp.WriteOffRequest{
		Reason:     body.Reason,
		OperatorID: getOperatorID(c),
	}
	resp, err := h.batches.WriteOffBatch(c.Request.Context(), id, inventory.BatchStatus(body.Status), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// setStatusBody selects the status an administrative change moves the lot to
type setStatusBody struct {
	Status string `json:"status" binding:"required,oneof=active expired damaged returned"`
	Reason string `json:"reason"`
}

// SetStatus changes a lot's status without touching its quantities
func (h *BatchHandler) SetStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid batch id")
		return
	}

	var body setStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	req := inventoryapp.SetStatusRequest{
		Reason:     body.Reason,
		OperatorID: getOperatorID(c),
	}
	resp, err := h.batches.SetBatchStatus(c.Request.Context(), id, inventory.BatchStatus(body.Status), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reserve puts a soft hold on part of a lot
func (h *BatchHandler) Reserve(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid batch id")
		return
	}

	var req inventoryapp.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.batches.ReserveBatch(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Release drops a previously taken soft hold
func (h *BatchHandler) Release(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid batch id")
		return
	}

	var req inventoryapp.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.batches.ReleaseBatchReservation(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SweepExpired writes off every lot whose expiry date has passed
func (h *BatchHandler) SweepExpired(c *gin.Context) {
	count, err := h.batches.MarkExpiredBatches(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"expired_batches": count})
}
