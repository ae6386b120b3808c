package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/domain/layaway"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// LayawayHandler handles layaway endpoints.
type LayawayHandler struct {
	*BaseHandler
	service *layaway.Service
}

// NewLayawayHandler creates a new layaway handler.
func NewLayawayHandler(base *BaseHandler, service *layaway.Service) *LayawayHandler {
	return &LayawayHandler{BaseHandler: base, service: service}
}

// Create handles POST /layaways
func (h *LayawayHandler) Create(c *gin.Context) {
	var req dto.CreateLayawayRequest
	if !h.BindJSON(c, &req) {
		return
	}

	createdBy := ""
	if user := h.CurrentUser(c); user != nil {
		createdBy = user.Name
	}

	result, err := h.service.Create(c.Request.Context(), req.ToInput(createdBy))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, result)
}

// List handles GET /layaways
func (h *LayawayHandler) List(c *gin.Context) {
	f := layaway.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("outletId"); v != "" {
		outletID, err := parseQueryID(v)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.OutletID = &outletID
	}
	if v := c.Query("status"); v != "" {
		status := layaway.Status(v)
		f.Status = &status
	}

	items, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Count: len(items), Limit: f.Limit, Offset: f.Offset})
}

// Stats handles GET /layaways/stats
func (h *LayawayHandler) Stats(c *gin.Context) {
	f := c.Query("outletId")
	if f == "" {
		stats, err := h.service.GetStats(c.Request.Context(), nil)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, stats)
		return
	}

	parsed, err := parseQueryID(f)
	if err != nil {
		h.Error(c, err)
		return
	}
	stats, err := h.service.GetStats(c.Request.Context(), &parsed)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stats)
}

// Get handles GET /layaways/:id
func (h *LayawayHandler) Get(c *gin.Context) {
	layawayID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), layawayID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// AddPayment handles POST /layaways/:id/payments
func (h *LayawayHandler) AddPayment(c *gin.Context) {
	layawayID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.LayawayPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := layaway.PaymentInput{Amount: req.Amount, Method: req.Method}
	if user := h.CurrentUser(c); user != nil {
		in.ReceivedBy = user.Name
	}

	result, err := h.service.AddPayment(c.Request.Context(), layawayID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// UpdateItems handles PUT /layaways/:id/items
func (h *LayawayHandler) UpdateItems(c *gin.Context) {
	layawayID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLayawayItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.UpdateItems(c.Request.Context(), layawayID, req.ToItems())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Complete handles POST /layaways/:id/complete
func (h *LayawayHandler) Complete(c *gin.Context) {
	layawayID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	completedBy := ""
	if user := h.CurrentUser(c); user != nil {
		completedBy = user.Name
	}

	receipt, err := h.service.Complete(c.Request.Context(), layawayID, completedBy)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, receipt)
}

// Cancel handles POST /layaways/:id/cancel
func (h *LayawayHandler) Cancel(c *gin.Context) {
	layawayID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), layawayID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
