package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/domain/shipment"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// ShipmentHandler handles shipment lifecycle endpoints.
type ShipmentHandler struct {
	*BaseHandler
	service *shipment.Service
}

// NewShipmentHandler creates a new shipment handler.
func NewShipmentHandler(base *BaseHandler, service *shipment.Service) *ShipmentHandler {
	return &ShipmentHandler{BaseHandler: base, service: service}
}

// Create handles POST /shipments
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req dto.CreateShipmentRequest
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

// List handles GET /shipments
func (h *ShipmentHandler) List(c *gin.Context) {
	f := shipment.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("status"); v != "" {
		status := shipment.Status(v)
		f.Status = &status
	}
	if v := c.Query("locationId"); v != "" {
		locationID, err := parseQueryID(v)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.LocationID = &locationID
	}
	if v := c.Query("productId"); v != "" {
		productID, err := parseQueryID(v)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.ProductID = &productID
	}

	items, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Count: len(items), Limit: f.Limit, Offset: f.Offset})
}

// Get handles GET /shipments/:id
func (h *ShipmentHandler) Get(c *gin.Context) {
	shipmentID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), shipmentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Receive handles POST /shipments/:id/receive
func (h *ShipmentHandler) Receive(c *gin.Context) {
	h.transition(c, shipment.ActionReceive)
}

// Reject handles POST /shipments/:id/reject
func (h *ShipmentHandler) Reject(c *gin.Context) {
	h.transition(c, shipment.ActionReject)
}

// Cancel handles POST /shipments/:id/cancel
func (h *ShipmentHandler) Cancel(c *gin.Context) {
	h.transition(c, shipment.ActionCancel)
}

func (h *ShipmentHandler) transition(c *gin.Context, action shipment.Action) {
	shipmentID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Transition(c.Request.Context(), shipmentID, action)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Edit handles PUT /shipments/:id. Only the destination and notes are
// editable while in transit; lines are frozen at dispatch.
func (h *ShipmentHandler) Edit(c *gin.Context) {
	shipmentID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.EditShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Edit(c.Request.Context(), shipmentID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
