package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockflow/internal/domain/catalogs/outlet"
	"stockflow/internal/domain/purge"
	"stockflow/internal/domain/reports"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// OutletHandler handles outlet catalog endpoints.
type OutletHandler struct {
	*BaseHandler
	service *outlet.Service
	purge   *purge.Service
	reports *reports.Service
}

// NewOutletHandler creates a new outlet handler.
func NewOutletHandler(base *BaseHandler, service *outlet.Service, purgeService *purge.Service, reportService *reports.Service) *OutletHandler {
	return &OutletHandler{BaseHandler: base, service: service, purge: purgeService, reports: reportService}
}

// Create handles POST /outlets
func (h *OutletHandler) Create(c *gin.Context) {
	var req dto.CreateOutletRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, result)
}

// List handles GET /outlets
func (h *OutletHandler) List(c *gin.Context) {
	f := outlet.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("warehouseId"); v != "" {
		warehouseID, err := parseQueryID(v)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.WarehouseID = &warehouseID
	}
	if v := c.Query("repId"); v != "" {
		repID, err := parseQueryID(v)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.RepID = &repID
	}

	items, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Count: len(items), Limit: f.Limit, Offset: f.Offset})
}

// Get handles GET /outlets/:id
func (h *OutletHandler) Get(c *gin.Context) {
	outletID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), outletID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Update handles PUT /outlets/:id
func (h *OutletHandler) Update(c *gin.Context) {
	outletID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOutletRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Update(c.Request.Context(), outletID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// AssignRep handles POST /outlets/:id/reps
func (h *OutletHandler) AssignRep(c *gin.Context) {
	outletID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AssignRepRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.AssignRep(c.Request.Context(), outletID, req.RepID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// UnassignRep handles DELETE /outlets/:id/reps/:repId
func (h *OutletHandler) UnassignRep(c *gin.Context) {
	outletID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	repID, ok := h.ParseIDParam(c, "repId")
	if !ok {
		return
	}

	result, err := h.service.UnassignRep(c.Request.Context(), outletID, repID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Overview handles GET /outlets/:id/overview
func (h *OutletHandler) Overview(c *gin.Context) {
	outletID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	f := reports.OutletOverviewFilter{
		OutletID: outletID,
		TopLimit: h.ParseIntQuery(c, "topLimit", 0),
	}
	if day := c.Query("day"); day != "" {
		parsed, err := time.Parse("2006-01-02", day)
		if err != nil {
			h.Error(c, invalidQueryParam("day", day))
			return
		}
		f.Day = parsed
	}

	overview, err := h.reports.GetOutletOverview(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, overview)
}

// Delete handles DELETE /outlets/:id. In-transit shipments inbound to the
// outlet are force-cancelled as part of the cascade.
func (h *OutletHandler) Delete(c *gin.Context) {
	outletID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.purge.DeleteOutlet(c.Request.Context(), outletID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
