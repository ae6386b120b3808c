package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/domain/catalogs/warehouse"
	"stockflow/internal/domain/purge"
	"stockflow/internal/domain/reports"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// WarehouseHandler handles warehouse catalog endpoints.
type WarehouseHandler struct {
	*BaseHandler
	service *warehouse.Service
	purge   *purge.Service
	reports *reports.Service
}

// NewWarehouseHandler creates a new warehouse handler.
func NewWarehouseHandler(base *BaseHandler, service *warehouse.Service, purgeService *purge.Service, reportService *reports.Service) *WarehouseHandler {
	return &WarehouseHandler{BaseHandler: base, service: service, purge: purgeService, reports: reportService}
}

// Create handles POST /warehouses
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req dto.CreateWarehouseRequest
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

// List handles GET /warehouses
func (h *WarehouseHandler) List(c *gin.Context) {
	f := warehouse.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		f.Status = &status
	}

	items, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Count: len(items), Limit: f.Limit, Offset: f.Offset})
}

// Get handles GET /warehouses/:id
func (h *WarehouseHandler) Get(c *gin.Context) {
	warehouseID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Update handles PUT /warehouses/:id
func (h *WarehouseHandler) Update(c *gin.Context) {
	warehouseID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Update(c.Request.Context(), warehouseID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Stock handles GET /warehouses/:id/stock
func (h *WarehouseHandler) Stock(c *gin.Context) {
	warehouseID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.reports.GetWarehouseStock(c.Request.Context(), reports.WarehouseStockFilter{
		WarehouseID: warehouseID,
		ExcludeZero: c.Query("excludeZero") == "true",
		Limit:       h.ParseIntQuery(c, "limit", 0),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Delete handles DELETE /warehouses/:id. Cascades through every child
// outlet before the warehouse itself is removed.
func (h *WarehouseHandler) Delete(c *gin.Context) {
	warehouseID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.purge.DeleteWarehouse(c.Request.Context(), warehouseID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
