package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockflow/internal/domain/reports"
)

// ReportsHandler handles read-only report endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// CompanyOverview handles GET /reports/company-overview
func (h *ReportsHandler) CompanyOverview(c *gin.Context) {
	overview, err := h.service.GetCompanyOverview(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, overview)
}

// SalesSummary handles GET /reports/sales-summary
func (h *ReportsHandler) SalesSummary(c *gin.Context) {
	var f reports.SalesSummaryFilter
	if v := c.Query("outletId"); v != "" {
		outletID, err := parseQueryID(v)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.OutletID = &outletID
	}
	if v := c.Query("soldById"); v != "" {
		soldByID, err := parseQueryID(v)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.SoldByID = &soldByID
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.Error(c, invalidQueryParam("from", v))
			return
		}
		f.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.Error(c, invalidQueryParam("to", v))
			return
		}
		f.To = &to
	}

	summary, err := h.service.GetSalesSummary(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}
