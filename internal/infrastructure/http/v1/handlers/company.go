package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/domain/catalogs/company"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// CompanyHandler handles company endpoints. The company is a singleton
// created at bootstrap; only GET and info updates are exposed.
type CompanyHandler struct {
	*BaseHandler
	service *company.Service
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(base *BaseHandler, service *company.Service) *CompanyHandler {
	return &CompanyHandler{BaseHandler: base, service: service}
}

// Get handles GET /company
func (h *CompanyHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Update handles PUT /company
func (h *CompanyHandler) Update(c *gin.Context) {
	var req dto.UpdateCompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Update(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
