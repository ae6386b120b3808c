package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	"stockflow/internal/infrastructure/http/v1/dto"
	"stockflow/internal/infrastructure/storage/postgres"
)

var auditEntityTypes = map[string]bool{
	"product":   true,
	"warehouse": true,
	"outlet":    true,
	"account":   true,
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	*BaseHandler
	trail *postgres.AuditTrail
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, trail *postgres.AuditTrail) *AuditHandler {
	return &AuditHandler{BaseHandler: base, trail: trail}
}

// EntityHistory handles GET /audit/:entityType/:id.
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	entityType := c.Param("entityType")
	if !auditEntityTypes[entityType] {
		h.Error(c, apperror.NewValidation("unknown entity type: "+entityType))
		return
	}
	entityID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.trail.EntityHistory(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: entries, Count: len(entries), Limit: limit})
}
