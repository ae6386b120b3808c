package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/sales"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// SalesHandler handles sale transaction endpoints.
type SalesHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(base *BaseHandler, service *sales.Service) *SalesHandler {
	return &SalesHandler{BaseHandler: base, service: service}
}

// Record handles POST /sales
func (h *SalesHandler) Record(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	soldBy := ""
	soldByID := id.Nil()
	if user := h.CurrentUser(c); user != nil {
		soldBy = user.Name
		if parsed, err := id.Parse(user.UserID); err == nil {
			soldByID = parsed
		}
	}

	receipt, err := h.service.RecordSale(c.Request.Context(), req.ToInput(soldBy, soldByID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, receipt)
}

// List handles GET /sales
func (h *SalesHandler) List(c *gin.Context) {
	f := sales.Filter{
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
	if v := c.Query("productId"); v != "" {
		productID, err := parseQueryID(v)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.ProductID = &productID
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

	transactions, err := h.service.ListTransactions(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: transactions, Count: len(transactions), Limit: f.Limit, Offset: f.Offset})
}

// GetTransaction handles GET /sales/:transactionId
func (h *SalesHandler) GetTransaction(c *gin.Context) {
	transactionID, ok := h.ParseIDParam(c, "transactionId")
	if !ok {
		return
	}

	result, err := h.service.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// EditTransaction handles PUT /sales/:transactionId
func (h *SalesHandler) EditTransaction(c *gin.Context) {
	transactionID, ok := h.ParseIDParam(c, "transactionId")
	if !ok {
		return
	}
	var req dto.EditTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	editedBy := ""
	if user := h.CurrentUser(c); user != nil {
		editedBy = user.Name
	}

	receipt, err := h.service.EditTransaction(c.Request.Context(), transactionID, req.ToLines(), editedBy)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, receipt)
}

// DeleteTransaction handles DELETE /sales/:transactionId
func (h *SalesHandler) DeleteTransaction(c *gin.Context) {
	transactionID, ok := h.ParseIDParam(c, "transactionId")
	if !ok {
		return
	}

	if err := h.service.DeleteTransaction(c.Request.Context(), transactionID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Reverse handles POST /sales/lines/:id/reverse
func (h *SalesHandler) Reverse(c *gin.Context) {
	saleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	reversedBy := ""
	if user := h.CurrentUser(c); user != nil {
		reversedBy = user.Name
	}

	reversal, err := h.service.Reverse(c.Request.Context(), saleID, reversedBy)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, reversal)
}
