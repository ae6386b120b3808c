package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/core/entity"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/purge"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
	purge   *purge.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service, purgeService *purge.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service, purge: purgeService}
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
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

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	f := product.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if sku := c.Query("sku"); sku != "" {
		f.SKU = &sku
	}
	if status := c.Query("status"); status != "" {
		s := entity.StockStatus(status)
		f.Status = &s
	}

	items, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Count: len(items), Limit: f.Limit, Offset: f.Offset})
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Update(c.Request.Context(), productID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Restock handles POST /products/:id/restock
func (h *ProductHandler) Restock(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RestockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := product.RestockInput{AddedQty: req.AddedQty, Notes: req.Notes}
	if user := h.CurrentUser(c); user != nil {
		in.RestockedBy = user.Name
		in.RestockedByID = user.UserID
	}

	result, err := h.service.Restock(c.Request.Context(), productID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// RestockHistory handles GET /products/:id/restocks
func (h *ProductHandler) RestockHistory(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 50)
	offset := h.ParseIntQuery(c, "offset", 0)

	items, err := h.service.RestockHistory(c.Request.Context(), productID, limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: items, Count: len(items), Limit: limit, Offset: offset})
}

// Delete handles DELETE /products/:id. Force deletion: every inventory row
// and sale record of the product is purged and all totals unwind.
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.purge.ForceDeleteProduct(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
