package handler

import (
	"net/http"

	"github.com/straye-as/erp-desk/internal/export"
	"github.com/straye-as/erp-desk/internal/service"
	"go.uber.org/zap"
)

// PurchaseOrderHandler handles HTTP requests for purchase orders
type PurchaseOrderHandler struct {
	purchaseOrderService *service.PurchaseOrderService
	logger               *zap.Logger
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(purchaseOrderService *service.PurchaseOrderService, logger *zap.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		purchaseOrderService: purchaseOrderService,
		logger:               logger,
	}
}

// List godoc
// @Summary List purchase orders
// @Description Returns a filtered, paginated list of purchase orders with status and tab counts
// @Tags PurchaseOrders
// @Produce json
// @Param search query string false "Free text search"
// @Param status query string false "Order status"
// @Param type query string false "Order type"
// @Param deliveryType query string false "Delivery type"
// @Param tab query string false "Tab name"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} domain.ListResponse
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /purchase-orders [get]
func (h *PurchaseOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.purchaseOrderService.List(r.Context(), r.URL.Query())
	if err != nil {
		handleServiceError(w, h.logger, "list purchase orders", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Export godoc
// @Summary Export purchase orders
// @Tags PurchaseOrders
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /purchase-orders/export [get]
func (h *PurchaseOrderHandler) Export(w http.ResponseWriter, r *http.Request) {
	records, err := h.purchaseOrderService.Filtered(r.Context(), r.URL.Query())
	if err != nil {
		handleServiceError(w, h.logger, "export purchase orders", err)
		return
	}
	data, err := export.PurchaseOrders(records)
	if err != nil {
		handleServiceError(w, h.logger, "export purchase orders", err)
		return
	}
	writeWorkbook(w, "purchase-orders", data)
}

// GetByID godoc
// @Summary Get purchase order
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID"
// @Success 200 {object} domain.PurchaseOrderRecord
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	order, err := h.purchaseOrderService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, "get purchase order", err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Delete godoc
// @Summary Delete purchase order
// @Tags PurchaseOrders
// @Param id path string true "Purchase order ID"
// @Success 204
// @Security BearerAuth
// @Router /purchase-orders/{id} [delete]
func (h *PurchaseOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	if err := h.purchaseOrderService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, "delete purchase order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
