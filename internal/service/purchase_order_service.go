package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/straye-as/erp-desk/internal/calc"
	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/filter"
	"github.com/straye-as/erp-desk/internal/normalize"
	"go.uber.org/zap"
)

// PurchaseOrderService handles the purchase order list and detail views
type PurchaseOrderService struct {
	client      ERPClient
	collections *Collections
	normalizer  *normalize.Normalizer
	logger      *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	client ERPClient,
	collections *Collections,
	normalizer *normalize.Normalizer,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		client:      client,
		collections: collections,
		normalizer:  normalizer,
		logger:      logger,
	}
}

func purchaseOrderCounts(records []domain.PurchaseOrderRecord) domain.StatusCounts {
	return calc.CountBy(records, func(r domain.PurchaseOrderRecord) string { return string(r.Status) },
		domain.Strings(domain.PurchaseOrderStatuses))
}

// List returns a filtered page of the session's purchase orders
func (s *PurchaseOrderService) List(ctx context.Context, q url.Values) (*domain.ListResponse, error) {
	records, err := s.collections.purchaseOrders.load(ctx, wantsRefresh(q))
	if err != nil {
		return nil, err
	}
	return buildList(records, filter.PurchaseOrderSchema, q, purchaseOrderCounts(records))
}

// Filtered returns every purchase order matching the query, unpaged
func (s *PurchaseOrderService) Filtered(ctx context.Context, q url.Values) ([]domain.PurchaseOrderRecord, error) {
	records, err := s.collections.purchaseOrders.load(ctx, wantsRefresh(q))
	if err != nil {
		return nil, err
	}
	filtered, _, err := filterRecords(records, filter.PurchaseOrderSchema, q)
	return filtered, err
}

// Get returns one purchase order
func (s *PurchaseOrderService) Get(ctx context.Context, id string) (*domain.PurchaseOrderRecord, error) {
	rec, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Load fetches the committed purchase order for an edit dialog
func (s *PurchaseOrderService) Load(ctx context.Context, id string) (domain.PurchaseOrderRecord, error) {
	raw, err := s.client.GetByID(ctx, domain.EntityPurchaseOrder, id)
	if err != nil {
		return domain.PurchaseOrderRecord{}, fmt.Errorf("failed to get purchase order: %w", err)
	}
	rec := s.normalizer.PurchaseOrder(raw)
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// Delete removes a purchase order upstream and drops the session snapshot
func (s *PurchaseOrderService) Delete(ctx context.Context, id string) error {
	if err := s.client.Remove(ctx, domain.EntityPurchaseOrder, id); err != nil {
		return fmt.Errorf("failed to delete purchase order: %w", err)
	}
	s.collections.Invalidate(ctx, domain.EntityPurchaseOrder)
	s.logger.Info("purchase order deleted", zap.String("purchase_order_id", id))
	return nil
}
