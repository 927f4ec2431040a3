package service

import (
	"context"

	"github.com/straye-as/erp-desk/internal/calc"
	"github.com/straye-as/erp-desk/internal/domain"
	"go.uber.org/zap"
)

// DashboardService aggregates counts across the session's collections
type DashboardService struct {
	collections *Collections
	logger      *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(collections *Collections, logger *zap.Logger) *DashboardService {
	return &DashboardService{collections: collections, logger: logger}
}

// Summary counts inquiries, purchase orders and users by their enumerations.
// The user directory is optional; when it cannot be loaded its counts are empty.
func (s *DashboardService) Summary(ctx context.Context, refresh bool) (*domain.DashboardSummary, error) {
	inquiries, err := s.collections.inquiries.load(ctx, refresh)
	if err != nil {
		return nil, err
	}
	orders, err := s.collections.purchaseOrders.load(ctx, refresh)
	if err != nil {
		return nil, err
	}
	users, err := s.collections.users.load(ctx, refresh)
	if err != nil {
		s.logger.Warn("dashboard user counts unavailable", zap.Error(err))
		users = nil
	}

	return &domain.DashboardSummary{
		Inquiries: inquiryCounts(inquiries),
		InquirySources: calc.CountBy(inquiries, func(r domain.InquiryRecord) string { return string(r.Source) },
			domain.Strings(domain.InquirySources)),
		SLA: calc.CountBy(inquiries, func(r domain.InquiryRecord) string { return string(r.SLAStatus) },
			domain.Strings(domain.SLAStatuses)),
		PurchaseOrders: purchaseOrderCounts(orders),
		PurchaseOrderTypes: calc.CountBy(orders, func(r domain.PurchaseOrderRecord) string { return string(r.Type) },
			domain.Strings(domain.PurchaseOrderTypes)),
		PurchaseOrderAmount: calc.SumAmounts(orders),
		Users:               userCounts(users),
	}, nil
}
