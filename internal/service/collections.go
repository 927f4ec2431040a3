package service

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/erp-desk/internal/auth"
	"github.com/straye-as/erp-desk/internal/cache"
	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/form"
	"github.com/straye-as/erp-desk/internal/normalize"
	"go.uber.org/zap"
)

// ERPClient is the upstream ERP API as used by the services
type ERPClient interface {
	List(ctx context.Context, entity domain.EntityType) ([]domain.RawRecord, error)
	GetByID(ctx context.Context, entity domain.EntityType, id string) (domain.RawRecord, error)
	Create(ctx context.Context, entity domain.EntityType, payload map[string]any) (domain.RawRecord, error)
	Update(ctx context.Context, entity domain.EntityType, id string, payload map[string]any) (domain.RawRecord, error)
	Remove(ctx context.Context, entity domain.EntityType, id string) error
	ListInteractions(ctx context.Context, inquiryID string) ([]domain.RawRecord, error)
	AddInteraction(ctx context.Context, inquiryID string, payload map[string]any) (domain.RawRecord, error)
	DeleteInteraction(ctx context.Context, interactionID string) error
}

// Recorder receives service level measurements
type Recorder interface {
	ObserveCache(entity string, hit bool)
	ObserveSubmit(entity, outcome string)
	ObservePruned(n int64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCache(string, bool)    {}
func (nopRecorder) ObserveSubmit(string, string) {}
func (nopRecorder) ObservePruned(int64)          {}

const anonymousSession = "anonymous"

// collection loads one normalized entity collection per session, through
// the snapshot cache
type collection[T any] struct {
	entity    domain.EntityType
	client    ERPClient
	store     cache.Store
	keys      cache.Keys
	ttl       time.Duration
	normalize func([]domain.RawRecord) []T
	idOf      func(T) string
	recorder  Recorder
	logger    *zap.Logger
}

func (c *collection[T]) key(ctx context.Context) string {
	sessionID := auth.SessionID(ctx)
	if sessionID == "" {
		sessionID = anonymousSession
	}
	return c.keys.Snapshot(sessionID, string(c.entity))
}

// load returns the session snapshot, fetching from upstream on a miss or
// when refresh is set. Cache failures degrade to an upstream fetch.
func (c *collection[T]) load(ctx context.Context, refresh bool) ([]T, error) {
	key := c.key(ctx)
	if !refresh {
		var cached []T
		hit, err := c.store.GetJSON(ctx, key, &cached)
		if err != nil {
			c.logger.Warn("snapshot cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.recorder.ObserveCache(string(c.entity), hit)
		if hit {
			return cached, nil
		}
	}

	raws, err := c.client.List(ctx, c.entity)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.entity, err)
	}
	records := c.normalize(raws)
	if records == nil {
		records = []T{}
	}
	if err := c.store.SetJSON(ctx, key, records, c.ttl); err != nil {
		c.logger.Warn("snapshot cache write failed", zap.String("key", key), zap.Error(err))
	}
	return records, nil
}

// replace swaps the snapshot entry of rec in place. It reports false when
// the session has no snapshot or the record is not in it.
func (c *collection[T]) replace(ctx context.Context, rec T) bool {
	key := c.key(ctx)
	var cached []T
	hit, err := c.store.GetJSON(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("snapshot cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !hit {
		return false
	}
	next, ok := form.ReplaceByID(cached, c.idOf(rec), c.idOf, rec)
	if !ok {
		return false
	}
	if err := c.store.SetJSON(ctx, key, next, c.ttl); err != nil {
		c.logger.Warn("snapshot cache write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// invalidate drops the session snapshot so the next load refetches
func (c *collection[T]) invalidate(ctx context.Context) {
	key := c.key(ctx)
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("snapshot cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Collections holds the per-session snapshots of every list view
type Collections struct {
	inquiries      *collection[domain.InquiryRecord]
	purchaseOrders *collection[domain.PurchaseOrderRecord]
	users          *collection[domain.UserRecord]
}

// NewCollections wires the snapshot collections. Recorder may be nil.
func NewCollections(
	client ERPClient,
	store cache.Store,
	keys cache.Keys,
	ttl time.Duration,
	normalizer *normalize.Normalizer,
	recorder Recorder,
	logger *zap.Logger,
) *Collections {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Collections{
		inquiries: &collection[domain.InquiryRecord]{
			entity: domain.EntityInquiry, client: client, store: store, keys: keys, ttl: ttl,
			normalize: normalizer.Inquiries, idOf: func(r domain.InquiryRecord) string { return r.ID }, recorder: recorder, logger: logger,
		},
		purchaseOrders: &collection[domain.PurchaseOrderRecord]{
			entity: domain.EntityPurchaseOrder, client: client, store: store, keys: keys, ttl: ttl,
			normalize: normalizer.PurchaseOrders, idOf: func(r domain.PurchaseOrderRecord) string { return r.ID }, recorder: recorder, logger: logger,
		},
		users: &collection[domain.UserRecord]{
			entity: domain.EntityUser, client: client, store: store, keys: keys, ttl: ttl,
			normalize: normalizer.Users, idOf: func(r domain.UserRecord) string { return r.ID }, recorder: recorder, logger: logger,
		},
	}
}

// Invalidate drops the snapshot of entity for the caller's session
func (c *Collections) Invalidate(ctx context.Context, entity domain.EntityType) {
	switch entity {
	case domain.EntityInquiry, domain.EntityInteraction:
		c.inquiries.invalidate(ctx)
	case domain.EntityPurchaseOrder:
		c.purchaseOrders.invalidate(ctx)
	case domain.EntityUser:
		c.users.invalidate(ctx)
	}
}
