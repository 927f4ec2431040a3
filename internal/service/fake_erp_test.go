package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/straye-as/erp-desk/internal/auth"
	"github.com/straye-as/erp-desk/internal/cache"
	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/normalize"
	"github.com/straye-as/erp-desk/internal/repository"
	"github.com/straye-as/erp-desk/internal/testutil"
	"go.uber.org/zap"
)

// fakeERP is an in-memory ERP API
type fakeERP struct {
	mu           sync.Mutex
	records      map[domain.EntityType][]domain.RawRecord
	interactions map[string][]domain.RawRecord
	listCalls    map[domain.EntityType]int
	created      []map[string]any
	updated      map[string]map[string]any
	removed      []string
	nextID       int

	// createHook runs before Create returns; a non-nil error fails the call
	createHook func(ctx context.Context) error
	updateErr  error
}

func newFakeERP() *fakeERP {
	return &fakeERP{
		records:      make(map[domain.EntityType][]domain.RawRecord),
		interactions: make(map[string][]domain.RawRecord),
		listCalls:    make(map[domain.EntityType]int),
		updated:      make(map[string]map[string]any),
	}
}

func (f *fakeERP) seed(entity domain.EntityType, records ...domain.RawRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[entity] = append(f.records[entity], records...)
}

func (f *fakeERP) calls(entity domain.EntityType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[entity]
}

func (f *fakeERP) List(_ context.Context, entity domain.EntityType) ([]domain.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[entity]++
	return append([]domain.RawRecord(nil), f.records[entity]...), nil
}

func (f *fakeERP) GetByID(_ context.Context, entity domain.EntityType, id string) (domain.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records[entity] {
		if r["id"] == id {
			return domain.RawRecord(domain.CloneMap(r)), nil
		}
	}
	return nil, &domain.NotFoundError{Entity: entity, ID: id}
}

func (f *fakeERP) Create(ctx context.Context, entity domain.EntityType, payload map[string]any) (domain.RawRecord, error) {
	if f.createHook != nil {
		if err := f.createHook(ctx); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	f.nextID++
	rec := domain.RawRecord(domain.CloneMap(payload))
	rec["id"] = fmt.Sprintf("new-%d", f.nextID)
	f.records[entity] = append(f.records[entity], rec)
	return rec, nil
}

func (f *fakeERP) Update(_ context.Context, entity domain.EntityType, id string, payload map[string]any) (domain.RawRecord, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = payload
	rec := domain.RawRecord(domain.CloneMap(payload))
	rec["id"] = id
	return rec, nil
}

func (f *fakeERP) Remove(_ context.Context, entity domain.EntityType, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	kept := f.records[entity][:0]
	for _, r := range f.records[entity] {
		if r["id"] != id {
			kept = append(kept, r)
		}
	}
	f.records[entity] = kept
	return nil
}

func (f *fakeERP) ListInteractions(_ context.Context, inquiryID string) ([]domain.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RawRecord(nil), f.interactions[inquiryID]...), nil
}

func (f *fakeERP) AddInteraction(_ context.Context, inquiryID string, payload map[string]any) (domain.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec := domain.RawRecord(domain.CloneMap(payload))
	rec["id"] = fmt.Sprintf("int-%d", f.nextID)
	f.interactions[inquiryID] = append(f.interactions[inquiryID], rec)
	return rec, nil
}

func (f *fakeERP) DeleteInteraction(_ context.Context, interactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, interactionID)
	return nil
}

// fakeRecorder collects submit outcomes
type fakeRecorder struct {
	mu       sync.Mutex
	hits     int
	misses   int
	outcomes []string
	pruned   int64
}

func (r *fakeRecorder) ObserveCache(_ string, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *fakeRecorder) ObserveSubmit(_ string, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) ObservePruned(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruned += n
}

type fixture struct {
	erp            *fakeERP
	recorder       *fakeRecorder
	repo           *repository.DraftRepository
	collections    *Collections
	inquiries      *InquiryService
	purchaseOrders *PurchaseOrderService
	users          *UserService
	dashboard      *DashboardService
	drafts         *DraftService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	erp := newFakeERP()
	rec := &fakeRecorder{}
	normalizer := normalize.New(normalize.Options{})
	collections := NewCollections(erp, cache.NewMemoryStore(), cache.Keys{Prefix: "test:"}, time.Minute, normalizer, rec, logger)
	repo := repository.NewDraftRepository(testutil.SetupTestDB(t))

	fx := &fixture{
		erp:            erp,
		recorder:       rec,
		repo:           repo,
		collections:    collections,
		inquiries:      NewInquiryService(erp, collections, normalizer, normalize.Detail, logger),
		purchaseOrders: NewPurchaseOrderService(erp, collections, normalizer, logger),
		users:          NewUserService(erp, collections, normalizer, logger),
		dashboard:      NewDashboardService(collections, logger),
	}
	fx.drafts = NewDraftService(repo, erp, collections, normalizer, fx.inquiries, fx.purchaseOrders, 24*time.Hour, rec, logger)
	return fx
}

func sessionCtx(sessionID string) context.Context {
	return auth.WithAppContext(context.Background(), &auth.AppContext{SessionID: sessionID, Theme: auth.ThemeLight})
}
