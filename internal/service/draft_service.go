package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/erp-desk/internal/auth"
	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/form"
	applog "github.com/straye-as/erp-desk/internal/logger"
	"github.com/straye-as/erp-desk/internal/normalize"
	"github.com/straye-as/erp-desk/internal/repository"
	"go.uber.org/zap"
)

// Submit outcomes reported to the Recorder
const (
	outcomeOK        = "ok"
	outcomeInvalid   = "invalid"
	outcomeInFlight  = "in_flight"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
)

// draftEngine is the entity independent view of a draft store
type draftEngine interface {
	list(ctx context.Context, sessionID string) ([]domain.DraftDTO, error)
	openCreate(ctx context.Context, sessionID string, initial json.RawMessage) (*domain.DraftDTO, error)
	openEdit(ctx context.Context, sessionID, recordID string) (*domain.DraftDTO, error)
	get(ctx context.Context, sessionID string, id uuid.UUID) (*domain.DraftDTO, error)
	patch(ctx context.Context, sessionID string, id uuid.UUID, changes []domain.FieldChange) (*domain.DraftDTO, error)
	submit(ctx context.Context, sessionID string, id uuid.UUID) (*domain.SubmitDraftResponse, error)
	cancel(ctx context.Context, sessionID string, id uuid.UUID) error
	forget(ids ...uuid.UUID)
	closed() []uuid.UUID
}

// DraftService runs one form controller per open dialog and persists its
// snapshot in the draft store so a dialog survives page reloads and restarts
type DraftService struct {
	repo     *repository.DraftRepository
	engines  map[domain.EntityType]draftEngine
	maxAge   time.Duration
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewDraftService creates a new DraftService for inquiry and purchase order dialogs
func NewDraftService(
	repo *repository.DraftRepository,
	client ERPClient,
	collections *Collections,
	normalizer *normalize.Normalizer,
	inquiries *InquiryService,
	purchaseOrders *PurchaseOrderService,
	maxAge time.Duration,
	recorder Recorder,
	logger *zap.Logger,
) *DraftService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	base := draftBase{repo: repo, client: client, collections: collections, recorder: recorder, logger: logger}
	return &DraftService{
		repo: repo,
		engines: map[domain.EntityType]draftEngine{
			domain.EntityInquiry: &drafts[domain.InquiryRecord]{
				draftBase:   base,
				entity:      form.Inquiry,
				load:        inquiries.Load,
				renormalize: normalizer.Inquiry,
				snapshot:    collections.inquiries,
				live:        make(map[uuid.UUID]*form.Controller[domain.InquiryRecord]),
			},
			domain.EntityPurchaseOrder: &drafts[domain.PurchaseOrderRecord]{
				draftBase:   base,
				entity:      form.PurchaseOrder,
				load:        purchaseOrders.Load,
				renormalize: normalizer.PurchaseOrder,
				snapshot:    collections.purchaseOrders,
				live:        make(map[uuid.UUID]*form.Controller[domain.PurchaseOrderRecord]),
			},
		},
		maxAge:   maxAge,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *DraftService) engine(entity domain.EntityType) (draftEngine, error) {
	e, ok := s.engines[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return e, nil
}

func sessionOf(ctx context.Context) string {
	if id := auth.SessionID(ctx); id != "" {
		return id
	}
	return anonymousSession
}

// List returns the caller's open drafts of entity, most recent first
func (s *DraftService) List(ctx context.Context, entity domain.EntityType) ([]domain.DraftDTO, error) {
	e, err := s.engine(entity)
	if err != nil {
		return nil, err
	}
	return e.list(ctx, sessionOf(ctx))
}

// OpenCreate opens a create dialog, optionally seeded with initial field values
func (s *DraftService) OpenCreate(ctx context.Context, entity domain.EntityType, initial json.RawMessage) (*domain.DraftDTO, error) {
	e, err := s.engine(entity)
	if err != nil {
		return nil, err
	}
	return e.openCreate(ctx, sessionOf(ctx), initial)
}

// OpenEdit loads a committed record and opens an edit dialog on a copy of it
func (s *DraftService) OpenEdit(ctx context.Context, entity domain.EntityType, recordID string) (*domain.DraftDTO, error) {
	e, err := s.engine(entity)
	if err != nil {
		return nil, err
	}
	return e.openEdit(ctx, sessionOf(ctx), recordID)
}

// Get returns an open draft
func (s *DraftService) Get(ctx context.Context, entity domain.EntityType, id uuid.UUID) (*domain.DraftDTO, error) {
	e, err := s.engine(entity)
	if err != nil {
		return nil, err
	}
	return e.get(ctx, sessionOf(ctx), id)
}

// Patch applies field changes in order. Either all changes apply or none do.
func (s *DraftService) Patch(ctx context.Context, entity domain.EntityType, id uuid.UUID, changes []domain.FieldChange) (*domain.DraftDTO, error) {
	e, err := s.engine(entity)
	if err != nil {
		return nil, err
	}
	return e.patch(ctx, sessionOf(ctx), id, changes)
}

// Submit validates the draft and sends it upstream. On success the draft is
// closed. An edit replaces its record in the session snapshot; a create
// drops the snapshot so the list reloads.
func (s *DraftService) Submit(ctx context.Context, entity domain.EntityType, id uuid.UUID) (*domain.SubmitDraftResponse, error) {
	e, err := s.engine(entity)
	if err != nil {
		return nil, err
	}
	return e.submit(ctx, sessionOf(ctx), id)
}

// Cancel closes the dialog and discards the draft. A running submit is
// aborted and its result dropped.
func (s *DraftService) Cancel(ctx context.Context, entity domain.EntityType, id uuid.UUID) error {
	e, err := s.engine(entity)
	if err != nil {
		return err
	}
	return e.cancel(ctx, sessionOf(ctx), id)
}

// PruneStale removes drafts untouched for longer than the configured max age
func (s *DraftService) PruneStale(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.maxAge)
	removed, err := s.repo.DeleteStaleBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune drafts: %w", err)
	}
	for _, e := range s.engines {
		e.forget(e.closed()...)
	}
	s.recorder.ObservePruned(removed)
	if removed > 0 {
		s.logger.Info("pruned stale drafts", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	}
	return removed, nil
}

// ============================================================================
// Per entity engine
// ============================================================================

type draftBase struct {
	repo        *repository.DraftRepository
	client      ERPClient
	collections *Collections
	recorder    Recorder
	logger      *zap.Logger
}

type drafts[T any] struct {
	draftBase
	entity      form.Entity[T]
	load        func(ctx context.Context, id string) (T, error)
	renormalize func(domain.RawRecord) T
	snapshot    *collection[T]

	mu   sync.Mutex
	live map[uuid.UUID]*form.Controller[T]
}

func (d *drafts[T]) sessionLogger(ctx context.Context) *zap.Logger {
	app, _ := auth.FromContext(ctx)
	return applog.WithSession(d.logger, app)
}

func notFound(id uuid.UUID) error {
	return &domain.NotFoundError{Entity: "draft", ID: id.String()}
}

// fromRaw decodes a JSON object and normalizes it into a record
func (d *drafts[T]) fromRaw(data []byte) (T, error) {
	raw := domain.RawRecord{}
	if len(bytes.TrimSpace(data)) > 0 && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		if err := json.Unmarshal(data, &raw); err != nil {
			var zero T
			return zero, err
		}
	}
	return d.renormalize(raw), nil
}

// controller returns the live controller of a draft, restoring it from the
// store when this process has not seen it yet
func (d *drafts[T]) controller(ctx context.Context, sessionID string, id uuid.UUID) (*form.Controller[T], *domain.Draft, error) {
	row, err := d.repo.GetByID(ctx, sessionID, id)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			d.forget(id)
			return nil, nil, notFound(id)
		}
		return nil, nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if row.Entity != d.entity.Name {
		return nil, nil, notFound(id)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.live[id]; ok {
		return c, row, nil
	}

	snap := form.Snapshot[T]{
		State:    form.State(row.State),
		Mode:     form.Mode(row.Mode),
		RecordID: row.RecordID,
	}
	if snap.Draft, err = d.fromRaw([]byte(row.Payload)); err != nil {
		return nil, nil, fmt.Errorf("failed to decode draft %s: %w", id, err)
	}
	if row.Original != "" {
		original, err := d.fromRaw([]byte(row.Original))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode draft original %s: %w", id, err)
		}
		snap.Original = &original
	}

	c := form.New(d.entity)
	if err := c.Restore(snap); err != nil {
		return nil, nil, fmt.Errorf("failed to restore draft %s: %w", id, err)
	}
	d.live[id] = c
	return c, row, nil
}

// capture copies the controller snapshot into row
func (d *drafts[T]) capture(row *domain.Draft, c *form.Controller[T]) error {
	snap := c.Snapshot()
	payload, err := json.Marshal(snap.Draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	row.Entity = d.entity.Name
	row.State = string(snap.State)
	row.Mode = string(snap.Mode)
	row.RecordID = snap.RecordID
	row.Payload = string(payload)
	row.Original = ""
	if snap.Original != nil {
		original, err := json.Marshal(snap.Original)
		if err != nil {
			return fmt.Errorf("failed to encode draft original: %w", err)
		}
		row.Original = string(original)
	}
	return nil
}

func (d *drafts[T]) dto(row *domain.Draft, c *form.Controller[T]) *domain.DraftDTO {
	return &domain.DraftDTO{
		ID:        row.ID,
		Entity:    d.entity.Name,
		Mode:      string(c.Mode()),
		State:     string(c.State()),
		RecordID:  c.RecordID(),
		Draft:     c.Draft(),
		UpdatedAt: row.UpdatedAt,
	}
}

func (d *drafts[T]) register(ctx context.Context, sessionID string, c *form.Controller[T]) (*domain.DraftDTO, error) {
	row := &domain.Draft{SessionID: sessionID}
	if err := d.capture(row, c); err != nil {
		return nil, err
	}
	if err := d.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	d.mu.Lock()
	d.live[row.ID] = c
	d.mu.Unlock()

	d.sessionLogger(ctx).Debug("draft opened",
		zap.String("draft_id", row.ID.String()),
		zap.String("entity", string(d.entity.Name)),
		zap.String("mode", row.Mode),
	)
	return d.dto(row, c), nil
}

func (d *drafts[T]) list(ctx context.Context, sessionID string) ([]domain.DraftDTO, error) {
	rows, err := d.repo.ListBySession(ctx, sessionID, d.entity.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	out := make([]domain.DraftDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DraftDTO{
			ID:        row.ID,
			Entity:    row.Entity,
			Mode:      row.Mode,
			State:     row.State,
			RecordID:  row.RecordID,
			Draft:     json.RawMessage(row.Payload),
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (d *drafts[T]) openCreate(ctx context.Context, sessionID string, initial json.RawMessage) (*domain.DraftDTO, error) {
	seed, err := d.fromRaw(initial)
	if err != nil {
		return nil, domain.NewValidationError("initial", "Must be a JSON object")
	}
	c := form.New(d.entity)
	if err := c.OpenForCreate(seed); err != nil {
		return nil, err
	}
	return d.register(ctx, sessionID, c)
}

func (d *drafts[T]) openEdit(ctx context.Context, sessionID, recordID string) (*domain.DraftDTO, error) {
	c := form.New(d.entity)
	err := c.OpenForEdit(ctx, func(ctx context.Context) (T, error) {
		return d.load(ctx, recordID)
	})
	if err != nil {
		return nil, err
	}
	return d.register(ctx, sessionID, c)
}

func (d *drafts[T]) get(ctx context.Context, sessionID string, id uuid.UUID) (*domain.DraftDTO, error) {
	c, row, err := d.controller(ctx, sessionID, id)
	if err != nil {
		return nil, err
	}
	return d.dto(row, c), nil
}

func (d *drafts[T]) patch(ctx context.Context, sessionID string, id uuid.UUID, changes []domain.FieldChange) (*domain.DraftDTO, error) {
	c, row, err := d.controller(ctx, sessionID, id)
	if err != nil {
		return nil, err
	}

	for i, ch := range changes {
		if d.entity.IsFixed(ch.Field) {
			return nil, fmt.Errorf("%w: change %d (%s): field cannot be changed in a dialog", ErrInvalidChange, i, ch.Field)
		}
	}

	var applyErr error
	err = c.Edit(func(draft T) T {
		next, err := applyChanges(draft, changes, d.renormalize)
		if err != nil {
			applyErr = err
			return draft
		}
		return next
	})
	if err != nil {
		return nil, err
	}
	if applyErr != nil {
		return nil, applyErr
	}

	if err := d.capture(row, c); err != nil {
		return nil, err
	}
	if err := d.repo.Update(ctx, row); err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			d.forget(id)
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	row.UpdatedAt = time.Now().UTC()
	return d.dto(row, c), nil
}

func (d *drafts[T]) submit(ctx context.Context, sessionID string, id uuid.UUID) (*domain.SubmitDraftResponse, error) {
	c, row, err := d.controller(ctx, sessionID, id)
	if err != nil {
		return nil, err
	}
	entity := string(d.entity.Name)

	result, err := c.Submit(ctx, func(ctx context.Context, mode form.Mode, recordID string, payload map[string]any) (domain.RawRecord, error) {
		if mode == form.ModeEdit {
			return d.client.Update(ctx, d.entity.Name, recordID, payload)
		}
		return d.client.Create(ctx, d.entity.Name, payload)
	})
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			d.recorder.ObserveSubmit(entity, outcomeInvalid)
		case errors.Is(err, form.ErrSubmitInFlight):
			d.recorder.ObserveSubmit(entity, outcomeInFlight)
		case errors.Is(err, form.ErrCancelled):
			d.recorder.ObserveSubmit(entity, outcomeCancelled)
			d.forget(id)
		default:
			d.recorder.ObserveSubmit(entity, outcomeFailed)
			d.sessionLogger(ctx).Warn("draft submit failed",
				zap.String("draft_id", id.String()),
				zap.String("entity", entity),
				zap.Error(err),
			)
		}
		return nil, err
	}

	d.recorder.ObserveSubmit(entity, outcomeOK)
	d.forget(id)
	if err := d.repo.Delete(ctx, sessionID, row.ID); err != nil && !errors.Is(err, repository.ErrDraftNotFound) {
		d.sessionLogger(ctx).Warn("failed to delete submitted draft", zap.String("draft_id", id.String()), zap.Error(err))
	}

	resp := &domain.SubmitDraftResponse{Refresh: true}
	if len(result) > 0 {
		record := d.renormalize(result)
		resp.Record = record
		if row.Mode == string(form.ModeEdit) && d.snapshot.replace(ctx, record) {
			resp.Refresh = false
		}
	}
	if resp.Refresh {
		d.collections.Invalidate(ctx, d.entity.Name)
	}
	d.sessionLogger(ctx).Info("draft submitted",
		zap.String("draft_id", id.String()),
		zap.String("entity", entity),
		zap.String("mode", row.Mode),
	)
	return resp, nil
}

func (d *drafts[T]) cancel(ctx context.Context, sessionID string, id uuid.UUID) error {
	c, _, err := d.controller(ctx, sessionID, id)
	if err != nil {
		return err
	}
	c.Cancel()
	d.forget(id)
	if err := d.repo.Delete(ctx, sessionID, id); err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			return notFound(id)
		}
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func (d *drafts[T]) forget(ids ...uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		delete(d.live, id)
	}
}

// closed lists live controllers that no longer hold an open dialog
func (d *drafts[T]) closed() []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []uuid.UUID
	for id, c := range d.live {
		if c.State() == form.StateClosed {
			out = append(out, id)
		}
	}
	return out
}

// ============================================================================
// Field changes
// ============================================================================

// applyChanges applies every change to the JSON shape of draft and
// normalizes the result so derived fields are recomputed
func applyChanges[T any](draft T, changes []domain.FieldChange, renormalize func(domain.RawRecord) T) (T, error) {
	raw, err := normalize.Encode(draft)
	if err != nil {
		return draft, fmt.Errorf("failed to encode draft: %w", err)
	}
	for i, ch := range changes {
		if err := applyChange(raw, ch); err != nil {
			return draft, fmt.Errorf("%w: change %d (%s): %v", ErrInvalidChange, i, ch.Field, err)
		}
	}
	return renormalize(raw), nil
}

func decodeValue(data json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// applyChange sets a field, addressed by a dotted path, or replaces one
// element of a list field by index or id. A null value at an index removes
// the element and the index one past the end appends.
func applyChange(raw domain.RawRecord, ch domain.FieldChange) error {
	value, err := decodeValue(ch.Value)
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}

	parent, key, err := resolve(raw, ch.Field)
	if err != nil {
		return err
	}
	if ch.Index == nil && ch.ID == "" {
		parent[key] = value
		return nil
	}

	var list []any
	switch existing := parent[key].(type) {
	case []any:
		list = existing
	case nil:
	default:
		return fmt.Errorf("field %q is not a list", ch.Field)
	}

	if ch.Index != nil {
		i := *ch.Index
		switch {
		case i == len(list) && value != nil:
			parent[key] = form.Append(list, value)
		case value == nil:
			next, err := form.RemoveAt(list, i)
			if err != nil {
				return err
			}
			parent[key] = next
		default:
			next, err := form.ReplaceAt(list, i, value)
			if err != nil {
				return err
			}
			parent[key] = next
		}
		return nil
	}

	next, ok := form.ReplaceByID(list, ch.ID, elementID, value)
	if !ok {
		return fmt.Errorf("no element with id %q in %q", ch.ID, ch.Field)
	}
	parent[key] = next
	return nil
}

func elementID(e any) string {
	m, ok := e.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["id"].(string)
	return id
}

// resolve walks a dotted path to the map holding its last segment,
// creating intermediate objects as needed
func resolve(raw domain.RawRecord, path string) (map[string]any, string, error) {
	parts := strings.Split(path, ".")
	cur := map[string]any(raw)
	for _, p := range parts[:len(parts)-1] {
		if p == "" {
			return nil, "", fmt.Errorf("invalid field path %q", path)
		}
		switch next := cur[p].(type) {
		case map[string]any:
			cur = next
		case nil:
			m := map[string]any{}
			cur[p] = m
			cur = m
		default:
			return nil, "", fmt.Errorf("field %q is not an object", p)
		}
	}
	last := parts[len(parts)-1]
	if last == "" {
		return nil, "", fmt.Errorf("invalid field path %q", path)
	}
	return cur, last, nil
}
