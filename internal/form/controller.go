// Package form holds the draft state of create and edit dialogs.
//
// A Controller owns one dialog. The draft is seeded with a deep copy of the
// record being edited, replaced with a new value on every change, validated
// on submit, and discarded once the upstream call succeeds. Submission runs
// under a cancellable context guarded by an in-flight flag.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/straye-as/erp-desk/internal/domain"
)

// State is the dialog lifecycle state
type State string

const (
	StateClosed           State = "closed"
	StateOpeningForCreate State = "opening_for_create"
	StateOpeningForEdit   State = "opening_for_edit"
	StateOpen             State = "open"
	StateSubmitting       State = "submitting"
	StateCancelling       State = "cancelling"
)

// Mode says whether the dialog creates a record or edits an existing one
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

var (
	ErrSubmitInFlight = errors.New("a submit is already in flight")
	ErrNotOpen        = errors.New("dialog is not open")
	ErrAlreadyOpen    = errors.New("dialog is already open")
	ErrCancelled      = errors.New("dialog was cancelled")
)

// Entity describes how a record type is copied, validated and sent upstream
type Entity[T any] struct {
	Name  domain.EntityType
	Clone func(T) T
	ID    func(T) string
	// Validate returns nil or a ValidationError. Original is nil in create mode.
	Validate func(draft T, original *T, mode Mode) *domain.ValidationError
	Payload  func(T) map[string]any
	// Fixed lists top-level fields a dialog cannot change
	Fixed []string
}

// IsFixed reports whether the dotted field path starts at a fixed field
func (e Entity[T]) IsFixed(path string) bool {
	top, _, _ := strings.Cut(path, ".")
	for _, f := range e.Fixed {
		if f == top {
			return true
		}
	}
	return false
}

// SubmitFunc sends a payload upstream. RecordID is empty in create mode.
type SubmitFunc func(ctx context.Context, mode Mode, recordID string, payload map[string]any) (domain.RawRecord, error)

// Loader fetches the committed record for an edit dialog
type Loader[T any] func(ctx context.Context) (T, error)

// Snapshot is the persistable state of a controller
type Snapshot[T any] struct {
	State    State
	Mode     Mode
	RecordID string
	Draft    T
	Original *T
}

// Controller is the state machine of a single dialog. It is safe for
// concurrent use; the upstream call runs without holding the lock.
type Controller[T any] struct {
	mu       sync.Mutex
	entity   Entity[T]
	state    State
	mode     Mode
	recordID string
	draft    T
	original *T
	cancel   context.CancelFunc
	// epoch changes whenever the dialog is closed or reopened so a late
	// submit or load result can tell it is stale
	epoch   uint64
	lastErr error
}

// New creates a closed controller
func New[T any](entity Entity[T]) *Controller[T] {
	return &Controller[T]{entity: entity, state: StateClosed}
}

// State returns the current lifecycle state
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mode returns the current mode
func (c *Controller[T]) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// RecordID is the id of the record being edited
func (c *Controller[T]) RecordID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordID
}

// Draft returns a copy of the current draft
func (c *Controller[T]) Draft() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entity.Clone(c.draft)
}

// LastError is the error of the most recent failed submit, if any
func (c *Controller[T]) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// OpenForCreate opens the dialog with a copy of initial as the draft
func (c *Controller[T]) OpenForCreate(initial T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		return ErrAlreadyOpen
	}
	c.state = StateOpeningForCreate
	c.epoch++
	c.mode = ModeCreate
	c.recordID = ""
	c.original = nil
	c.draft = c.entity.Clone(initial)
	c.lastErr = nil
	c.state = StateOpen
	return nil
}

// OpenForEdit loads the committed record and seeds the draft with a deep
// copy of it. Cancelling while the load runs discards the result.
func (c *Controller[T]) OpenForEdit(ctx context.Context, load Loader[T]) error {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return ErrAlreadyOpen
	}
	c.state = StateOpeningForEdit
	c.epoch++
	epoch := c.epoch
	c.mode = ModeEdit
	c.lastErr = nil
	c.mu.Unlock()

	record, err := load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.state != StateOpeningForEdit {
		return ErrCancelled
	}
	if err != nil {
		c.reset()
		return err
	}
	original := c.entity.Clone(record)
	c.original = &original
	c.recordID = c.entity.ID(record)
	c.draft = c.entity.Clone(record)
	c.state = StateOpen
	return nil
}

// Edit replaces the draft with fn applied to a copy of it. The previous
// draft value is never modified.
func (c *Controller[T]) Edit(fn func(T) T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return ErrNotOpen
	}
	c.draft = fn(c.entity.Clone(c.draft))
	return nil
}

// Validate runs the entity validation against the current draft
func (c *Controller[T]) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return ErrNotOpen
	}
	if verr := c.entity.Validate(c.draft, c.original, c.mode); verr.HasErrors() {
		return verr
	}
	return nil
}

// Submit validates the draft and hands its payload to fn. A ValidationError
// aborts before fn is called. On failure the draft is kept and the dialog
// returns to Open. If the dialog is cancelled while fn runs, fn's context is
// cancelled and its result dropped.
func (c *Controller[T]) Submit(ctx context.Context, fn SubmitFunc) (domain.RawRecord, error) {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	case StateOpen:
	default:
		c.mu.Unlock()
		return nil, ErrNotOpen
	}

	if verr := c.entity.Validate(c.draft, c.original, c.mode); verr.HasErrors() {
		c.lastErr = verr
		c.mu.Unlock()
		return nil, verr
	}

	payload := c.entity.Payload(c.draft)
	mode, recordID, epoch := c.mode, c.recordID, c.epoch
	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = StateSubmitting
	c.mu.Unlock()

	result, err := fn(subCtx, mode, recordID, payload)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = nil

	if c.epoch != epoch || c.state == StateCancelling {
		c.reset()
		return nil, ErrCancelled
	}
	if err != nil {
		c.state = StateOpen
		c.lastErr = err
		return nil, fmt.Errorf("failed to submit %s: %w", c.entity.Name, err)
	}
	c.reset()
	return result, nil
}

// Cancel closes the dialog and discards the draft. A running submit is
// aborted and its result dropped once it returns.
func (c *Controller[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateSubmitting:
		c.state = StateCancelling
		if c.cancel != nil {
			c.cancel()
		}
	case StateClosed, StateCancelling:
	default:
		c.reset()
	}
}

// reset closes the dialog; the caller holds the lock
func (c *Controller[T]) reset() {
	var zero T
	c.state = StateClosed
	c.epoch++
	c.mode = ""
	c.recordID = ""
	c.draft = zero
	c.original = nil
	c.cancel = nil
}

// Snapshot captures the controller for persistence
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot[T]{
		State:    c.state,
		Mode:     c.mode,
		RecordID: c.recordID,
		Draft:    c.entity.Clone(c.draft),
	}
	if c.original != nil {
		o := c.entity.Clone(*c.original)
		s.Original = &o
	}
	return s
}

// Restore reopens a closed controller from a snapshot. Transitional states
// restore as Open since no operation survives a restart.
func (c *Controller[T]) Restore(s Snapshot[T]) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		return ErrAlreadyOpen
	}
	if s.State == StateClosed {
		return ErrNotOpen
	}
	c.epoch++
	c.state = StateOpen
	c.mode = s.Mode
	c.recordID = s.RecordID
	c.draft = c.entity.Clone(s.Draft)
	c.original = nil
	if s.Original != nil {
		o := c.entity.Clone(*s.Original)
		c.original = &o
	}
	return nil
}
