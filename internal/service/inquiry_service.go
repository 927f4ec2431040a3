package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/straye-as/erp-desk/internal/calc"
	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/filter"
	"github.com/straye-as/erp-desk/internal/form"
	"github.com/straye-as/erp-desk/internal/normalize"
	"go.uber.org/zap"
)

// InquiryService handles the inquiry list, detail and interaction views
type InquiryService struct {
	client      ERPClient
	collections *Collections
	normalizer  *normalize.Normalizer
	detail      *normalize.Normalizer
	logger      *zap.Logger
}

// NewInquiryService creates a new InquiryService. The detail normalizer
// serves the detail and interaction views; nil falls back to normalizer.
func NewInquiryService(
	client ERPClient,
	collections *Collections,
	normalizer *normalize.Normalizer,
	detail *normalize.Normalizer,
	logger *zap.Logger,
) *InquiryService {
	if detail == nil {
		detail = normalizer
	}
	return &InquiryService{
		client:      client,
		collections: collections,
		normalizer:  normalizer,
		detail:      detail,
		logger:      logger,
	}
}

func inquiryCounts(records []domain.InquiryRecord) domain.StatusCounts {
	return calc.CountBy(records, func(r domain.InquiryRecord) string { return string(r.Status) },
		domain.Strings(domain.InquiryStatuses))
}

// List returns a filtered page of the session's inquiries with status and tab counts
func (s *InquiryService) List(ctx context.Context, q url.Values) (*domain.ListResponse, error) {
	records, err := s.collections.inquiries.load(ctx, wantsRefresh(q))
	if err != nil {
		return nil, err
	}
	return buildList(records, filter.InquirySchema, q, inquiryCounts(records))
}

// Filtered returns every inquiry matching the query, unpaged
func (s *InquiryService) Filtered(ctx context.Context, q url.Values) ([]domain.InquiryRecord, error) {
	records, err := s.collections.inquiries.load(ctx, wantsRefresh(q))
	if err != nil {
		return nil, err
	}
	filtered, _, err := filterRecords(records, filter.InquirySchema, q)
	return filtered, err
}

// Get returns one inquiry with its interactions
func (s *InquiryService) Get(ctx context.Context, id string) (*domain.InquiryRecord, error) {
	raw, err := s.client.GetByID(ctx, domain.EntityInquiry, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get inquiry: %w", err)
	}
	inquiry := s.detail.Inquiry(raw)
	if inquiry.ID == "" {
		inquiry.ID = id
	}

	interactions, err := s.ListInteractions(ctx, inquiry.ID)
	switch {
	case err == nil:
		inquiry.Interactions = interactions
	case errors.Is(err, domain.ErrNotFound):
	default:
		// The detail view still renders with embedded interactions
		s.logger.Warn("failed to load interactions",
			zap.String("inquiry_id", inquiry.ID),
			zap.Error(err),
		)
	}
	return &inquiry, nil
}

// Load fetches the committed inquiry for an edit dialog
func (s *InquiryService) Load(ctx context.Context, id string) (domain.InquiryRecord, error) {
	raw, err := s.client.GetByID(ctx, domain.EntityInquiry, id)
	if err != nil {
		return domain.InquiryRecord{}, fmt.Errorf("failed to load inquiry: %w", err)
	}
	rec := s.normalizer.Inquiry(raw)
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// Delete removes an inquiry upstream and drops the session snapshot
func (s *InquiryService) Delete(ctx context.Context, id string) error {
	if err := s.client.Remove(ctx, domain.EntityInquiry, id); err != nil {
		return fmt.Errorf("failed to delete inquiry: %w", err)
	}
	s.collections.Invalidate(ctx, domain.EntityInquiry)
	s.logger.Info("inquiry deleted", zap.String("inquiry_id", id))
	return nil
}

// ListInteractions returns the interactions of an inquiry in upstream order
func (s *InquiryService) ListInteractions(ctx context.Context, inquiryID string) ([]domain.InteractionRecord, error) {
	raws, err := s.client.ListInteractions(ctx, inquiryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	out := s.detail.Interactions(raws)
	for i := range out {
		if out[i].InquiryID == "" {
			out[i].InquiryID = inquiryID
		}
	}
	return out, nil
}

// AddInteraction validates and logs a new interaction against an inquiry
func (s *InquiryService) AddInteraction(ctx context.Context, inquiryID string, req *domain.CreateInteractionRequest) (*domain.InteractionRecord, error) {
	draft := domain.InteractionRecord{
		InquiryID:        inquiryID,
		Type:             domain.ParseInteractionType(req.Type),
		Outcome:          req.Outcome,
		Summary:          req.Summary,
		FollowUpRequired: req.FollowUpRequired,
		FollowUpDateTime: req.FollowUpDateTime,
	}
	if req.FollowUpStatus != "" {
		draft.FollowUpStatus = domain.ParseFollowUpStatus(req.FollowUpStatus)
	} else if draft.FollowUpRequired {
		draft.FollowUpStatus = domain.FollowUpPending
	}

	if verr := form.ValidateInteraction(draft, nil, form.ModeCreate); verr.HasErrors() {
		return nil, verr
	}

	raw, err := s.client.AddInteraction(ctx, inquiryID, form.InteractionPayload(draft))
	if err != nil {
		return nil, fmt.Errorf("failed to add interaction: %w", err)
	}
	created := s.detail.Interaction(raw)
	if created.InquiryID == "" {
		created.InquiryID = inquiryID
	}
	s.collections.Invalidate(ctx, domain.EntityInquiry)

	s.logger.Info("interaction added",
		zap.String("inquiry_id", inquiryID),
		zap.String("interaction_id", created.ID),
		zap.String("type", string(created.Type)),
	)
	return &created, nil
}

// DeleteInteraction removes an interaction by its own id
func (s *InquiryService) DeleteInteraction(ctx context.Context, interactionID string) error {
	if err := s.client.DeleteInteraction(ctx, interactionID); err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}
	s.collections.Invalidate(ctx, domain.EntityInquiry)
	return nil
}
