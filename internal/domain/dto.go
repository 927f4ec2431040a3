package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaginatedResponse wraps a page of records
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// StatusCounts maps each known status to its count. Total also includes
// records whose status is unknown.
type StatusCounts struct {
	ByKey map[string]int `json:"byKey"`
	Total int            `json:"total"`
}

// ListResponse is a filtered page plus counts over the whole collection
type ListResponse struct {
	PaginatedResponse
	Counts StatusCounts `json:"counts"`
	// TabCounts counts the records in each tab after all other filters
	TabCounts map[string]int `json:"tabCounts"`
}

// ErrorResponse is the documented error body
type ErrorResponse = APIError

// CreateInteractionRequest is the body for adding an interaction
type CreateInteractionRequest struct {
	Type             string     `json:"type" validate:"required"`
	Outcome          string     `json:"outcome" validate:"max=200"`
	Summary          string     `json:"summary" validate:"required,max=4000"`
	FollowUpRequired bool       `json:"followUpRequired"`
	FollowUpDateTime *time.Time `json:"followUpDateTime"`
	FollowUpStatus   string     `json:"followUpStatus"`
}

// FieldChange replaces one draft field. When Index or ID is set, Field names a
// list field and Value replaces the element at that position or with that ID.
type FieldChange struct {
	Field string          `json:"field" validate:"required"`
	Value json.RawMessage `json:"value"`
	Index *int            `json:"index,omitempty" validate:"omitempty,gte=0"`
	ID    string          `json:"id,omitempty"`
}

// PatchDraftRequest applies field changes in order
type PatchDraftRequest struct {
	Changes []FieldChange `json:"changes" validate:"required,min=1,dive"`
}

// OpenDraftRequest optionally seeds a create dialog
type OpenDraftRequest struct {
	Initial json.RawMessage `json:"initial,omitempty"`
}

// DraftDTO is the API view of an open dialog
type DraftDTO struct {
	ID        uuid.UUID  `json:"id"`
	Entity    EntityType `json:"entity"`
	Mode      string     `json:"mode"`
	State     string     `json:"state"`
	RecordID  string     `json:"recordId,omitempty"`
	Draft     any        `json:"draft"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// SubmitDraftResponse carries the committed record
type SubmitDraftResponse struct {
	Record any `json:"record"`
	// Refresh tells the list view to reload its collection
	Refresh bool `json:"refresh"`
}

// DashboardSummary aggregates counts across the session's collections
type DashboardSummary struct {
	Inquiries           StatusCounts `json:"inquiries"`
	InquirySources      StatusCounts `json:"inquirySources"`
	SLA                 StatusCounts `json:"sla"`
	PurchaseOrders      StatusCounts `json:"purchaseOrders"`
	PurchaseOrderTypes  StatusCounts `json:"purchaseOrderTypes"`
	PurchaseOrderAmount float64      `json:"purchaseOrderAmount"`
	Users               StatusCounts `json:"users"`
}

// EnumsResponse exposes every canonical enum with display metadata
type EnumsResponse struct {
	InquiryStatuses       []StatusInfo `json:"inquiryStatuses"`
	SLAStatuses           []StatusInfo `json:"slaStatuses"`
	InquirySources        []StatusInfo `json:"inquirySources"`
	InteractionTypes      []string     `json:"interactionTypes"`
	InteractionOutcomes   []string     `json:"interactionOutcomes"`
	PurchaseOrderStatuses []StatusInfo `json:"purchaseOrderStatuses"`
	PurchaseOrderTypes    []string     `json:"purchaseOrderTypes"`
	EmploymentStatuses    []StatusInfo `json:"employmentStatuses"`
}

// Enums builds the EnumsResponse from the canonical tables
func Enums() EnumsResponse {
	infos := func(values []string, lookup func(string) StatusInfo) []StatusInfo {
		out := make([]StatusInfo, len(values))
		for i, v := range values {
			out[i] = lookup(v)
		}
		return out
	}
	return EnumsResponse{
		InquiryStatuses:       infos(Strings(InquiryStatuses), InquiryStatusInfo),
		SLAStatuses:           infos(Strings(SLAStatuses), SLAStatusInfo),
		InquirySources:        infos(Strings(InquirySources), InquirySourceInfo),
		InteractionTypes:      Strings(InteractionTypes),
		InteractionOutcomes:   InteractionOutcomes,
		PurchaseOrderStatuses: infos(Strings(PurchaseOrderStatuses), PurchaseOrderStatusInfo),
		PurchaseOrderTypes:    Strings(PurchaseOrderTypes),
		EmploymentStatuses:    infos(Strings(EmploymentStatuses), EmploymentStatusInfo),
	}
}
