package domain

import "strings"

// StatusInfo is the display metadata for an enumerated value
type StatusInfo struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// EntityType identifies a record collection on the upstream API
type EntityType string

const (
	EntityInquiry       EntityType = "inquiries"
	EntityPurchaseOrder EntityType = "purchase-orders"
	EntityUser          EntityType = "users"
	EntityInteraction   EntityType = "interactions"
)

// IsValid checks if the EntityType is a known collection
func (e EntityType) IsValid() bool {
	switch e {
	case EntityInquiry, EntityPurchaseOrder, EntityUser, EntityInteraction:
		return true
	}
	return false
}

// canonicalKey lowercases and folds separators so "PI Sent", "pi-sent"
// and "PI_SENT" all resolve to "pi_sent".
func canonicalKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

func lookupInfo(table map[string]StatusInfo, value string) StatusInfo {
	if info, ok := table[canonicalKey(value)]; ok {
		return info
	}
	return StatusInfo{Value: value, Label: value, Color: "default"}
}

// ============================================================================
// Inquiry
// ============================================================================

// InquiryStatus represents the lifecycle status of an inquiry
type InquiryStatus string

const (
	InquiryStatusNew       InquiryStatus = "new"
	InquiryStatusParsed    InquiryStatus = "parsed"
	InquiryStatusPISent    InquiryStatus = "pi_sent"
	InquiryStatusFollowUp  InquiryStatus = "follow_up"
	InquiryStatusConverted InquiryStatus = "converted"
	InquiryStatusRejected  InquiryStatus = "rejected"
)

// InquiryStatuses lists every known inquiry status in display order
var InquiryStatuses = []InquiryStatus{
	InquiryStatusNew, InquiryStatusParsed, InquiryStatusPISent,
	InquiryStatusFollowUp, InquiryStatusConverted, InquiryStatusRejected,
}

var inquiryStatusInfo = map[string]StatusInfo{
	"new":       {Value: "new", Label: "New", Color: "blue"},
	"parsed":    {Value: "parsed", Label: "Parsed", Color: "cyan"},
	"pi_sent":   {Value: "pi_sent", Label: "PI Sent", Color: "purple"},
	"follow_up": {Value: "follow_up", Label: "Follow Up", Color: "orange"},
	"converted": {Value: "converted", Label: "Converted", Color: "green"},
	"rejected":  {Value: "rejected", Label: "Rejected", Color: "red"},
}

// ParseInquiryStatus returns the canonical form of s. Unknown values are
// returned folded but otherwise unchanged.
func ParseInquiryStatus(s string) InquiryStatus {
	return InquiryStatus(canonicalKey(s))
}

// IsValid checks if the InquiryStatus is a valid enum value
func (s InquiryStatus) IsValid() bool {
	_, ok := inquiryStatusInfo[string(s)]
	return ok
}

// InquiryStatusInfo returns display metadata, matching case-insensitively
func InquiryStatusInfo(s string) StatusInfo {
	return lookupInfo(inquiryStatusInfo, s)
}

// SLAStatus tracks response timeliness of an inquiry
type SLAStatus string

const (
	SLAStatusPending  SLAStatus = "pending"
	SLAStatusOnTrack  SLAStatus = "on_track"
	SLAStatusAtRisk   SLAStatus = "at_risk"
	SLAStatusBreached SLAStatus = "breached"
)

var SLAStatuses = []SLAStatus{SLAStatusPending, SLAStatusOnTrack, SLAStatusAtRisk, SLAStatusBreached}

var slaStatusInfo = map[string]StatusInfo{
	"pending":  {Value: "pending", Label: "Pending", Color: "default"},
	"on_track": {Value: "on_track", Label: "On Track", Color: "green"},
	"at_risk":  {Value: "at_risk", Label: "At Risk", Color: "orange"},
	"breached": {Value: "breached", Label: "Breached", Color: "red"},
}

func ParseSLAStatus(s string) SLAStatus { return SLAStatus(canonicalKey(s)) }

func (s SLAStatus) IsValid() bool {
	_, ok := slaStatusInfo[string(s)]
	return ok
}

func SLAStatusInfo(s string) StatusInfo { return lookupInfo(slaStatusInfo, s) }

// InquirySource is the channel an inquiry arrived through
type InquirySource string

const (
	SourceWhatsApp InquirySource = "whatsapp"
	SourceEmail    InquirySource = "email"
	SourcePhone    InquirySource = "phone"
	SourcePortal   InquirySource = "portal"
	SourceWalkIn   InquirySource = "walk_in"
)

var InquirySources = []InquirySource{SourceWhatsApp, SourceEmail, SourcePhone, SourcePortal, SourceWalkIn}

var sourceInfo = map[string]StatusInfo{
	"whatsapp": {Value: "whatsapp", Label: "WhatsApp", Color: "green"},
	"email":    {Value: "email", Label: "Email", Color: "blue"},
	"phone":    {Value: "phone", Label: "Phone", Color: "purple"},
	"portal":   {Value: "portal", Label: "Portal", Color: "cyan"},
	"walk_in":  {Value: "walk_in", Label: "Walk-in", Color: "gold"},
}

func ParseInquirySource(s string) InquirySource { return InquirySource(canonicalKey(s)) }

func (s InquirySource) IsValid() bool {
	_, ok := sourceInfo[string(s)]
	return ok
}

func InquirySourceInfo(s string) StatusInfo { return lookupInfo(sourceInfo, s) }

// ============================================================================
// Interaction
// ============================================================================

// InteractionType is stored uppercase, unlike the other enums
type InteractionType string

const (
	InteractionCall     InteractionType = "CALL"
	InteractionEmail    InteractionType = "EMAIL"
	InteractionWhatsApp InteractionType = "WHATSAPP"
	InteractionMeeting  InteractionType = "MEETING"
	InteractionVisit    InteractionType = "VISIT"
)

var InteractionTypes = []InteractionType{
	InteractionCall, InteractionEmail, InteractionWhatsApp, InteractionMeeting, InteractionVisit,
}

func ParseInteractionType(s string) InteractionType {
	return InteractionType(strings.ToUpper(canonicalKey(s)))
}

func (t InteractionType) IsValid() bool {
	switch t {
	case InteractionCall, InteractionEmail, InteractionWhatsApp, InteractionMeeting, InteractionVisit:
		return true
	}
	return false
}

// FollowUpStatus tracks the follow-up attached to an interaction
type FollowUpStatus string

const (
	FollowUpPending   FollowUpStatus = "pending"
	FollowUpScheduled FollowUpStatus = "scheduled"
	FollowUpCompleted FollowUpStatus = "completed"
)

func ParseFollowUpStatus(s string) FollowUpStatus { return FollowUpStatus(canonicalKey(s)) }

func (s FollowUpStatus) IsValid() bool {
	switch s {
	case FollowUpPending, FollowUpScheduled, FollowUpCompleted:
		return true
	}
	return false
}

// InteractionOutcomes is the suggestion set offered for the outcome field.
// Outcome stays free text.
var InteractionOutcomes = []string{
	"Interested",
	"Not Interested",
	"Callback Requested",
	"Quotation Requested",
	"Negotiating",
	"Order Confirmed",
	"No Response",
}

// ============================================================================
// Purchase order
// ============================================================================

// PurchaseOrderType selects the line-item shape and pricing rule
type PurchaseOrderType string

const (
	POTypeJKCompany PurchaseOrderType = "jk_company"
	POTypeOthers    PurchaseOrderType = "others"
	POTypeImports   PurchaseOrderType = "imports"
)

var PurchaseOrderTypes = []PurchaseOrderType{POTypeJKCompany, POTypeOthers, POTypeImports}

func ParsePurchaseOrderType(s string) PurchaseOrderType {
	return PurchaseOrderType(canonicalKey(s))
}

func (t PurchaseOrderType) IsValid() bool {
	switch t {
	case POTypeJKCompany, POTypeOthers, POTypeImports:
		return true
	}
	return false
}

// PurchaseOrderStatus represents the lifecycle status of a purchase order
type PurchaseOrderStatus string

const (
	POStatusNew       PurchaseOrderStatus = "new"
	POStatusPending   PurchaseOrderStatus = "pending"
	POStatusApproved  PurchaseOrderStatus = "approved"
	POStatusInTransit PurchaseOrderStatus = "in_transit"
	POStatusCompleted PurchaseOrderStatus = "completed"
	POStatusCancelled PurchaseOrderStatus = "cancelled"
)

var PurchaseOrderStatuses = []PurchaseOrderStatus{
	POStatusNew, POStatusPending, POStatusApproved, POStatusInTransit, POStatusCompleted, POStatusCancelled,
}

var poStatusInfo = map[string]StatusInfo{
	"new":        {Value: "new", Label: "New", Color: "blue"},
	"pending":    {Value: "pending", Label: "Pending", Color: "gold"},
	"approved":   {Value: "approved", Label: "Approved", Color: "cyan"},
	"in_transit": {Value: "in_transit", Label: "In Transit", Color: "purple"},
	"completed":  {Value: "completed", Label: "Completed", Color: "green"},
	"cancelled":  {Value: "cancelled", Label: "Cancelled", Color: "red"},
}

func ParsePurchaseOrderStatus(s string) PurchaseOrderStatus {
	key := canonicalKey(s)
	if key == "canceled" {
		key = "cancelled"
	}
	return PurchaseOrderStatus(key)
}

func (s PurchaseOrderStatus) IsValid() bool {
	_, ok := poStatusInfo[string(s)]
	return ok
}

func PurchaseOrderStatusInfo(s string) StatusInfo { return lookupInfo(poStatusInfo, s) }

// DeliveryType says where the goods are delivered
type DeliveryType string

const (
	DeliveryWarehouse        DeliveryType = "warehouse"
	DeliveryDirectToCustomer DeliveryType = "direct_to_customer"
)

func ParseDeliveryType(s string) DeliveryType { return DeliveryType(canonicalKey(s)) }

func (d DeliveryType) IsValid() bool {
	return d == DeliveryWarehouse || d == DeliveryDirectToCustomer
}

// ============================================================================
// User
// ============================================================================

// EmploymentStatus keeps the space in "on leave" as its canonical form
type EmploymentStatus string

const (
	EmploymentActive    EmploymentStatus = "active"
	EmploymentOnLeave   EmploymentStatus = "on leave"
	EmploymentProbation EmploymentStatus = "probation"
	EmploymentInactive  EmploymentStatus = "inactive"
)

var EmploymentStatuses = []EmploymentStatus{
	EmploymentActive, EmploymentOnLeave, EmploymentProbation, EmploymentInactive,
}

var employmentStatusInfo = map[string]StatusInfo{
	"active":    {Value: "active", Label: "Active", Color: "green"},
	"on_leave":  {Value: "on leave", Label: "On Leave", Color: "orange"},
	"probation": {Value: "probation", Label: "Probation", Color: "gold"},
	"inactive":  {Value: "inactive", Label: "Inactive", Color: "red"},
}

func ParseEmploymentStatus(s string) EmploymentStatus {
	key := canonicalKey(s)
	if key == "on_leave" {
		return EmploymentOnLeave
	}
	return EmploymentStatus(key)
}

func (s EmploymentStatus) IsValid() bool {
	switch s {
	case EmploymentActive, EmploymentOnLeave, EmploymentProbation, EmploymentInactive:
		return true
	}
	return false
}

func EmploymentStatusInfo(s string) StatusInfo { return lookupInfo(employmentStatusInfo, s) }

// Strings converts a typed enum list into plain strings
func Strings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
