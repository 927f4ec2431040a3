package domain

import (
	"time"
)

// RawRecord is a record as decoded from the upstream API, before normalization
type RawRecord map[string]any

// InquiryLineItem is one requested product on an inquiry
type InquiryLineItem struct {
	ProductName   string  `json:"productName"`
	Specification string  `json:"specification"`
	Quantity      float64 `json:"quantity" validate:"gte=0"`
	UnitPrice     float64 `json:"unitPrice" validate:"gte=0"`
}

// InquiryRecord is the canonical inquiry shape
type InquiryRecord struct {
	ID                  string              `json:"id"`
	InquiryNumber       string              `json:"inquiryNumber"`
	CustomerName        string              `json:"customerName" validate:"max=200"`
	CustomerPhone       string              `json:"customerPhone" validate:"max=50"`
	CustomerWhatsapp    string              `json:"customerWhatsapp" validate:"max=50"`
	CustomerEmail       string              `json:"customerEmail" validate:"omitempty,email"`
	Status              InquiryStatus       `json:"status"`
	SLAStatus           SLAStatus           `json:"slaStatus"`
	Source              InquirySource       `json:"source"`
	ProductRequested    *string             `json:"productRequested"`
	Quantity            *float64            `json:"quantity" validate:"omitempty,gte=0"`
	ExpectedPrice       *float64            `json:"expectedPrice" validate:"omitempty,gte=0"`
	AssignedSalesPerson *string             `json:"assignedSalesPerson"`
	InquiryDateTime     *time.Time          `json:"inquiryDateTime"`
	CreatedAt           *time.Time          `json:"createdAt"`
	LineItems           []InquiryLineItem   `json:"lineItems" validate:"dive"`
	TotalAmount         float64             `json:"totalAmount"`
	Interactions        []InteractionRecord `json:"interactions"`
}

// InteractionRecord is one customer touchpoint logged against an inquiry.
// InquiryID is a back-reference only.
type InteractionRecord struct {
	ID               string          `json:"id"`
	InquiryID        string          `json:"inquiryId"`
	Type             InteractionType `json:"type"`
	Outcome          string          `json:"outcome" validate:"max=200"`
	Summary          string          `json:"summary"`
	FollowUpRequired bool            `json:"followUpRequired"`
	FollowUpDateTime *time.Time      `json:"followUpDateTime"`
	FollowUpStatus   FollowUpStatus  `json:"followUpStatus"`
	CreatedAt        *time.Time      `json:"createdAt"`
}

// PurchaseOrderLineItem is one row of a purchase order. JK company orders
// are paper reams priced by quantity; other types carry a unit price.
type PurchaseOrderLineItem struct {
	ItemName      string   `json:"itemName"`
	Specification string   `json:"specification"`
	Quantity      float64  `json:"quantity" validate:"gte=0"`
	UnitPrice     float64  `json:"unitPrice" validate:"gte=0"`
	ReamWeight    *float64 `json:"reamWeight"`
	TareWeight    *float64 `json:"tareWeight"`
	NetWeight     string   `json:"netWeight"`
}

// PurchaseOrderRecord is the canonical purchase order shape
type PurchaseOrderRecord struct {
	ID           string                  `json:"id"`
	PONumber     string                  `json:"poNumber"`
	Type         PurchaseOrderType       `json:"type"`
	Status       PurchaseOrderStatus     `json:"status"`
	VendorName   string                  `json:"vendorName" validate:"max=200"`
	DeliveryType DeliveryType            `json:"deliveryType"`
	DeliveryDate *time.Time              `json:"deliveryDate"`
	Amount       float64                 `json:"amount"`
	LineItems    []PurchaseOrderLineItem `json:"lineItems" validate:"dive"`
	Details      map[string]any          `json:"details"`
	CreatedAt    *time.Time              `json:"createdAt"`
}

// UserRecord is the canonical user shape. JSON keys follow the upstream HR
// module, which uses snake_case.
type UserRecord struct {
	ID               string           `json:"id"`
	FirstName        string           `json:"first_name"`
	MiddleName       string           `json:"middle_name"`
	LastName         string           `json:"last_name"`
	FullName         string           `json:"full_name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	EmploymentStatus EmploymentStatus `json:"employment_status"`
	IsAdmin          bool             `json:"is_admin"`
	DepartmentID     string           `json:"department_id"`
	DepartmentName   string           `json:"department_name"`
	DesignationID    string           `json:"designation_id"`
	DesignationName  string           `json:"designation_name"`
	ManagerID        string           `json:"manager_id"`
	ManagerName      string           `json:"manager_name"`
	CreatedAt        *time.Time       `json:"created_at"`
}

// Clone returns a deep copy so a draft can be edited without touching r
func (r InquiryRecord) Clone() InquiryRecord {
	out := r
	out.ProductRequested = clonePtr(r.ProductRequested)
	out.Quantity = clonePtr(r.Quantity)
	out.ExpectedPrice = clonePtr(r.ExpectedPrice)
	out.AssignedSalesPerson = clonePtr(r.AssignedSalesPerson)
	out.InquiryDateTime = clonePtr(r.InquiryDateTime)
	out.CreatedAt = clonePtr(r.CreatedAt)
	if r.LineItems != nil {
		out.LineItems = append([]InquiryLineItem(nil), r.LineItems...)
	}
	if r.Interactions != nil {
		out.Interactions = make([]InteractionRecord, len(r.Interactions))
		for i, it := range r.Interactions {
			out.Interactions[i] = it.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the interaction
func (r InteractionRecord) Clone() InteractionRecord {
	out := r
	out.FollowUpDateTime = clonePtr(r.FollowUpDateTime)
	out.CreatedAt = clonePtr(r.CreatedAt)
	return out
}

// Clone returns a deep copy of the line item
func (i PurchaseOrderLineItem) Clone() PurchaseOrderLineItem {
	out := i
	out.ReamWeight = clonePtr(i.ReamWeight)
	out.TareWeight = clonePtr(i.TareWeight)
	return out
}

// Clone returns a deep copy including the free-form details object
func (r PurchaseOrderRecord) Clone() PurchaseOrderRecord {
	out := r
	out.DeliveryDate = clonePtr(r.DeliveryDate)
	out.CreatedAt = clonePtr(r.CreatedAt)
	if r.LineItems != nil {
		out.LineItems = make([]PurchaseOrderLineItem, len(r.LineItems))
		for i, it := range r.LineItems {
			out.LineItems[i] = it.Clone()
		}
	}
	out.Details = CloneMap(r.Details)
	return out
}

// Clone returns a copy of the user
func (r UserRecord) Clone() UserRecord {
	out := r
	out.CreatedAt = clonePtr(r.CreatedAt)
	return out
}

// CloneMap deep-copies nested maps and slices as produced by encoding/json
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case RawRecord:
		return RawRecord(CloneMap(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// InquiryDisplayDate is the date used for date-range filtering
func (r InquiryRecord) InquiryDisplayDate() *time.Time {
	if r.InquiryDateTime != nil {
		return r.InquiryDateTime
	}
	return r.CreatedAt
}

// HasContact reports whether at least one way to reach the customer is set
func (r InquiryRecord) HasContact() bool {
	return r.CustomerName != "" || r.CustomerPhone != "" || r.CustomerEmail != ""
}
