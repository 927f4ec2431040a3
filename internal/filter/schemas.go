package filter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/straye-as/erp-desk/internal/domain"
)

func statusIn[T any, S ~string](get func(T) S, set ...S) func(T) bool {
	return func(r T) bool {
		v := get(r)
		for _, s := range set {
			if v == s {
				return true
			}
		}
		return false
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func inquiryStatus(r domain.InquiryRecord) domain.InquiryStatus { return r.Status }

// InquirySchema is the filter schema of the inquiry list
var InquirySchema = Schema[domain.InquiryRecord]{
	Text: map[string]func(domain.InquiryRecord) string{
		"inquiryNumber":       func(r domain.InquiryRecord) string { return r.InquiryNumber },
		"customerName":        func(r domain.InquiryRecord) string { return r.CustomerName },
		"customerPhone":       func(r domain.InquiryRecord) string { return r.CustomerPhone },
		"customerWhatsapp":    func(r domain.InquiryRecord) string { return r.CustomerWhatsapp },
		"customerEmail":       func(r domain.InquiryRecord) string { return r.CustomerEmail },
		"productRequested":    func(r domain.InquiryRecord) string { return deref(r.ProductRequested) },
		"assignedSalesPerson": func(r domain.InquiryRecord) string { return deref(r.AssignedSalesPerson) },
	},
	Enum: map[string]EnumField[domain.InquiryRecord]{
		"status": {
			Value:     func(r domain.InquiryRecord) string { return string(r.Status) },
			Canonical: func(s string) string { return string(domain.ParseInquiryStatus(s)) },
		},
		"slaStatus": {
			Value:     func(r domain.InquiryRecord) string { return string(r.SLAStatus) },
			Canonical: func(s string) string { return string(domain.ParseSLAStatus(s)) },
		},
		"source": {
			Value:     func(r domain.InquiryRecord) string { return string(r.Source) },
			Canonical: func(s string) string { return string(domain.ParseInquirySource(s)) },
		},
	},
	Date:   domain.InquiryRecord.InquiryDisplayDate,
	Search: []string{"inquiryNumber", "customerName", "customerPhone", "customerWhatsapp", "customerEmail", "productRequested"},
	Tabs: map[string]func(domain.InquiryRecord) bool{
		"pending":     statusIn(inquiryStatus, domain.InquiryStatusNew, domain.InquiryStatusParsed),
		"in_progress": statusIn(inquiryStatus, domain.InquiryStatusPISent, domain.InquiryStatusFollowUp),
		"success":     statusIn(inquiryStatus, domain.InquiryStatusConverted),
		"rejected":    statusIn(inquiryStatus, domain.InquiryStatusRejected),
	},
}

func poStatus(r domain.PurchaseOrderRecord) domain.PurchaseOrderStatus { return r.Status }

// PurchaseOrderSchema is the filter schema of the purchase order list. The
// date range applies to the delivery date, falling back to creation.
var PurchaseOrderSchema = Schema[domain.PurchaseOrderRecord]{
	Text: map[string]func(domain.PurchaseOrderRecord) string{
		"poNumber":   func(r domain.PurchaseOrderRecord) string { return r.PONumber },
		"vendorName": func(r domain.PurchaseOrderRecord) string { return r.VendorName },
	},
	Enum: map[string]EnumField[domain.PurchaseOrderRecord]{
		"status": {
			Value:     func(r domain.PurchaseOrderRecord) string { return string(r.Status) },
			Canonical: func(s string) string { return string(domain.ParsePurchaseOrderStatus(s)) },
		},
		"type": {
			Value:     func(r domain.PurchaseOrderRecord) string { return string(r.Type) },
			Canonical: func(s string) string { return string(domain.ParsePurchaseOrderType(s)) },
		},
		"deliveryType": {
			Value:     func(r domain.PurchaseOrderRecord) string { return string(r.DeliveryType) },
			Canonical: func(s string) string { return string(domain.ParseDeliveryType(s)) },
		},
	},
	Date: func(r domain.PurchaseOrderRecord) *time.Time {
		if r.DeliveryDate != nil {
			return r.DeliveryDate
		}
		return r.CreatedAt
	},
	Search: []string{"poNumber", "vendorName"},
	Tabs: map[string]func(domain.PurchaseOrderRecord) bool{
		"pending":    statusIn(poStatus, domain.POStatusNew, domain.POStatusPending),
		"approved":   statusIn(poStatus, domain.POStatusApproved),
		"in_transit": statusIn(poStatus, domain.POStatusInTransit),
		"completed":  statusIn(poStatus, domain.POStatusCompleted),
		"cancelled":  statusIn(poStatus, domain.POStatusCancelled),
	},
}

func employment(r domain.UserRecord) domain.EmploymentStatus { return r.EmploymentStatus }

// UserSchema is the filter schema of the user list
var UserSchema = Schema[domain.UserRecord]{
	Text: map[string]func(domain.UserRecord) string{
		"full_name":   func(r domain.UserRecord) string { return r.FullName },
		"email":       func(r domain.UserRecord) string { return r.Email },
		"phone":       func(r domain.UserRecord) string { return r.Phone },
		"department":  func(r domain.UserRecord) string { return r.DepartmentName },
		"designation": func(r domain.UserRecord) string { return r.DesignationName },
		"manager":     func(r domain.UserRecord) string { return r.ManagerName },
	},
	Enum: map[string]EnumField[domain.UserRecord]{
		"employment_status": {
			Value:     func(r domain.UserRecord) string { return string(r.EmploymentStatus) },
			Canonical: func(s string) string { return string(domain.ParseEmploymentStatus(s)) },
		},
	},
	Date:   func(r domain.UserRecord) *time.Time { return r.CreatedAt },
	Search: []string{"full_name", "email", "phone", "department", "designation"},
	Tabs: map[string]func(domain.UserRecord) bool{
		"active":    statusIn(employment, domain.EmploymentActive),
		"on_leave":  statusIn(employment, domain.EmploymentOnLeave),
		"probation": statusIn(employment, domain.EmploymentProbation),
		"inactive":  statusIn(employment, domain.EmploymentInactive),
		"admins":    func(r domain.UserRecord) bool { return r.IsAdmin },
	},
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps and bare dates, interpreted in UTC
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseQuery builds a State from query parameters using the schema's field
// names. Unrelated parameters such as page are ignored.
func ParseQuery[T any](schema Schema[T], q url.Values) (State, error) {
	state := State{
		Text:   make(map[string]string),
		Enum:   make(map[string]string),
		Search: strings.TrimSpace(q.Get("search")),
		Tab:    strings.TrimSpace(q.Get("tab")),
	}
	for field := range schema.Text {
		if v := strings.TrimSpace(q.Get(field)); v != "" {
			state.Text[field] = v
		}
	}
	for field := range schema.Enum {
		if v := strings.TrimSpace(q.Get(field)); v != "" {
			state.Enum[field] = v
		}
	}

	verr := &domain.ValidationError{}
	if v := strings.TrimSpace(q.Get("dateFrom")); v != "" {
		if t, err := ParseDate(v); err != nil {
			verr.Add("dateFrom", err.Error())
		} else {
			state.DateFrom = &t
		}
	}
	if v := strings.TrimSpace(q.Get("dateTo")); v != "" {
		if t, err := ParseDate(v); err != nil {
			verr.Add("dateTo", err.Error())
		} else {
			state.DateTo = &t
		}
	}
	if state.Tab != "" && state.Tab != TabAll {
		if _, ok := schema.Tabs[state.Tab]; !ok {
			verr.Add("tab", ErrUnknownTab.Error())
		}
	}
	if verr.HasErrors() {
		return State{}, verr
	}
	return state, nil
}
