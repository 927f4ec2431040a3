package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/straye-as/erp-desk/internal/calc"
	"github.com/straye-as/erp-desk/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so errors line up with the payload
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// structErrors runs the struct tag rules and collects failures into verr
func structErrors(v any, verr *domain.ValidationError) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		verr.Add("_", err.Error())
		return
	}
	for _, fe := range ve {
		// Namespace is "InquiryRecord.lineItems[0].quantity"; drop the type
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		verr.Add(field, domain.GetValidationMessage(fe.Tag()))
	}
}

// payload encodes v as a JSON object, drops the listed keys and turns empty
// top-level strings into null
func payload(v any, drop ...string) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	for _, k := range drop {
		delete(out, k)
	}
	for k, val := range out {
		if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
			out[k] = nil
		}
	}
	return out
}

// ============================================================================
// Inquiry
// ============================================================================

// ValidateInquiry checks the contact invariant, the enumerated fields and
// field formats
func ValidateInquiry(draft domain.InquiryRecord, _ *domain.InquiryRecord, _ Mode) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if !draft.HasContact() {
		verr.Add("customerName", "At least one of customer name, phone or email is required")
	}
	if draft.Status != "" && !draft.Status.IsValid() {
		verr.Add("status", domain.GetValidationMessage("oneof"))
	}
	if draft.SLAStatus != "" && !draft.SLAStatus.IsValid() {
		verr.Add("slaStatus", domain.GetValidationMessage("oneof"))
	}
	if draft.Source != "" && !draft.Source.IsValid() {
		verr.Add("source", domain.GetValidationMessage("oneof"))
	}
	structErrors(draft, verr)
	if !verr.HasErrors() {
		return nil
	}
	return verr
}

// InquiryPayload builds the upstream body. Interactions are managed through
// their own endpoints and the id travels in the URL.
func InquiryPayload(draft domain.InquiryRecord) map[string]any {
	if len(draft.LineItems) > 0 {
		draft.TotalAmount = calc.InquiryTotal(draft.LineItems)
	}
	return payload(draft, "id", "interactions", "createdAt")
}

// Inquiry is the form entity of inquiry dialogs
var Inquiry = Entity[domain.InquiryRecord]{
	Name:     domain.EntityInquiry,
	Clone:    domain.InquiryRecord.Clone,
	ID:       func(r domain.InquiryRecord) string { return r.ID },
	Validate: ValidateInquiry,
	Payload:  InquiryPayload,
	Fixed:    []string{"id", "interactions"},
}

// ============================================================================
// Interaction
// ============================================================================

// ValidateInteraction requires a summary, a known type and a follow-up time
// when a follow-up is requested
func ValidateInteraction(draft domain.InteractionRecord, _ *domain.InteractionRecord, _ Mode) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(draft.Summary) == "" {
		verr.Add("summary", domain.GetValidationMessage("required"))
	}
	if !draft.Type.IsValid() {
		verr.Add("type", domain.GetValidationMessage("oneof"))
	}
	if draft.FollowUpRequired && draft.FollowUpDateTime == nil {
		verr.Add("followUpDateTime", "Required when a follow-up is requested")
	}
	if draft.FollowUpStatus != "" && !draft.FollowUpStatus.IsValid() {
		verr.Add("followUpStatus", domain.GetValidationMessage("oneof"))
	}
	structErrors(draft, verr)
	if !verr.HasErrors() {
		return nil
	}
	return verr
}

// InteractionPayload builds the upstream body of a new interaction
func InteractionPayload(draft domain.InteractionRecord) map[string]any {
	if !draft.FollowUpRequired {
		draft.FollowUpDateTime = nil
	}
	return payload(draft, "id", "createdAt")
}

// Interaction is the form entity of the add-interaction dialog
var Interaction = Entity[domain.InteractionRecord]{
	Name:     domain.EntityInteraction,
	Clone:    domain.InteractionRecord.Clone,
	ID:       func(r domain.InteractionRecord) string { return r.ID },
	Validate: ValidateInteraction,
	Payload:  InteractionPayload,
}

// ============================================================================
// Purchase order
// ============================================================================

// ValidatePurchaseOrder requires a vendor, keeps JK company orders typed as
// such and rejects line items whose tare exceeds the ream weight
func ValidatePurchaseOrder(draft domain.PurchaseOrderRecord, original *domain.PurchaseOrderRecord, mode Mode) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(draft.VendorName) == "" {
		verr.Add("vendorName", domain.GetValidationMessage("required"))
	}
	if !draft.Type.IsValid() {
		verr.Add("type", domain.GetValidationMessage("oneof"))
	}
	if mode == ModeEdit && original != nil &&
		original.Type == domain.POTypeJKCompany && draft.Type != original.Type {
		verr.Add("type", "The type of a JK company order cannot be changed")
	}
	if draft.Status != "" && !draft.Status.IsValid() {
		verr.Add("status", domain.GetValidationMessage("oneof"))
	}
	if draft.DeliveryType != "" && !draft.DeliveryType.IsValid() {
		verr.Add("deliveryType", domain.GetValidationMessage("oneof"))
	}
	for i, item := range draft.LineItems {
		if _, _, err := calc.LineNetWeight(item); errors.Is(err, calc.ErrNegativeNetWeight) {
			verr.Add(fmt.Sprintf("lineItems[%d].netWeight", i), "Tare weight exceeds ream weight")
		}
	}
	structErrors(draft, verr)
	if !verr.HasErrors() {
		return nil
	}
	return verr
}

// PurchaseOrderPayload builds the upstream body with amount and net weights
// recomputed from the line items
func PurchaseOrderPayload(draft domain.PurchaseOrderRecord) map[string]any {
	draft.Amount = calc.PurchaseOrderAmount(draft.Type, draft.LineItems, draft.Amount)
	items := make([]domain.PurchaseOrderLineItem, len(draft.LineItems))
	for i, item := range draft.LineItems {
		if net, ok, err := calc.LineNetWeight(item); ok && err == nil {
			item.NetWeight = net
		}
		items[i] = item
	}
	if draft.LineItems != nil {
		draft.LineItems = items
	}
	return payload(draft, "id", "createdAt")
}

// PurchaseOrder is the form entity of purchase order dialogs
var PurchaseOrder = Entity[domain.PurchaseOrderRecord]{
	Name:     domain.EntityPurchaseOrder,
	Clone:    domain.PurchaseOrderRecord.Clone,
	ID:       func(r domain.PurchaseOrderRecord) string { return r.ID },
	Validate: ValidatePurchaseOrder,
	Payload:  PurchaseOrderPayload,
	Fixed:    []string{"id"},
}
