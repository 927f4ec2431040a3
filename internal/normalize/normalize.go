// Package normalize maps raw upstream records onto canonical records.
//
// The upstream ERP has changed field names over time: newer endpoints use
// camelCase, older ones snake_case, and some still nest customer or vendor
// data in sub-objects. Every field is resolved in a fixed order: the
// canonical key, then legacy aliases, then nested fields, then a default.
// Normalization never fails; unusable values become null, empty or default.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/straye-as/erp-desk/internal/calc"
	"github.com/straye-as/erp-desk/internal/domain"
)

// Options adjusts call-site dependent defaults
type Options struct {
	// DefaultSLAStatus is used when an inquiry carries no SLA status
	DefaultSLAStatus domain.SLAStatus
}

// Normalizer converts raw records into canonical records
type Normalizer struct {
	opts Options
}

// New creates a Normalizer. A zero Options uses on_track as SLA default.
func New(opts Options) *Normalizer {
	if opts.DefaultSLAStatus == "" {
		opts.DefaultSLAStatus = domain.SLAStatusOnTrack
	}
	return &Normalizer{opts: opts}
}

// Default is the normalizer used by list views
var Default = New(Options{})

// Detail is the normalizer of the inquiry detail view and its interactions.
// An inquiry opened without an SLA status is still pending.
var Detail = New(Options{DefaultSLAStatus: domain.SLAStatusPending})

// ============================================================================
// Inquiries
// ============================================================================

// Inquiry normalizes a single inquiry
func (n *Normalizer) Inquiry(raw domain.RawRecord) domain.InquiryRecord {
	rec := domain.InquiryRecord{
		ID:               str(raw, "id", "_id", "inquiryId", "inquiry_id"),
		InquiryNumber:    str(raw, "inquiryNumber", "inquiry_number", "inquiryNo", "inquiry_no"),
		CustomerName:     str(raw, "customerName", "customer_name", "customer.name", "customer.full_name"),
		CustomerPhone:    str(raw, "customerPhone", "customer_phone", "phone", "customer.phone"),
		CustomerWhatsapp: str(raw, "customerWhatsapp", "customer_whatsapp", "whatsappNumber", "whatsapp_number", "customer.whatsapp"),
		CustomerEmail:    str(raw, "customerEmail", "customer_email", "email", "customer.email"),
		ProductRequested: optStr(raw, "productRequested", "product_requested", "product", "productName", "product_name"),
		Quantity:         num(raw, "quantity", "qty", "requested_quantity"),
		ExpectedPrice:    num(raw, "expectedPrice", "expected_price", "targetPrice", "target_price"),
		AssignedSalesPerson: optStr(raw, "assignedSalesPerson", "assigned_sales_person", "assignedTo", "assigned_to",
			"salesPerson.name", "sales_person.name"),
		CreatedAt: timestamp(raw, "createdAt", "created_at"),
	}

	if rec.CustomerName == "" {
		// Some older payloads carry the customer as a plain string
		rec.CustomerName = scalarString(raw, "customer")
	}

	rec.Status = domain.InquiryStatusNew
	if s := str(raw, "status", "inquiryStatus", "inquiry_status"); s != "" {
		rec.Status = domain.ParseInquiryStatus(s)
	}
	rec.SLAStatus = n.opts.DefaultSLAStatus
	if s := str(raw, "slaStatus", "sla_status", "sla.status"); s != "" {
		rec.SLAStatus = domain.ParseSLAStatus(s)
	}
	rec.Source = domain.SourceWhatsApp
	if s := str(raw, "source", "inquirySource", "inquiry_source", "channel"); s != "" {
		rec.Source = domain.ParseInquirySource(s)
	}

	rec.InquiryDateTime = timestamp(raw, "inquiryDateTime", "inquiry_date_time", "inquiryDate", "inquiry_date")
	if rec.InquiryDateTime == nil && rec.CreatedAt != nil {
		t := *rec.CreatedAt
		rec.InquiryDateTime = &t
	}

	if items, ok := list(raw, "lineItems", "line_items", "items", "products"); ok {
		rec.LineItems = make([]domain.InquiryLineItem, 0, len(items))
		for _, it := range items {
			m, ok := asMap(it)
			if !ok {
				continue
			}
			rec.LineItems = append(rec.LineItems, inquiryLineItem(m))
		}
	}
	if len(rec.LineItems) > 0 {
		rec.TotalAmount = calc.InquiryTotal(rec.LineItems)
	} else {
		rec.TotalAmount = numOr(raw, 0, "totalAmount", "total_amount", "total")
	}

	if interactions, ok := list(raw, "interactions", "inquiryInteractions", "inquiry_interactions"); ok {
		rec.Interactions = make([]domain.InteractionRecord, 0, len(interactions))
		for _, it := range interactions {
			m, ok := asMap(it)
			if !ok {
				continue
			}
			ir := n.Interaction(m)
			if ir.InquiryID == "" {
				ir.InquiryID = rec.ID
			}
			rec.Interactions = append(rec.Interactions, ir)
		}
	}

	return rec
}

func inquiryLineItem(m map[string]any) domain.InquiryLineItem {
	return domain.InquiryLineItem{
		ProductName:   str(m, "productName", "product_name", "name", "product"),
		Specification: str(m, "specification", "spec", "specs", "description"),
		Quantity:      numOr(m, 0, "quantity", "qty"),
		UnitPrice:     numOr(m, 0, "unitPrice", "unit_price", "price", "rate"),
	}
}

// Inquiries normalizes a collection, preserving order
func (n *Normalizer) Inquiries(raws []domain.RawRecord) []domain.InquiryRecord {
	out := make([]domain.InquiryRecord, len(raws))
	for i, r := range raws {
		out[i] = n.Inquiry(r)
	}
	return out
}

// Interaction normalizes a single interaction
func (n *Normalizer) Interaction(raw domain.RawRecord) domain.InteractionRecord {
	rec := domain.InteractionRecord{
		ID:               str(raw, "id", "_id", "interactionId", "interaction_id"),
		InquiryID:        str(raw, "inquiryId", "inquiry_id", "inquiry.id"),
		Outcome:          str(raw, "outcome", "result"),
		Summary:          str(raw, "summary", "notes", "description"),
		FollowUpDateTime: timestamp(raw, "followUpDateTime", "follow_up_date_time", "followUpDate", "follow_up_date"),
		CreatedAt:        timestamp(raw, "createdAt", "created_at", "interactionDate", "interaction_date"),
	}
	rec.FollowUpRequired, _ = boolean(raw, "followUpRequired", "follow_up_required", "followUp")

	rec.Type = domain.InteractionCall
	if s := str(raw, "type", "interactionType", "interaction_type"); s != "" {
		rec.Type = domain.ParseInteractionType(s)
	}
	rec.FollowUpStatus = domain.FollowUpPending
	if s := str(raw, "followUpStatus", "follow_up_status"); s != "" {
		rec.FollowUpStatus = domain.ParseFollowUpStatus(s)
	}
	return rec
}

// Interactions normalizes a collection, preserving order
func (n *Normalizer) Interactions(raws []domain.RawRecord) []domain.InteractionRecord {
	out := make([]domain.InteractionRecord, len(raws))
	for i, r := range raws {
		out[i] = n.Interaction(r)
	}
	return out
}

// ============================================================================
// Purchase orders
// ============================================================================

// PurchaseOrder normalizes a single purchase order
func (n *Normalizer) PurchaseOrder(raw domain.RawRecord) domain.PurchaseOrderRecord {
	rec := domain.PurchaseOrderRecord{
		ID:         str(raw, "id", "_id", "purchaseOrderId", "purchase_order_id"),
		PONumber:   str(raw, "poNumber", "po_number", "purchaseOrderNumber", "orderNumber", "order_number"),
		VendorName: str(raw, "vendorName", "vendor_name", "supplierName", "supplier_name", "vendor.name", "supplier.name"),
		DeliveryDate: timestamp(raw, "deliveryDate", "delivery_date", "details.deliveryDate", "details.delivery_date",
			"jkDetails.deliveryDate"),
		CreatedAt: timestamp(raw, "createdAt", "created_at", "orderDate", "order_date"),
	}
	if rec.VendorName == "" {
		rec.VendorName = scalarString(raw, "vendor")
	}

	rec.Type = domain.POTypeOthers
	if s := str(raw, "type", "poType", "po_type", "orderType"); s != "" {
		rec.Type = domain.ParsePurchaseOrderType(s)
	}
	rec.Status = domain.POStatusNew
	if s := str(raw, "status", "poStatus", "po_status"); s != "" {
		rec.Status = domain.ParsePurchaseOrderStatus(s)
	}
	rec.DeliveryType = domain.DeliveryWarehouse
	if s := str(raw, "deliveryType", "delivery_type", "details.deliveryType", "details.delivery_type",
		"jkDetails.deliveryType"); s != "" {
		rec.DeliveryType = domain.ParseDeliveryType(s)
	}

	if details, ok := object(raw, "details", "jkDetails", "jk_details"); ok {
		rec.Details = domain.CloneMap(details)
	}

	if items, ok := list(raw, "lineItems", "line_items", "items"); ok {
		rec.LineItems = make([]domain.PurchaseOrderLineItem, 0, len(items))
		for _, it := range items {
			m, ok := asMap(it)
			if !ok {
				continue
			}
			rec.LineItems = append(rec.LineItems, purchaseOrderLineItem(m))
		}
	}

	previous := numOr(raw, 0, "amount", "totalAmount", "total_amount")
	rec.Amount = calc.PurchaseOrderAmount(rec.Type, rec.LineItems, previous)
	return rec
}

func purchaseOrderLineItem(m map[string]any) domain.PurchaseOrderLineItem {
	item := domain.PurchaseOrderLineItem{
		ItemName:      str(m, "itemName", "item_name", "description", "productName", "product_name", "name"),
		Specification: str(m, "specification", "spec", "specs"),
		Quantity:      numOr(m, 0, "quantity", "qty", "reams"),
		UnitPrice:     numOr(m, 0, "unitPrice", "unit_price", "rate", "price"),
		ReamWeight:    num(m, "reamWeight", "ream_weight"),
		TareWeight:    num(m, "tareWeight", "tare_weight"),
	}
	// Negative results leave netWeight empty; submit validation rejects them
	if net, ok, err := calc.LineNetWeight(item); ok && err == nil {
		item.NetWeight = net
	} else if !ok {
		item.NetWeight = str(m, "netWeight", "net_weight")
	}
	return item
}

// PurchaseOrders normalizes a collection, preserving order
func (n *Normalizer) PurchaseOrders(raws []domain.RawRecord) []domain.PurchaseOrderRecord {
	out := make([]domain.PurchaseOrderRecord, len(raws))
	for i, r := range raws {
		out[i] = n.PurchaseOrder(r)
	}
	return out
}

// ============================================================================
// Users
// ============================================================================

// User normalizes a single user
func (n *Normalizer) User(raw domain.RawRecord) domain.UserRecord {
	rec := domain.UserRecord{
		ID:         str(raw, "id", "_id", "user_id", "userId"),
		FirstName:  str(raw, "first_name", "firstName"),
		MiddleName: str(raw, "middle_name", "middleName"),
		LastName:   str(raw, "last_name", "lastName"),
		Email:      str(raw, "email", "email_address", "emailAddress"),
		Phone:      str(raw, "phone", "phone_number", "phoneNumber", "mobile"),
		CreatedAt:  timestamp(raw, "created_at", "createdAt", "date_joined"),
	}

	rec.FullName = str(raw, "full_name", "fullName", "name")
	if rec.FullName == "" {
		rec.FullName = joinNonEmpty(rec.FirstName, rec.MiddleName, rec.LastName)
	}

	rec.EmploymentStatus = domain.EmploymentActive
	if s := str(raw, "employment_status", "employmentStatus", "status"); s != "" {
		rec.EmploymentStatus = domain.ParseEmploymentStatus(s)
	}

	if admin, ok := boolean(raw, "is_admin", "isAdmin", "admin"); ok {
		rec.IsAdmin = admin
	} else {
		rec.IsAdmin = strings.EqualFold(str(raw, "role", "role.name"), "admin")
	}

	rec.DepartmentID, rec.DepartmentName = reference(raw, "department",
		[]string{"department_id", "departmentId"}, []string{"department_name", "departmentName"})
	rec.DesignationID, rec.DesignationName = reference(raw, "designation",
		[]string{"designation_id", "designationId"}, []string{"designation_name", "designationName"})
	rec.ManagerID, rec.ManagerName = reference(raw, "manager",
		[]string{"manager_id", "managerId", "reporting_manager_id"}, []string{"manager_name", "managerName"})

	return rec
}

// reference resolves an id/name pair that can arrive flat, as a nested
// object, or as a bare name string. The name falls back to the id.
func reference(raw map[string]any, objKey string, idKeys, nameKeys []string) (string, string) {
	id := str(raw, append(idKeys, objKey+".id", objKey+"._id")...)
	name := str(raw, append(nameKeys, objKey+".name", objKey+".full_name")...)
	if name == "" {
		name = scalarString(raw, objKey)
	}
	if name == "" {
		name = id
	}
	return id, name
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// Users normalizes a collection, preserving order
func (n *Normalizer) Users(raws []domain.RawRecord) []domain.UserRecord {
	out := make([]domain.UserRecord, len(raws))
	for i, r := range raws {
		out[i] = n.User(r)
	}
	return out
}

// ============================================================================
// Encoding
// ============================================================================

// Encode converts a canonical record back into a RawRecord using its JSON
// shape. Normalizing the result yields the same record.
func Encode(v any) (domain.RawRecord, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var raw domain.RawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
