package normalize_test

import (
	"testing"
	"time"

	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInquiry_AliasPrecedence(t *testing.T) {
	n := normalize.New(normalize.Options{})

	t.Run("camelCase wins over snake_case", func(t *testing.T) {
		rec := n.Inquiry(domain.RawRecord{
			"id":            "inq-1",
			"customerName":  "Acme Paper",
			"customer_name": "Legacy Name",
		})
		assert.Equal(t, "Acme Paper", rec.CustomerName)
	})

	t.Run("legacy key fills a blank canonical key", func(t *testing.T) {
		rec := n.Inquiry(domain.RawRecord{
			"customerName":  "  ",
			"customer_name": "Legacy Name",
		})
		assert.Equal(t, "Legacy Name", rec.CustomerName)
	})

	t.Run("nested customer object", func(t *testing.T) {
		rec := n.Inquiry(domain.RawRecord{
			"customer": map[string]any{"name": "Nested Ltd", "phone": "+91 9000000000", "email": "n@example.com"},
		})
		assert.Equal(t, "Nested Ltd", rec.CustomerName)
		assert.Equal(t, "+91 9000000000", rec.CustomerPhone)
		assert.Equal(t, "n@example.com", rec.CustomerEmail)
	})

	t.Run("customer as plain string", func(t *testing.T) {
		rec := n.Inquiry(domain.RawRecord{"customer": "Plain Co"})
		assert.Equal(t, "Plain Co", rec.CustomerName)
	})

	t.Run("numeric id becomes a string", func(t *testing.T) {
		rec := n.Inquiry(domain.RawRecord{"id": float64(42)})
		assert.Equal(t, "42", rec.ID)
	})
}

func TestInquiry_Defaults(t *testing.T) {
	rec := normalize.Default.Inquiry(domain.RawRecord{})

	assert.Equal(t, domain.InquiryStatusNew, rec.Status)
	assert.Equal(t, domain.SLAStatusOnTrack, rec.SLAStatus)
	assert.Equal(t, domain.SourceWhatsApp, rec.Source)
	assert.Nil(t, rec.ProductRequested)
	assert.Nil(t, rec.Quantity)
	assert.Nil(t, rec.InquiryDateTime)
	assert.Zero(t, rec.TotalAmount)

	pending := normalize.New(normalize.Options{DefaultSLAStatus: domain.SLAStatusPending})
	assert.Equal(t, domain.SLAStatusPending, pending.Inquiry(domain.RawRecord{}).SLAStatus)
}

func TestInquiry_StatusCanonicalization(t *testing.T) {
	rec := normalize.Default.Inquiry(domain.RawRecord{"status": "PI Sent", "source": "Walk-In"})
	assert.Equal(t, domain.InquiryStatusPISent, rec.Status)
	assert.Equal(t, domain.SourceWalkIn, rec.Source)

	unknown := normalize.Default.Inquiry(domain.RawRecord{"status": "Archived"})
	assert.Equal(t, domain.InquiryStatus("archived"), unknown.Status)
	assert.False(t, unknown.Status.IsValid())
}

func TestInquiry_Dates(t *testing.T) {
	t.Run("falls back to createdAt", func(t *testing.T) {
		rec := normalize.Default.Inquiry(domain.RawRecord{"created_at": "2024-03-01T10:00:00Z"})
		require.NotNil(t, rec.InquiryDateTime)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *rec.InquiryDateTime)
	})

	t.Run("unix milliseconds", func(t *testing.T) {
		rec := normalize.Default.Inquiry(domain.RawRecord{"inquiryDateTime": float64(1709287200000)})
		require.NotNil(t, rec.InquiryDateTime)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), *rec.InquiryDateTime)
	})

	t.Run("unparseable dates are absent", func(t *testing.T) {
		rec := normalize.Default.Inquiry(domain.RawRecord{"inquiryDateTime": "not a date"})
		assert.Nil(t, rec.InquiryDateTime)
	})
}

func TestInquiry_LineItemsAndInteractions(t *testing.T) {
	rec := normalize.Default.Inquiry(domain.RawRecord{
		"id":          "inq-9",
		"totalAmount": 999,
		"line_items": []any{
			map[string]any{"product_name": "Kraft", "qty": "2", "unit_price": "10"},
			map[string]any{"productName": "Duplex", "quantity": 1, "unitPrice": 5},
			"garbage",
		},
		"interactions": []any{
			map[string]any{"id": "int-1", "type": "whatsapp", "summary": "Sent catalogue"},
		},
	})

	require.Len(t, rec.LineItems, 2)
	assert.Equal(t, "Kraft", rec.LineItems[0].ProductName)
	assert.Equal(t, 25.0, rec.TotalAmount)

	require.Len(t, rec.Interactions, 1)
	assert.Equal(t, "inq-9", rec.Interactions[0].InquiryID)
	assert.Equal(t, domain.InteractionWhatsApp, rec.Interactions[0].Type)
	assert.Equal(t, domain.FollowUpPending, rec.Interactions[0].FollowUpStatus)
}

func TestPurchaseOrder(t *testing.T) {
	t.Run("jk company amount and net weight", func(t *testing.T) {
		rec := normalize.Default.PurchaseOrder(domain.RawRecord{
			"po_number": "PO-001",
			"poType":    "JK Company",
			"amount":    1,
			"jkDetails": map[string]any{"deliveryType": "direct_to_customer", "mill": "Unit 2"},
			"items": []any{
				map[string]any{"itemName": "Maplitho", "quantity": 3, "reamWeight": 12.5, "tareWeight": 2.25},
				map[string]any{"itemName": "Bond", "quantity": 2, "reamWeight": 1, "tareWeight": 2},
			},
		})

		assert.Equal(t, "PO-001", rec.PONumber)
		assert.Equal(t, domain.POTypeJKCompany, rec.Type)
		assert.Equal(t, domain.DeliveryDirectToCustomer, rec.DeliveryType)
		assert.Equal(t, 5000.0, rec.Amount)
		assert.Equal(t, "10.25", rec.LineItems[0].NetWeight)
		assert.Empty(t, rec.LineItems[1].NetWeight)
		assert.Equal(t, "Unit 2", rec.Details["mill"])
	})

	t.Run("defaults and retained amount", func(t *testing.T) {
		rec := normalize.Default.PurchaseOrder(domain.RawRecord{"totalAmount": "1,250.50", "status": "Canceled"})
		assert.Equal(t, domain.POTypeOthers, rec.Type)
		assert.Equal(t, domain.POStatusCancelled, rec.Status)
		assert.Equal(t, domain.DeliveryWarehouse, rec.DeliveryType)
		assert.Equal(t, 1250.5, rec.Amount)
	})

	t.Run("details are copied", func(t *testing.T) {
		details := map[string]any{"mill": "Unit 1"}
		rec := normalize.Default.PurchaseOrder(domain.RawRecord{"details": details})
		rec.Details["mill"] = "changed"
		assert.Equal(t, "Unit 1", details["mill"])
	})
}

func TestUser(t *testing.T) {
	t.Run("derives full name and references", func(t *testing.T) {
		rec := normalize.Default.User(domain.RawRecord{
			"id":                "u1",
			"firstName":         "Asha",
			"last_name":         "Rao",
			"employment_status": "On_Leave",
			"department":        map[string]any{"id": "d1", "name": "Sales"},
			"designation":       "Executive",
			"manager_id":        "u9",
			"role":              "Admin",
		})
		assert.Equal(t, "Asha Rao", rec.FullName)
		assert.Equal(t, domain.EmploymentOnLeave, rec.EmploymentStatus)
		assert.Equal(t, "d1", rec.DepartmentID)
		assert.Equal(t, "Sales", rec.DepartmentName)
		assert.Equal(t, "Executive", rec.DesignationName)
		assert.Equal(t, "u9", rec.ManagerName)
		assert.True(t, rec.IsAdmin)
	})

	t.Run("explicit flag beats role", func(t *testing.T) {
		rec := normalize.Default.User(domain.RawRecord{"is_admin": false, "role": "admin"})
		assert.False(t, rec.IsAdmin)
		assert.Equal(t, domain.EmploymentActive, rec.EmploymentStatus)
	})
}

func TestNormalize_FixedPoint(t *testing.T) {
	n := normalize.Default

	inquiry := n.Inquiry(domain.RawRecord{
		"_id":           "inq-3",
		"customer_name": "Acme",
		"status":        "Follow Up",
		"inquiry_date":  "2024-05-02",
		"qty":           "15",
		"items":         []any{map[string]any{"name": "Kraft", "qty": 2, "price": 3.5}},
		"interactions":  []any{map[string]any{"type": "call", "followUpRequired": true, "followUpDate": "2024-05-09T09:30:00Z"}},
	})
	rawInquiry, err := normalize.Encode(inquiry)
	require.NoError(t, err)
	assert.Equal(t, inquiry, n.Inquiry(rawInquiry))

	order := n.PurchaseOrder(domain.RawRecord{
		"orderNumber":  "PO-77",
		"type":         "imports",
		"vendor":       map[string]any{"name": "Global Pulp"},
		"deliveryDate": "2024-06-01T00:00:00Z",
		"details":      map[string]any{"port": "Nhava Sheva", "containers": []any{"C1", "C2"}},
		"items":        []any{map[string]any{"itemName": "Pulp", "quantity": 4, "rate": 100, "reamWeight": 5, "tareWeight": 1}},
	})
	rawOrder, err := normalize.Encode(order)
	require.NoError(t, err)
	assert.Equal(t, order, n.PurchaseOrder(rawOrder))

	user := n.User(domain.RawRecord{"id": 7, "firstName": "Ravi", "manager": map[string]any{"id": "m1", "name": "Meera"}})
	rawUser, err := normalize.Encode(user)
	require.NoError(t, err)
	assert.Equal(t, user, n.User(rawUser))
}
