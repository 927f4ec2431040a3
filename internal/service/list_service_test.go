package service

import (
	"net/url"
	"testing"

	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInquiries(erp *fakeERP) {
	erp.seed(domain.EntityInquiry,
		domain.RawRecord{"id": "i1", "inquiry_number": "INQ-1", "customer_name": "Acme Paper", "status": "NEW", "source": "Email", "created_at": "2024-03-01T10:00:00Z"},
		domain.RawRecord{"id": "i2", "inquiryNumber": "INQ-2", "customerName": "Bharat Traders", "status": "PI Sent", "slaStatus": "at risk", "inquiryDate": "2024-03-05"},
		domain.RawRecord{"id": "i3", "inquiryNumber": "INQ-3", "customerPhone": "+91 90000 00000", "status": "converted"},
		domain.RawRecord{"id": "i4", "inquiryNumber": "INQ-4", "customerName": "Acme Boards", "status": "archived"},
	)
}

func TestInquiryService_List(t *testing.T) {
	fx := newFixture(t)
	seedInquiries(fx.erp)
	ctx := sessionCtx("sess-1")

	resp, err := fx.inquiries.List(ctx, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Total)
	assert.Equal(t, 4, resp.Counts.Total)
	assert.Equal(t, 1, resp.Counts.ByKey["new"])
	assert.Equal(t, 1, resp.Counts.ByKey["pi_sent"])
	assert.Equal(t, 0, resp.Counts.ByKey["rejected"])
	assert.NotContains(t, resp.Counts.ByKey, "archived")
	assert.Equal(t, 4, resp.TabCounts["all"])
	assert.Equal(t, 1, resp.TabCounts["pending"])

	t.Run("filters are applied", func(t *testing.T) {
		resp, err := fx.inquiries.List(ctx, url.Values{"search": {"acme"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)
		assert.Equal(t, 1, resp.TabCounts["pending"])

		resp, err = fx.inquiries.List(ctx, url.Values{"status": {"PI_SENT"}})
		require.NoError(t, err)
		items := resp.Data.([]domain.InquiryRecord)
		require.Len(t, items, 1)
		assert.Equal(t, "INQ-2", items[0].InquiryNumber)

		resp, err = fx.inquiries.List(ctx, url.Values{"dateFrom": {"2024-03-02"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Total, "records without a date are excluded once a bound is set")
	})

	t.Run("pagination", func(t *testing.T) {
		resp, err := fx.inquiries.List(ctx, url.Values{"page": {"2"}, "pageSize": {"3"}})
		require.NoError(t, err)
		assert.Len(t, resp.Data.([]domain.InquiryRecord), 1)
		assert.Equal(t, 2, resp.TotalPages)

		resp, err = fx.inquiries.List(ctx, url.Values{"page": {"9223372036854775807"}})
		require.NoError(t, err)
		assert.Empty(t, resp.Data.([]domain.InquiryRecord))

		_, err = fx.inquiries.List(ctx, url.Values{"page": {"zero"}})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "page")
	})

	t.Run("unknown tab is rejected", func(t *testing.T) {
		_, err := fx.inquiries.List(ctx, url.Values{"tab": {"archived"}})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	assert.Equal(t, 1, fx.erp.calls(domain.EntityInquiry), "later lists are served from the snapshot")
}

func TestInquiryService_SnapshotScope(t *testing.T) {
	fx := newFixture(t)
	seedInquiries(fx.erp)

	_, err := fx.inquiries.List(sessionCtx("sess-1"), url.Values{})
	require.NoError(t, err)
	_, err = fx.inquiries.List(sessionCtx("sess-1"), url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, fx.erp.calls(domain.EntityInquiry))
	assert.Equal(t, 1, fx.recorder.hits)

	_, err = fx.inquiries.List(sessionCtx("sess-2"), url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 2, fx.erp.calls(domain.EntityInquiry), "sessions do not share snapshots")

	_, err = fx.inquiries.List(sessionCtx("sess-1"), url.Values{"refresh": {"true"}})
	require.NoError(t, err)
	assert.Equal(t, 3, fx.erp.calls(domain.EntityInquiry))

	require.NoError(t, fx.inquiries.Delete(sessionCtx("sess-1"), "i1"))
	resp, err := fx.inquiries.List(sessionCtx("sess-1"), url.Values{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 4, fx.erp.calls(domain.EntityInquiry), "delete drops the snapshot")
}

func TestInquiryService_Interactions(t *testing.T) {
	fx := newFixture(t)
	seedInquiries(fx.erp)
	ctx := sessionCtx("sess-1")

	t.Run("validation blocks the upstream call", func(t *testing.T) {
		_, err := fx.inquiries.AddInteraction(ctx, "i1", &domain.CreateInteractionRequest{
			Type:             "call",
			FollowUpRequired: true,
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "summary")
		assert.Contains(t, verr.Fields, "followUpDateTime")
		assert.Empty(t, fx.erp.interactions["i1"])
	})

	created, err := fx.inquiries.AddInteraction(ctx, "i1", &domain.CreateInteractionRequest{
		Type:    "whatsapp",
		Outcome: "Interested",
		Summary: "Shared the price list",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InteractionWhatsApp, created.Type)
	assert.Equal(t, "i1", created.InquiryID)
	assert.NotEmpty(t, created.ID)

	inquiry, err := fx.inquiries.Get(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, inquiry.Interactions, 1)
	assert.Equal(t, "Shared the price list", inquiry.Interactions[0].Summary)
	assert.Equal(t, domain.SLAStatusPending, inquiry.SLAStatus, "the detail view defaults to pending")

	list, err := fx.inquiries.List(ctx, url.Values{"search": {"INQ-1"}})
	require.NoError(t, err)
	require.Len(t, list.Data.([]domain.InquiryRecord), 1)
	assert.Equal(t, domain.SLAStatusOnTrack, list.Data.([]domain.InquiryRecord)[0].SLAStatus)

	_, err = fx.inquiries.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, fx.inquiries.DeleteInteraction(ctx, created.ID))
	assert.Contains(t, fx.erp.removed, created.ID)
}

func TestPurchaseOrderAndUserLists(t *testing.T) {
	fx := newFixture(t)
	fx.erp.seed(domain.EntityPurchaseOrder,
		domain.RawRecord{"id": "p1", "poNumber": "PO-1", "type": "JK Company", "status": "new", "vendorName": "JK Paper",
			"lineItems": []any{map[string]any{"itemName": "Maplitho", "quantity": 2}}},
		domain.RawRecord{"id": "p2", "poNumber": "PO-2", "type": "others", "status": "Canceled", "vendor_name": "Sun Mills", "amount": 500},
	)
	fx.erp.seed(domain.EntityUser,
		domain.RawRecord{"id": "u1", "first_name": "Asha", "last_name": "Rao", "employment_status": "Active", "role": "admin"},
		domain.RawRecord{"id": "u2", "full_name": "Vikram Shah", "employment_status": "On Leave"},
	)
	ctx := sessionCtx("sess-1")

	orders, err := fx.purchaseOrders.List(ctx, url.Values{"tab": {"cancelled"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), orders.Total)
	assert.Equal(t, 1, orders.TabCounts["pending"])

	po, err := fx.purchaseOrders.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(2000), po.Amount)

	users, err := fx.users.List(ctx, url.Values{"tab": {"admins"}})
	require.NoError(t, err)
	items := users.Data.([]domain.UserRecord)
	require.Len(t, items, 1)
	assert.Equal(t, "Asha Rao", items[0].FullName)
	assert.Equal(t, 1, users.Counts.ByKey["on leave"])

	summary, err := fx.dashboard.Summary(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PurchaseOrders.Total)
	assert.Equal(t, 1, summary.PurchaseOrderTypes.ByKey["jk_company"])
	assert.Equal(t, 2500.0, summary.PurchaseOrderAmount)
	assert.Equal(t, 2, summary.Users.Total)
	assert.Equal(t, 0, summary.Inquiries.Total)
}
