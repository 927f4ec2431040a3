package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestInquiries(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	product := "A4 copier paper"
	data, err := export.Inquiries([]domain.InquiryRecord{
		{
			InquiryNumber:    "INQ-001",
			CustomerName:     "Acme Traders",
			Status:           domain.InquiryStatusNew,
			Source:           domain.SourceEmail,
			ProductRequested: &product,
			InquiryDateTime:  &at,
			TotalAmount:      1250.5,
		},
		{InquiryNumber: "INQ-002", CustomerPhone: "+91 98450 00000"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Inquiries"}, f.GetSheetList())

	rows, err := f.GetRows("Inquiries")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Inquiry No", rows[0][0])
	assert.Equal(t, "INQ-001", rows[1][0])
	assert.Equal(t, "2024-03-01 10:00", rows[1][1])
	assert.Equal(t, "Acme Traders", rows[1][2])
	assert.Equal(t, "A4 copier paper", rows[1][8])
	assert.Equal(t, "INQ-002", rows[2][0])
	assert.Equal(t, "+91 98450 00000", rows[2][3])
}

func TestPurchaseOrders_HeaderOnly(t *testing.T) {
	data, err := export.PurchaseOrders(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Purchase Orders")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(export.PurchaseOrderColumns))
	assert.Equal(t, "Amount", rows[0][len(rows[0])-1])
}
