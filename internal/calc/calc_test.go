package calc_test

import (
	"testing"

	"github.com/straye-as/erp-desk/internal/calc"
	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestInquiryTotal(t *testing.T) {
	items := []domain.InquiryLineItem{
		{ProductName: "Kraft 120gsm", Quantity: 2, UnitPrice: 10},
		{ProductName: "Duplex board", Quantity: 1, UnitPrice: 5},
	}
	assert.Equal(t, 25.0, calc.InquiryTotal(items))
	assert.Equal(t, 0.0, calc.InquiryTotal(nil))

	// decimal arithmetic avoids float drift
	drift := []domain.InquiryLineItem{{Quantity: 3, UnitPrice: 0.1}}
	assert.Equal(t, 0.3, calc.InquiryTotal(drift))
}

func TestPurchaseOrderAmount(t *testing.T) {
	t.Run("jk company uses the fixed multiplier", func(t *testing.T) {
		items := []domain.PurchaseOrderLineItem{{Quantity: 2, UnitPrice: 7}, {Quantity: 3}}
		assert.Equal(t, 5000.0, calc.PurchaseOrderAmount(domain.POTypeJKCompany, items, 0))
	})

	t.Run("other types use unit price", func(t *testing.T) {
		items := []domain.PurchaseOrderLineItem{{Quantity: 2, UnitPrice: 10}, {Quantity: 1, UnitPrice: 5}}
		assert.Equal(t, 25.0, calc.PurchaseOrderAmount(domain.POTypeOthers, items, 0))
		assert.Equal(t, 25.0, calc.PurchaseOrderAmount(domain.POTypeImports, items, 99))
	})

	t.Run("no line items keeps previous amount", func(t *testing.T) {
		assert.Equal(t, 1234.5, calc.PurchaseOrderAmount(domain.POTypeOthers, nil, 1234.5))
		assert.Equal(t, 800.0, calc.PurchaseOrderAmount(domain.POTypeJKCompany, []domain.PurchaseOrderLineItem{}, 800))
	})
}

func TestNetWeight(t *testing.T) {
	net, err := calc.NetWeight(12.5, 2.25)
	require.NoError(t, err)
	assert.Equal(t, "10.25", net)

	net, err = calc.NetWeight(10, 10)
	require.NoError(t, err)
	assert.Equal(t, "0.00", net)

	_, err = calc.NetWeight(1, 2)
	assert.ErrorIs(t, err, calc.ErrNegativeNetWeight)
}

func TestLineNetWeight(t *testing.T) {
	_, ok, err := calc.LineNetWeight(domain.PurchaseOrderLineItem{ReamWeight: ptr(5)})
	assert.False(t, ok)
	assert.NoError(t, err)

	net, ok, err := calc.LineNetWeight(domain.PurchaseOrderLineItem{ReamWeight: ptr(5), TareWeight: ptr(1.5)})
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, "3.50", net)
}

func TestCountBy(t *testing.T) {
	records := []domain.InquiryRecord{
		{Status: domain.InquiryStatusNew},
		{Status: domain.InquiryStatusNew},
		{Status: domain.InquiryStatusConverted},
		{Status: "archived"},
	}
	counts := calc.CountBy(records, func(r domain.InquiryRecord) string { return string(r.Status) },
		domain.Strings(domain.InquiryStatuses))

	assert.Equal(t, 4, counts.Total)
	assert.Equal(t, 2, counts.ByKey["new"])
	assert.Equal(t, 1, counts.ByKey["converted"])
	assert.Equal(t, 0, counts.ByKey["rejected"])
	_, hasUnknown := counts.ByKey["archived"]
	assert.False(t, hasUnknown)
	assert.Len(t, counts.ByKey, len(domain.InquiryStatuses))
}

func TestSumAmounts(t *testing.T) {
	orders := []domain.PurchaseOrderRecord{{Amount: 100.1}, {Amount: 200.2}}
	assert.Equal(t, 300.3, calc.SumAmounts(orders))
}
