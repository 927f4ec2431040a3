// Package calc computes the derived display values of inquiries and
// purchase orders. Arithmetic is done in decimal so totals match what the
// ERP prints on its documents.
package calc

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/straye-as/erp-desk/internal/domain"
)

// JKUnitMultiplier is the fixed per-unit price of JK company orders
const JKUnitMultiplier = 1000

// ErrNegativeNetWeight is returned when the tare exceeds the ream weight
var ErrNegativeNetWeight = errors.New("net weight is negative: tare weight exceeds ream weight")

// InquiryTotal sums quantity x unitPrice over the line items
func InquiryTotal(items []domain.InquiryLineItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Quantity).Mul(decimal.NewFromFloat(it.UnitPrice)))
	}
	return total.InexactFloat64()
}

// PurchaseOrderAmount derives the order amount from its line items.
// JK company orders are priced at JKUnitMultiplier per unit regardless of
// the item's unit price. With no line items the previous amount is kept.
func PurchaseOrderAmount(poType domain.PurchaseOrderType, items []domain.PurchaseOrderLineItem, previous float64) float64 {
	if len(items) == 0 {
		return previous
	}

	total := decimal.Zero
	multiplier := decimal.NewFromInt(JKUnitMultiplier)
	for _, it := range items {
		qty := decimal.NewFromFloat(it.Quantity)
		if poType == domain.POTypeJKCompany {
			total = total.Add(qty.Mul(multiplier))
		} else {
			total = total.Add(qty.Mul(decimal.NewFromFloat(it.UnitPrice)))
		}
	}
	return total.InexactFloat64()
}

// NetWeight returns reamWeight - tareWeight formatted to two decimals.
// A negative result is rejected rather than clamped.
func NetWeight(reamWeight, tareWeight float64) (string, error) {
	net := decimal.NewFromFloat(reamWeight).Sub(decimal.NewFromFloat(tareWeight))
	if net.IsNegative() {
		return "", ErrNegativeNetWeight
	}
	return net.StringFixed(2), nil
}

// LineNetWeight computes the net weight of a PO line item. The second return
// is false when either weight is missing.
func LineNetWeight(item domain.PurchaseOrderLineItem) (string, bool, error) {
	if item.ReamWeight == nil || item.TareWeight == nil {
		return "", false, nil
	}
	net, err := NetWeight(*item.ReamWeight, *item.TareWeight)
	return net, true, err
}

// CountBy counts records by key in a single pass. Every known key is
// present in the result, zero when unseen; unknown keys only add to Total.
func CountBy[T any](records []T, key func(T) string, known []string) domain.StatusCounts {
	counts := domain.StatusCounts{ByKey: make(map[string]int, len(known))}
	for _, k := range known {
		counts.ByKey[k] = 0
	}
	for _, r := range records {
		counts.Total++
		k := key(r)
		if _, ok := counts.ByKey[k]; ok {
			counts.ByKey[k]++
		}
	}
	return counts
}

// SumAmounts adds up purchase order amounts
func SumAmounts(orders []domain.PurchaseOrderRecord) float64 {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(decimal.NewFromFloat(o.Amount))
	}
	return total.InexactFloat64()
}
