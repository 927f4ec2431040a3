// Package export renders filtered list views as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const dateLayout = "2006-01-02 15:04"

// Column is one exported column
type Column[T any] struct {
	Header string
	Width  float64
	Value  func(T) any
}

// Workbook writes records to a single sheet workbook with a styled header row
func Workbook[T any](sheet string, columns []Column[T], records []T) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet: %w", err)
		}
		index, err = f.GetSheetIndex(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to find sheet: %w", err)
		}
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		if col.Width > 0 {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return nil, fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(sheet, name, name, col.Width); err != nil {
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for r, rec := range records {
		for c, col := range columns {
			value := col.Value(rec)
			if value == nil || value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateLayout)
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// InquiryColumns are the columns of the inquiry export
var InquiryColumns = []Column[domain.InquiryRecord]{
	{Header: "Inquiry No", Width: 16, Value: func(r domain.InquiryRecord) any { return r.InquiryNumber }},
	{Header: "Date", Width: 18, Value: func(r domain.InquiryRecord) any { return formatTime(r.InquiryDisplayDate()) }},
	{Header: "Customer", Width: 28, Value: func(r domain.InquiryRecord) any { return r.CustomerName }},
	{Header: "Phone", Width: 16, Value: func(r domain.InquiryRecord) any { return r.CustomerPhone }},
	{Header: "Email", Width: 26, Value: func(r domain.InquiryRecord) any { return r.CustomerEmail }},
	{Header: "Source", Width: 12, Value: func(r domain.InquiryRecord) any { return domain.InquirySourceInfo(string(r.Source)).Label }},
	{Header: "Status", Width: 14, Value: func(r domain.InquiryRecord) any { return domain.InquiryStatusInfo(string(r.Status)).Label }},
	{Header: "SLA", Width: 12, Value: func(r domain.InquiryRecord) any { return domain.SLAStatusInfo(string(r.SLAStatus)).Label }},
	{Header: "Product", Width: 28, Value: func(r domain.InquiryRecord) any { return deref(r.ProductRequested) }},
	{Header: "Sales Person", Width: 20, Value: func(r domain.InquiryRecord) any { return deref(r.AssignedSalesPerson) }},
	{Header: "Total Amount", Width: 14, Value: func(r domain.InquiryRecord) any { return r.TotalAmount }},
}

// PurchaseOrderColumns are the columns of the purchase order export
var PurchaseOrderColumns = []Column[domain.PurchaseOrderRecord]{
	{Header: "PO No", Width: 16, Value: func(r domain.PurchaseOrderRecord) any { return r.PONumber }},
	{Header: "Type", Width: 14, Value: func(r domain.PurchaseOrderRecord) any { return string(r.Type) }},
	{Header: "Status", Width: 14, Value: func(r domain.PurchaseOrderRecord) any {
		return domain.PurchaseOrderStatusInfo(string(r.Status)).Label
	}},
	{Header: "Vendor", Width: 28, Value: func(r domain.PurchaseOrderRecord) any { return r.VendorName }},
	{Header: "Delivery", Width: 20, Value: func(r domain.PurchaseOrderRecord) any {
		return strings.ReplaceAll(string(r.DeliveryType), "_", " ")
	}},
	{Header: "Delivery Date", Width: 18, Value: func(r domain.PurchaseOrderRecord) any { return formatTime(r.DeliveryDate) }},
	{Header: "Items", Width: 8, Value: func(r domain.PurchaseOrderRecord) any { return len(r.LineItems) }},
	{Header: "Amount", Width: 14, Value: func(r domain.PurchaseOrderRecord) any { return r.Amount }},
}

// Inquiries renders the inquiry export
func Inquiries(records []domain.InquiryRecord) ([]byte, error) {
	return Workbook("Inquiries", InquiryColumns, records)
}

// PurchaseOrders renders the purchase order export
func PurchaseOrders(records []domain.PurchaseOrderRecord) ([]byte, error) {
	return Workbook("Purchase Orders", PurchaseOrderColumns, records)
}
