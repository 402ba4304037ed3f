// Package sheet renders an order as an xlsx workbook.
package sheet

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ariefcatur/shop-orders/internal/orders"
)

const headerColor = "366092"

var headers = []string{"№", "Mahsulot nomi", "Miqdori", "Narxi", "Jami"}

const itemsHeaderRow = 10

// SheetName is the worksheet title for order id.
func SheetName(id int64) string {
	return fmt.Sprintf("Buyurtma #%d", id)
}

// Filename is buyurtma_<id>_<YYYYMMDD_HHMMSS>.xlsx.
func Filename(id int64, at time.Time) string {
	return fmt.Sprintf("buyurtma_%d_%s.xlsx", id, at.Format("20060102_150405"))
}

// Caption accompanies the document in the operations chat.
func Caption(id int64) string {
	return fmt.Sprintf("📊 Buyurtma #%d Excel fayli", id)
}

// Money formats v with thousands separators, e.g. "10,000 so'm".
func Money(v float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v so'm", number.Decimal(v, number.MaxFractionDigits(2)))
}

// RenderOrder builds the workbook: title, customer block, the item table
// with a styled header row and a JAMI totals row.
func RenderOrder(o orders.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(o.ID)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("sheet name: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	w := &writer{f: f, sheet: sheet}
	w.set("A1", fmt.Sprintf("BUYURTMA #%d", o.ID))
	w.style("A1", "A1", st.title)
	w.merge("A1", "E1")

	c := o.Customer
	w.set("A3", "Mijoz ma'lumotlari:")
	w.style("A3", "A3", st.bold)
	w.set("A4", "Ism:")
	w.set("B4", orDash(c.Name))
	w.set("A5", "Telefon:")
	w.set("B5", orDash(c.Phone))
	w.set("A6", "Manzil:")
	w.set("B6", orDash(c.Address))
	w.set("A7", "Lokatsiya:")
	w.set("B7", orDash(c.Location))

	w.set("A9", "Mahsulotlar:")
	w.style("A9", "A9", st.bold)
	for i, h := range headers {
		w.setRC(i+1, itemsHeaderRow, h)
	}
	w.style(cell(1, itemsHeaderRow), cell(len(headers), itemsHeaderRow), st.header)

	var total float64
	row := itemsHeaderRow
	for i, it := range o.Items {
		row = itemsHeaderRow + 1 + i
		sub := it.Subtotal()
		total += sub
		w.setRC(1, row, i+1)
		w.setRC(2, row, it.Name)
		w.setRC(3, row, it.Quantity)
		w.setRC(4, row, Money(it.UnitPrice()))
		w.setRC(5, row, Money(sub))
	}
	if len(o.Items) > 0 {
		w.style(cell(1, itemsHeaderRow+1), cell(len(headers), row), st.border)
	}

	totalRow := row + 2
	w.setRC(4, totalRow, "JAMI:")
	w.setRC(5, totalRow, Money(total))
	w.style(cell(4, totalRow), cell(5, totalRow), st.bold)

	for col, width := range map[string]float64{"A": 5, "B": 30, "C": 10, "D": 15, "E": 15} {
		if w.err == nil {
			w.err = f.SetColWidth(sheet, col, col, width)
		}
	}
	if w.err != nil {
		return nil, fmt.Errorf("render order #%d: %w", o.ID, w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

type styles struct {
	title, bold, header, border int
}

func newStyles(f *excelize.File) (styles, error) {
	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	var s styles
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: headerColor},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, err
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerColor}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thin,
	}); err != nil {
		return s, err
	}
	if s.border, err = f.NewStyle(&excelize.Style{Border: thin}); err != nil {
		return s, err
	}
	return s, nil
}

// writer keeps the first error so the layout code reads top to bottom.
type writer struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *writer) set(ref string, v any) {
	if w.err == nil {
		w.err = w.f.SetCellValue(w.sheet, ref, v)
	}
}

func (w *writer) setRC(col, row int, v any) { w.set(cell(col, row), v) }

func (w *writer) style(from, to string, id int) {
	if w.err == nil {
		w.err = w.f.SetCellStyle(w.sheet, from, to, id)
	}
}

func (w *writer) merge(from, to string) {
	if w.err == nil {
		w.err = w.f.MergeCell(w.sheet, from, to)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
