package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/autoservice-offers/internal/calc"
	"github.com/nurpe/autoservice-offers/internal/model"
)

const summarySheet = "Offers"

type Generator struct {
	location *time.Location
}

func NewGenerator(location *time.Location) *Generator {
	if location == nil {
		location = time.UTC
	}
	return &Generator{location: location}
}

// Generate writes a summary sheet with one row per offer and a detail sheet
// per offer with its line items.
func (g *Generator) Generate(docs []model.OfferDocument) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, summarySheet, docs); err != nil {
		return nil, err
	}

	// Keys are lower-cased: Excel treats sheet names case-insensitively.
	usedNames := map[string]struct{}{strings.ToLower(summarySheet): {}}
	for i, doc := range docs {
		sheetName := buildSheetName(doc.Offer, i, usedNames)
		usedNames[strings.ToLower(sheetName)] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		if err := g.writeDetail(file, sheetName, doc.Offer); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, docs []model.OfferDocument) error {
	headers := []string{
		"Number",
		"Date",
		"Status",
		"Customer",
		"Phone",
		"Vehicle",
		"Plate",
		"Discount %",
		"Net, EUR",
		"VAT, EUR",
		"Gross, EUR",
		"Gross, BGN",
		"Amount due, EUR",
	}
	if err := writeRow(file, sheet, 1, headers); err != nil {
		return err
	}

	for i, doc := range docs {
		offer := doc.Offer
		totals := calc.OfferTotals(offer)
		row := []interface{}{
			offerNumber(offer),
			g.formatDate(offer.CreatedAt),
			string(offer.Status),
			offer.CustomerName,
			offer.CustomerPhone,
			offer.Vehicle(),
			offer.VehiclePlate,
			offer.DiscountPercent,
			calc.Round2(totals.NetTotal),
			calc.Round2(totals.VATAmount),
			calc.Round2(totals.GrossTotal),
			calc.Round2(calc.ToBGN(totals.GrossTotal)),
			calc.Round2(calc.AmountDue(totals.GrossTotal, offer.Prepayments)),
		}
		if err := writeRow(file, sheet, i+2, row); err != nil {
			return err
		}
	}

	return setColWidths(file, sheet, []colWidth{
		{"A", "A", 16},
		{"B", "C", 12},
		{"D", "D", 28},
		{"E", "E", 16},
		{"F", "F", 24},
		{"G", "G", 12},
		{"H", "M", 14},
	})
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, offer model.Offer) error {
	totals := calc.OfferTotals(offer)

	var setErr error
	set := func(cell string, value interface{}) {
		if setErr == nil {
			setErr = file.SetCellValue(sheet, cell, value)
		}
	}

	set("A1", "Number")
	set("B1", offerNumber(offer))
	set("A2", "Customer")
	set("B2", offer.CustomerName)
	set("A3", "Vehicle")
	set("B3", strings.TrimSpace(offer.Vehicle()+" "+offer.VehiclePlate))
	set("A4", "VIN")
	set("B4", offer.VIN)
	set("A5", "Status")
	set("B5", string(offer.Status))
	set("A6", "Date")
	set("B6", g.formatDate(offer.CreatedAt))

	row := 8
	if len(offer.Parts) > 0 {
		set(fmt.Sprintf("A%d", row), "Parts")
		row++
		if err := writeRow(file, sheet, row, []string{"#", "Description", "Brand", "Part number", "Qty", "Unit price, EUR", "Total, EUR", "Total incl. VAT, EUR"}); err != nil {
			return err
		}
		for i, part := range offer.Parts {
			row++
			lineTotal := calc.PartLineTotal(part)
			if err := writeRow(file, sheet, row, []interface{}{
				i + 1,
				part.Description,
				part.Brand,
				part.PartNumber,
				part.Quantity,
				calc.Round2(part.UnitPrice),
				calc.Round2(lineTotal),
				calc.Round2(calc.GrossOf(lineTotal)),
			}); err != nil {
				return err
			}
		}
		row += 2
	}

	if len(offer.Labor) > 0 {
		set(fmt.Sprintf("A%d", row), "Labor")
		row++
		if err := writeRow(file, sheet, row, []string{"#", "Action", "Time", "Hours", "Rate, EUR", "Total, EUR", "Total incl. VAT, EUR"}); err != nil {
			return err
		}
		for i, item := range offer.Labor {
			row++
			lineTotal := calc.LaborLineTotal(item)
			if err := writeRow(file, sheet, row, []interface{}{
				i + 1,
				item.ActionName,
				item.TimeRequired,
				calc.LaborHours(item),
				calc.Round2(item.PricePerHour),
				calc.Round2(lineTotal),
				calc.Round2(calc.GrossOf(lineTotal)),
			}); err != nil {
				return err
			}
		}
		row += 2
	}

	for _, line := range []struct {
		label string
		value float64
	}{
		{"Subtotal, EUR", totals.Subtotal},
		{fmt.Sprintf("Discount %s, EUR", calc.FormatPercent(offer.DiscountPercent/100)), totals.DiscountAmount},
		{"Net, EUR", totals.NetTotal},
		{"VAT 20%, EUR", totals.VATAmount},
		{"Gross, EUR", totals.GrossTotal},
		{"Gross, BGN", calc.ToBGN(totals.GrossTotal)},
	} {
		set(fmt.Sprintf("A%d", row), line.label)
		set(fmt.Sprintf("B%d", row), calc.Round2(line.value))
		row++
	}
	if setErr != nil {
		return setErr
	}

	return setColWidths(file, sheet, []colWidth{
		{"A", "A", 18},
		{"B", "B", 40},
		{"C", "H", 16},
	})
}

type colWidth struct {
	from, to string
	width    float64
}

func setColWidths(file *excelize.File, sheet string, widths []colWidth) error {
	for _, w := range widths {
		if err := file.SetColWidth(sheet, w.from, w.to, w.width); err != nil {
			return err
		}
	}
	return nil
}

func writeRow[T any](file *excelize.File, sheet string, row int, values []T) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func offerNumber(offer model.Offer) string {
	if number := strings.TrimSpace(offer.Number); number != "" {
		return number
	}
	return "draft"
}

// buildSheetName returns a sheet name of at most 31 characters whose
// lower-cased form is not in used.
func buildSheetName(offer model.Offer, index int, used map[string]struct{}) string {
	base := strings.TrimSpace(offer.Number)
	if base == "" {
		base = fmt.Sprintf("Offer %d", index+1)
	}
	base = truncateRunes(sanitizeSheetName(base), 31)

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[strings.ToLower(nameCandidate)]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		nameCandidate = truncateRunes(base, 31-len(suffix)) + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
		"'", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Offer"
	}
	return value
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func (g *Generator) formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(g.location).Format("2006-01-02")
}
