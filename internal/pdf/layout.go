package pdf

import (
	"strings"

	"github.com/nurpe/autoservice-offers/internal/calc"
	"github.com/nurpe/autoservice-offers/internal/model"
)

type columnKey int

const (
	colIndex columnKey = iota
	colDescription
	colBrand
	colPartNumber
	colQuantity
	colUnitPrice
	colLineTotal
	colAction
	colDuration
	colRate
	colCategory
	colNet
	colVATRate
	colVAT
	colGross
)

type column struct {
	key    columnKey
	header string
	width  float64
	align  string
}

// plan decides which blocks and columns a document gets before anything is
// drawn.
type plan struct {
	partColumns  []column
	laborColumns []column
	summary      calc.Summary
	disclaimer   bool
}

func newPlan(doc model.OfferDocument, variant Variant, l labels) plan {
	offer := doc.Offer
	return plan{
		partColumns:  partColumns(offer.Parts, variant, l),
		laborColumns: laborColumns(offer.Labor, l),
		summary:      calc.Summarize(offer.Parts, offer.Labor, offer.DiscountPercent),
		disclaimer:   variant != VariantServiceCard,
	}
}

// showPartNumbers is false for service cards and for part lists where no
// part carries a number.
func showPartNumbers(parts []model.PartItem, variant Variant) bool {
	if variant == VariantServiceCard {
		return false
	}
	for _, part := range parts {
		if strings.TrimSpace(part.PartNumber) != "" {
			return true
		}
	}
	return false
}

func partColumns(parts []model.PartItem, variant Variant, l labels) []column {
	if len(parts) == 0 {
		return nil
	}
	if showPartNumbers(parts, variant) {
		return []column{
			{colIndex, l.colIndex, 8, "C"},
			{colDescription, l.colDescription, 52, "L"},
			{colBrand, l.colBrand, 24, "L"},
			{colPartNumber, l.colPartNumber, 28, "L"},
			{colQuantity, l.colQuantity, 12, "R"},
			{colUnitPrice, l.colUnitPrice, 31, "R"},
			{colLineTotal, l.colLineTotal, 31, "R"},
		}
	}
	return []column{
		{colIndex, l.colIndex, 8, "C"},
		{colDescription, l.colDescription, 80, "L"},
		{colBrand, l.colBrand, 24, "L"},
		{colQuantity, l.colQuantity, 12, "R"},
		{colUnitPrice, l.colUnitPrice, 31, "R"},
		{colLineTotal, l.colLineTotal, 31, "R"},
	}
}

func laborColumns(labor []model.LaborItem, l labels) []column {
	if len(labor) == 0 {
		return nil
	}
	return []column{
		{colIndex, l.colIndex, 8, "C"},
		{colAction, l.colAction, 87, "L"},
		{colDuration, l.colDuration, 18, "C"},
		{colRate, l.colRate, 36.5, "R"},
		{colLineTotal, l.colLineTotal, 36.5, "R"},
	}
}

func summaryColumns(l labels) []column {
	return []column{
		{colCategory, "", 46, "L"},
		{colNet, l.colNet, 38, "R"},
		{colVATRate, l.colVATRate, 20, "R"},
		{colVAT, l.colVAT, 38, "R"},
		{colGross, l.colGross, 44, "R"},
	}
}
