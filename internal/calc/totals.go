// Package calc derives offer totals from line items. Every function is pure:
// identical inputs always give identical results and nothing is rounded
// between steps. Rounding happens only when values are formatted.
package calc

import "github.com/nurpe/autoservice-offers/internal/model"

const (
	// VATRate is the fixed Bulgarian VAT rate.
	VATRate = 0.20
	// EURToBGN is the fixed currency board rate.
	EURToBGN = 1.95583
)

type Totals struct {
	PartsSubtotal   float64
	LaborSubtotal   float64
	Subtotal        float64
	DiscountPercent float64
	DiscountAmount  float64
	NetTotal        float64
	VATAmount       float64
	GrossTotal      float64
}

// BGN returns the totals with every money field converted to BGN.
func (t Totals) BGN() Totals {
	return Totals{
		PartsSubtotal:   ToBGN(t.PartsSubtotal),
		LaborSubtotal:   ToBGN(t.LaborSubtotal),
		Subtotal:        ToBGN(t.Subtotal),
		DiscountPercent: t.DiscountPercent,
		DiscountAmount:  ToBGN(t.DiscountAmount),
		NetTotal:        ToBGN(t.NetTotal),
		VATAmount:       ToBGN(t.VATAmount),
		GrossTotal:      ToBGN(t.GrossTotal),
	}
}

func ToBGN(eur float64) float64 {
	return eur * EURToBGN
}

// GrossOf adds VAT to a net amount.
func GrossOf(net float64) float64 {
	return net * (1 + VATRate)
}

func PartLineTotal(item model.PartItem) float64 {
	return item.UnitPrice * float64(item.Quantity)
}

func LaborHours(item model.LaborItem) float64 {
	return ParseDurationToHours(item.TimeRequired)
}

func LaborLineTotal(item model.LaborItem) float64 {
	return LaborHours(item) * item.PricePerHour
}

// ComputeTotals does not validate its input; the discount is expected to be
// within 0..100 already.
func ComputeTotals(parts []model.PartItem, labor []model.LaborItem, discountPercent float64) Totals {
	var t Totals
	for _, part := range parts {
		t.PartsSubtotal += PartLineTotal(part)
	}
	for _, item := range labor {
		t.LaborSubtotal += LaborLineTotal(item)
	}

	t.Subtotal = t.PartsSubtotal + t.LaborSubtotal
	t.DiscountPercent = discountPercent
	t.DiscountAmount = t.Subtotal * (discountPercent / 100)
	t.NetTotal = t.Subtotal - t.DiscountAmount
	t.VATAmount = t.NetTotal * VATRate
	t.GrossTotal = t.NetTotal + t.VATAmount
	return t
}

func OfferTotals(offer model.Offer) Totals {
	return ComputeTotals(offer.Parts, offer.Labor, offer.DiscountPercent)
}

func SumPrepayments(prepayments []model.Prepayment) float64 {
	total := 0.0
	for _, p := range prepayments {
		total += p.Amount
	}
	return total
}

// AmountDue is what remains to be paid after prepayments, never below zero.
func AmountDue(gross float64, prepayments []model.Prepayment) float64 {
	due := gross - SumPrepayments(prepayments)
	if due < 0 {
		return 0
	}
	return due
}
