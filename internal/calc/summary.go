package calc

import "github.com/nurpe/autoservice-offers/internal/model"

type Category string

const (
	CategoryParts Category = "parts"
	CategoryLabor Category = "labor"
	CategoryTotal Category = "total"
)

// CategorySummary is one row of the VAT summary. Net is after discount.
type CategorySummary struct {
	Category Category
	Subtotal float64
	Net      float64
	VATRate  float64
	VAT      float64
	Gross    float64
}

type Summary struct {
	Categories      []CategorySummary
	DiscountPercent float64
	DiscountAmount  float64
	Total           CategorySummary
}

// Summarize splits the offer totals per category. The discount is spread
// proportionally, so category nets add up to Totals.NetTotal and the total
// row is taken from ComputeTotals itself.
func Summarize(parts []model.PartItem, labor []model.LaborItem, discountPercent float64) Summary {
	totals := ComputeTotals(parts, labor, discountPercent)
	factor := 1 - discountPercent/100

	summary := Summary{
		DiscountPercent: totals.DiscountPercent,
		DiscountAmount:  totals.DiscountAmount,
		Total: CategorySummary{
			Category: CategoryTotal,
			Subtotal: totals.Subtotal,
			Net:      totals.NetTotal,
			VATRate:  VATRate,
			VAT:      totals.VATAmount,
			Gross:    totals.GrossTotal,
		},
	}
	if len(parts) > 0 {
		summary.Categories = append(summary.Categories, categoryRow(CategoryParts, totals.PartsSubtotal, factor))
	}
	if len(labor) > 0 {
		summary.Categories = append(summary.Categories, categoryRow(CategoryLabor, totals.LaborSubtotal, factor))
	}
	return summary
}

func categoryRow(category Category, subtotal, factor float64) CategorySummary {
	net := subtotal * factor
	return CategorySummary{
		Category: category,
		Subtotal: subtotal,
		Net:      net,
		VATRate:  VATRate,
		VAT:      net * VATRate,
		Gross:    GrossOf(net),
	}
}
