package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"github.com/nurpe/autoservice-offers/internal/calc"
	"github.com/nurpe/autoservice-offers/internal/model"
)

const (
	pageMargin   = 12.0
	bottomMargin = 16.0
	contentWidth = 210 - 2*pageMargin
	lineHeight   = 4.0
	cellPadding  = 1.2
	tableFont    = 8.0
	placeholder  = "-"
)

type RenderOptions struct {
	Variant Variant
	Locale  Locale
	// FontFamily selects the typeface for this call. Empty means the
	// generator's default family; unknown names use the core font.
	FontFamily string
	// Now is the issuance timestamp printed in the footer.
	Now time.Time
}

type Generator struct {
	// fonts holds the configured family, if any, followed by the embedded
	// default family.
	fonts    []FontSet
	location *time.Location
	log      zerolog.Logger
}

// NewGenerator registers the configured font family ahead of the embedded
// DejaVu Sans. An empty set leaves DejaVu Sans as the default.
func NewGenerator(configured FontSet, location *time.Location, log zerolog.Logger) *Generator {
	if location == nil {
		location = time.UTC
	}
	fonts := make([]FontSet, 0, 2)
	if !configured.Empty() && !strings.EqualFold(configured.Family, DefaultFontFamily) {
		fonts = append(fonts, configured)
	}
	fonts = append(fonts, DefaultFontSet())
	return &Generator{fonts: fonts, location: location, log: log}
}

// DefaultFamily is the family used when a call does not name one.
func (g *Generator) DefaultFamily() string {
	return g.fonts[0].Family
}

// Render lays out the offer as an A4 document. A failing embedded font is
// not fatal: the document is rendered again with DejaVu Sans and, if that
// fails too, with the core typeface.
func (g *Generator) Render(doc model.OfferDocument, opts RenderOptions) ([]byte, error) {
	opts = g.normalize(opts)
	chosen := g.resolveFace(opts.FontFamily)

	out, err := g.render(doc, opts, chosen)
	if err == nil || !chosen.embedded {
		return out, err
	}

	if !strings.EqualFold(chosen.family, DefaultFontFamily) {
		g.log.Warn().Err(err).Str("font", chosen.family).Msg("embedded font failed, using default font")
		out, err = g.render(doc, opts, embeddedFace(DefaultFontSet()))
		if err == nil {
			return out, nil
		}
	}

	g.log.Warn().Err(err).Str("font", DefaultFontFamily).Msg("embedded font failed, using core font")
	return g.render(doc, opts, coreFace)
}

func (g *Generator) normalize(opts RenderOptions) RenderOptions {
	if opts.Variant != VariantServiceCard {
		opts.Variant = VariantCustomerOffer
	}
	if _, ok := localeLabels[opts.Locale]; !ok {
		opts.Locale = LocaleBG
	}
	if strings.TrimSpace(opts.FontFamily) == "" {
		opts.FontFamily = g.DefaultFamily()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	opts.Now = opts.Now.In(g.location)
	return opts
}

func (g *Generator) resolveFace(family string) face {
	for _, set := range g.fonts {
		if strings.EqualFold(family, set.Family) {
			return embeddedFace(set)
		}
	}
	if isCoreFamily(family) {
		return face{family: family}
	}
	if family != CoreFontFamily {
		g.log.Debug().Str("font", family).Msg("font family not registered, using core font")
	}
	return coreFace
}

func (g *Generator) render(doc model.OfferDocument, opts RenderOptions, typeface face) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("render offer: %v", rec)
		}
	}()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AliasNbPages("{nb}")

	r := &renderer{
		pdf:    pdf,
		face:   typeface,
		tr:     func(s string) string { return s },
		labels: labelsFor(opts.Locale),
		opts:   opts,
		doc:    doc,
		plan:   newPlan(doc, opts.Variant, labelsFor(opts.Locale)),
	}
	if typeface.embedded {
		pdf.AddUTF8FontFromBytes(typeface.family, "", typeface.regular)
		pdf.AddUTF8FontFromBytes(typeface.family, "B", typeface.bold)
	} else {
		r.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	if pdf.Err() {
		return nil, pdf.Error()
	}

	pdf.SetTitle(r.documentTitle(), true)
	pdf.SetAuthor(doc.Issuer.Name, true)
	pdf.SetCreator("autoservice-offers", true)
	pdf.SetFooterFunc(r.pageFooter)

	pdf.AddPage()
	r.header()
	r.title()
	if len(r.plan.partColumns) > 0 {
		r.partsTable()
	}
	if len(r.plan.laborColumns) > 0 {
		r.laborTable()
	}
	r.summary()
	if len(doc.Offer.Prepayments) > 0 {
		r.prepayments()
	}
	r.notes()
	r.closing()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type renderer struct {
	pdf    *gofpdf.Fpdf
	face   face
	tr     func(string) string
	labels labels
	opts   RenderOptions
	doc    model.OfferDocument
	plan   plan
}

func (r *renderer) font(style string, size float64) {
	r.pdf.SetFont(r.face.family, style, size)
}

func (r *renderer) text(w, h float64, txt, align string) {
	r.pdf.CellFormat(w, h, r.tr(txt), "", 0, align, false, 0, "")
}

func (r *renderer) line(h float64, txt, align string) {
	r.pdf.CellFormat(0, h, r.tr(txt), "", 1, align, false, 0, "")
}

func (r *renderer) width(txt string) float64 {
	return r.pdf.GetStringWidth(r.tr(txt))
}

func (r *renderer) documentTitle() string {
	title := r.labels.offerTitle
	if r.opts.Variant == VariantServiceCard {
		title = r.labels.serviceCardTitle
	}
	if number := strings.TrimSpace(r.doc.Offer.Number); number != "" {
		return fmt.Sprintf("%s № %s", title, number)
	}
	return fmt.Sprintf("%s (%s)", title, r.labels.draft)
}

func (r *renderer) header() {
	issuer := r.doc.Issuer
	offer := r.doc.Offer
	half := contentWidth / 2
	top := r.pdf.GetY()

	r.font("B", 12)
	r.pdf.SetX(pageMargin)
	r.line(6, safeValue(issuer.Name), "L")
	r.font("", 8.5)
	for _, row := range []string{
		fmt.Sprintf("%s: %s", r.labels.address, safeValue(issuer.Address)),
		fmt.Sprintf("%s: %s", r.labels.phone, safeValue(issuer.Phone)),
		fmt.Sprintf("%s: %s", r.labels.email, safeValue(issuer.Email)),
		fmt.Sprintf("%s: %s", r.labels.registrationNo, safeValue(issuer.RegistrationNo)),
		fmt.Sprintf("%s: %s", r.labels.vatNo, safeValue(issuer.VATNo)),
	} {
		r.text(half, 4.5, row, "L")
		r.pdf.Ln(4.5)
	}
	leftBottom := r.pdf.GetY()

	r.pdf.SetXY(pageMargin+half, top)
	r.font("B", 10)
	r.text(half, 6, r.labels.customer, "L")
	r.pdf.Ln(6)
	r.font("", 8.5)
	for _, row := range []string{
		safeValue(offer.CustomerName),
		fmt.Sprintf("%s: %s", r.labels.vehicle, safeValue(offer.Vehicle())),
		fmt.Sprintf("%s: %s", r.labels.plate, safeValue(offer.VehiclePlate)),
		fmt.Sprintf("%s: %s", r.labels.phone, safeValue(offer.CustomerPhone)),
	} {
		r.pdf.SetX(pageMargin + half)
		r.text(half, 4.5, row, "L")
		r.pdf.Ln(4.5)
	}
	if offer.CustomerEmail != "" {
		r.pdf.SetX(pageMargin + half)
		r.text(half, 4.5, fmt.Sprintf("%s: %s", r.labels.email, offer.CustomerEmail), "L")
		r.pdf.Ln(4.5)
	}

	bottom := r.pdf.GetY()
	if leftBottom > bottom {
		bottom = leftBottom
	}
	r.pdf.SetDrawColor(160, 160, 160)
	r.pdf.Line(pageMargin, bottom+2, pageMargin+contentWidth, bottom+2)
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetXY(pageMargin, bottom+5)
}

func (r *renderer) title() {
	offer := r.doc.Offer

	r.font("B", 15)
	r.line(8, r.documentTitle(), "C")

	r.font("", 9)
	date := offer.CreatedAt
	if date.IsZero() {
		date = r.opts.Now
	}
	r.line(5, fmt.Sprintf("%s: %s", r.labels.date, date.In(r.opts.Now.Location()).Format(r.labels.dateLayout)), "C")
	if vin := strings.TrimSpace(offer.VIN); vin != "" {
		r.line(5, fmt.Sprintf("%s: %s", r.labels.vin, vin), "C")
	}
	if offer.Mileage != nil {
		r.line(5, fmt.Sprintf("%s: %d %s", r.labels.mileage, *offer.Mileage, r.labels.km), "C")
	}
	r.pdf.Ln(3)
}

func (r *renderer) sectionTitle(title string) {
	r.ensureSpace(8 + 2*lineHeight + 2*cellPadding)
	r.font("B", 11)
	r.line(7, title, "L")
}

func (r *renderer) partsTable() {
	r.sectionTitle(r.labels.parts)
	r.tableHeader(r.plan.partColumns)
	for i, part := range r.doc.Offer.Parts {
		cells := make([]string, 0, len(r.plan.partColumns))
		for _, col := range r.plan.partColumns {
			cells = append(cells, partCell(col.key, i, part))
		}
		r.tableRow(r.plan.partColumns, cells, i%2 == 1)
	}
	r.pdf.Ln(4)
}

func (r *renderer) laborTable() {
	r.sectionTitle(r.labels.labor)
	r.tableHeader(r.plan.laborColumns)
	for i, item := range r.doc.Offer.Labor {
		cells := make([]string, 0, len(r.plan.laborColumns))
		for _, col := range r.plan.laborColumns {
			cells = append(cells, laborCell(col.key, i, item))
		}
		r.tableRow(r.plan.laborColumns, cells, i%2 == 1)
	}
	r.pdf.Ln(4)
}

func (r *renderer) summary() {
	summary := r.plan.summary
	columns := summaryColumns(r.labels)

	r.sectionTitle(r.labels.summary)
	r.tableHeader(columns)
	for i, row := range summary.Categories {
		r.tableRow(columns, summaryCells(r.categoryLabel(row.Category), row), i%2 == 1)
	}
	if summary.DiscountPercent > 0 {
		r.font("", tableFont)
		r.ensureSpace(2 * lineHeight)
		r.line(5, fmt.Sprintf("%s %s: -%s", r.labels.discount,
			calc.FormatPercent(summary.DiscountPercent/100),
			calc.FormatDual(summary.DiscountAmount)), "R")
	}
	r.tableRowStyled(columns, summaryCells(r.labels.total, summary.Total), false, "B")
	r.pdf.Ln(4)
}

func (r *renderer) prepayments() {
	offer := r.doc.Offer
	gross := r.plan.summary.Total.Gross

	r.sectionTitle(r.labels.prepayments)
	r.font("", 9)
	for _, p := range offer.Prepayments {
		label := r.labels.prepaid
		if p.PaidAt != nil {
			label += " " + p.PaidAt.In(r.opts.Now.Location()).Format(r.labels.dateLayout)
		}
		if note := strings.TrimSpace(p.Note); note != "" {
			label += " (" + note + ")"
		}
		r.ensureSpace(5)
		r.text(contentWidth-60, 5, label, "L")
		r.text(60, 5, calc.FormatDual(p.Amount), "R")
		r.pdf.Ln(5)
	}
	r.font("B", 10)
	r.ensureSpace(6)
	r.text(contentWidth-60, 6, r.labels.amountDue, "L")
	r.text(60, 6, calc.FormatDual(calc.AmountDue(gross, offer.Prepayments)), "R")
	r.pdf.Ln(8)
}

func (r *renderer) notes() {
	notes := strings.TrimSpace(r.doc.Offer.Notes)
	if notes == "" {
		return
	}
	r.sectionTitle(r.labels.notes)
	r.font("", 9)
	for _, row := range r.wrap(notes, contentWidth) {
		r.ensureSpace(4.5)
		r.line(4.5, row, "L")
	}
	r.pdf.Ln(3)
}

func (r *renderer) closing() {
	issuer := r.doc.Issuer
	offer := r.doc.Offer

	rows := []string{
		fmt.Sprintf("%s: %s", r.labels.issuedIn, safeValue(issuer.IssueLocation)),
		fmt.Sprintf("%s: %s", r.labels.issuedAt, r.opts.Now.Format(r.labels.timestampLayout)),
	}
	if name := strings.TrimSpace(offer.CreatedByName); name != "" {
		rows = append(rows, fmt.Sprintf("%s: %s", r.labels.createdBy, name))
	}
	rows = append(rows, fmt.Sprintf("%s: %s", r.labels.contact, safeValue(issuer.Email)))

	r.ensureSpace(float64(len(rows))*4.5 + 14)
	r.pdf.SetDrawColor(160, 160, 160)
	r.pdf.Line(pageMargin, r.pdf.GetY(), pageMargin+contentWidth, r.pdf.GetY())
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.Ln(2)

	r.font("", 8.5)
	for _, row := range rows {
		r.line(4.5, row, "L")
	}

	if r.plan.disclaimer {
		r.pdf.Ln(2)
		r.font("", 7.5)
		for _, row := range r.wrap(r.labels.disclaimer, contentWidth) {
			r.ensureSpace(4)
			r.line(4, row, "L")
		}
	}
}

func (r *renderer) pageFooter() {
	r.pdf.SetY(-12)
	r.font("", 7)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.CellFormat(0, 5, r.tr(fmt.Sprintf("%s %d/{nb}", r.labels.page, r.pdf.PageNo())), "", 0, "R", false, 0, "")
	r.pdf.SetTextColor(0, 0, 0)
}

func (r *renderer) categoryLabel(category calc.Category) string {
	switch category {
	case calc.CategoryParts:
		return r.labels.parts
	case calc.CategoryLabor:
		return r.labels.labor
	default:
		return r.labels.total
	}
}

// ensureSpace starts a new page when h millimetres do not fit.
func (r *renderer) ensureSpace(h float64) bool {
	_, pageHeight := r.pdf.GetPageSize()
	if r.pdf.GetY()+h <= pageHeight-bottomMargin {
		return false
	}
	r.pdf.AddPage()
	return true
}

func (r *renderer) tableHeader(columns []column) {
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.header
	}
	r.pdf.SetFillColor(225, 229, 235)
	r.drawRow(columns, headers, true, "B")
}

func (r *renderer) tableRow(columns []column, cells []string, shaded bool) {
	r.tableRowStyled(columns, cells, shaded, "")
}

func (r *renderer) tableRowStyled(columns []column, cells []string, shaded bool, style string) {
	r.font(style, tableFont)
	if r.ensureSpace(r.rowHeight(columns, cells)) {
		r.tableHeader(columns)
	}
	r.pdf.SetFillColor(245, 245, 245)
	r.drawRow(columns, cells, shaded, style)
}

func (r *renderer) rowHeight(columns []column, cells []string) float64 {
	maxLines := 1
	for i, col := range columns {
		if n := len(r.wrap(cells[i], col.width-2*cellPadding)); n > maxLines {
			maxLines = n
		}
	}
	return float64(maxLines)*lineHeight + 2*cellPadding
}

func (r *renderer) drawRow(columns []column, cells []string, fill bool, style string) {
	r.font(style, tableFont)
	h := r.rowHeight(columns, cells)
	x, y := pageMargin, r.pdf.GetY()

	rectStyle := "D"
	if fill {
		rectStyle = "FD"
	}
	for i, col := range columns {
		r.pdf.Rect(x, y, col.width, h, rectStyle)
		for j, row := range r.wrap(cells[i], col.width-2*cellPadding) {
			r.pdf.SetXY(x+cellPadding, y+cellPadding+float64(j)*lineHeight)
			r.text(col.width-2*cellPadding, lineHeight, row, col.align)
		}
		x += col.width
	}
	r.pdf.SetXY(pageMargin, y+h)
}

// wrap splits text into lines no wider than width, honouring newlines and
// breaking words that are wider than a whole line.
func (r *renderer) wrap(txt string, width float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(txt, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			for r.width(word) > width {
				head, tail := r.cut(word, width)
				if current != "" {
					lines = append(lines, current)
					current = ""
				}
				lines = append(lines, head)
				word = tail
			}
			if word == "" {
				continue
			}
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if r.width(candidate) <= width {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

// cut returns the longest prefix of word that fits in width, at least one rune.
func (r *renderer) cut(word string, width float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && r.width(string(runes[:n+1])) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

func partCell(key columnKey, index int, part model.PartItem) string {
	switch key {
	case colIndex:
		return strconv.Itoa(index + 1)
	case colDescription:
		return safeValue(part.Description)
	case colBrand:
		return safeValue(part.Brand)
	case colPartNumber:
		return safeValue(part.PartNumber)
	case colQuantity:
		return strconv.Itoa(part.Quantity)
	case colUnitPrice:
		return dualCell(calc.GrossOf(part.UnitPrice))
	case colLineTotal:
		return dualCell(calc.GrossOf(calc.PartLineTotal(part)))
	}
	return placeholder
}

func laborCell(key columnKey, index int, item model.LaborItem) string {
	switch key {
	case colIndex:
		return strconv.Itoa(index + 1)
	case colAction:
		return safeValue(item.ActionName)
	case colDuration:
		return safeValue(item.TimeRequired)
	case colRate:
		return dualCell(calc.GrossOf(item.PricePerHour))
	case colLineTotal:
		return dualCell(calc.GrossOf(calc.LaborLineTotal(item)))
	}
	return placeholder
}

func summaryCells(label string, row calc.CategorySummary) []string {
	return []string{
		label,
		dualCell(row.Net),
		calc.FormatPercent(row.VATRate),
		dualCell(row.VAT),
		dualCell(row.Gross),
	}
}

func dualCell(eur float64) string {
	return calc.FormatEUR(eur) + "\n" + calc.FormatBGN(calc.ToBGN(eur))
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
