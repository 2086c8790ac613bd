package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/autoservice-offers/internal/calc"
	"github.com/nurpe/autoservice-offers/internal/config"
	"github.com/nurpe/autoservice-offers/internal/model"
	"github.com/nurpe/autoservice-offers/internal/pdf"
	"github.com/nurpe/autoservice-offers/internal/repository"
)

const (
	defaultListLimit     = 50
	maxListLimit         = 200
	maxExportOffers      = 1000
	defaultRenderTimeout = 30 * time.Second

	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type OfferService struct {
	store    OfferStore
	numbers  NumberGenerator
	renderer DocumentRenderer
	workbook WorkbookGenerator
	issuer   model.Issuer
	region   string
	location *time.Location
	log      zerolog.Logger

	now           func() time.Time
	fallbackSeq   func() int
	renderTimeout time.Duration
}

func NewOfferService(
	store OfferStore,
	numbers NumberGenerator,
	renderer DocumentRenderer,
	workbook WorkbookGenerator,
	cfg *config.Config,
	log zerolog.Logger,
) *OfferService {
	location := cfg.Offers.Location
	if location == nil {
		location = time.UTC
	}
	region := cfg.Offers.PhoneRegion
	if region == "" {
		region = "BG"
	}
	return &OfferService{
		store:         store,
		numbers:       numbers,
		renderer:      renderer,
		workbook:      workbook,
		issuer:        cfg.Company,
		region:        region,
		location:      location,
		log:           log,
		now:           time.Now,
		fallbackSeq:   func() int { return rand.Intn(1_000_000) },
		renderTimeout: defaultRenderTimeout,
	}
}

type CalculateInput struct {
	Parts           []model.PartItem
	Labor           []model.LaborItem
	DiscountPercent float64
	Prepayments     []model.Prepayment
}

type CalculationResult struct {
	Totals       calc.Totals
	TotalsBGN    calc.Totals
	Summary      calc.Summary
	Prepaid      float64
	AmountDue    float64
	AmountDueBGN float64
}

type ListResult struct {
	Items  []model.Offer
	Total  int64
	Limit  int
	Offset int
}

type ExportOptions struct {
	Variant    pdf.Variant
	Locale     pdf.Locale
	FontFamily string
}

type FileResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Calculate derives the on-screen totals of unsaved line items. It trusts
// its input the same way the calculator does, but refuses results that
// cannot be represented.
func (s *OfferService) Calculate(input CalculateInput) (CalculationResult, error) {
	totals := calc.ComputeTotals(input.Parts, input.Labor, input.DiscountPercent)
	due := calc.AmountDue(totals.GrossTotal, input.Prepayments)
	result := CalculationResult{
		Totals:       totals,
		TotalsBGN:    totals.BGN(),
		Summary:      calc.Summarize(input.Parts, input.Labor, input.DiscountPercent),
		Prepaid:      calc.SumPrepayments(input.Prepayments),
		AmountDue:    due,
		AmountDueBGN: calc.ToBGN(due),
	}
	if !result.finite() {
		return CalculationResult{}, fmt.Errorf("%w: amounts are too large", ErrInvalidInput)
	}
	return result, nil
}

func (r CalculationResult) finite() bool {
	values := []float64{r.Prepaid, r.AmountDue, r.AmountDueBGN, r.Summary.DiscountAmount,
		r.Summary.Total.Net, r.Summary.Total.VAT, r.Summary.Total.Gross}
	for _, t := range []calc.Totals{r.Totals, r.TotalsBGN} {
		values = append(values, t.PartsSubtotal, t.LaborSubtotal, t.Subtotal, t.DiscountPercent,
			t.DiscountAmount, t.NetTotal, t.VATAmount, t.GrossTotal)
	}
	for _, row := range r.Summary.Categories {
		values = append(values, row.Net, row.VAT, row.Gross)
	}
	for _, v := range values {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

func (s *OfferService) Create(ctx context.Context, input OfferInput, principal model.Principal) (*model.Offer, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	offer, err := buildOffer(input, s.region)
	if err != nil {
		return nil, err
	}

	offer.Number = s.nextNumber(ctx)
	offer.Status = model.OfferStatusDraft
	offer.CreatedBy = principal.UserID
	offer.CreatedByName = principal.DisplayName()

	if err := s.store.Create(ctx, &offer); err != nil {
		return nil, fmt.Errorf("save offer: %w", err)
	}
	s.log.Info().
		Str("offer_id", offer.ID.String()).
		Str("number", offer.Number).
		Str("user_id", principal.UserID.String()).
		Msg("offer created")
	return &offer, nil
}

// Update replaces the editable fields and every line item of an offer. The
// number, status, creator and creation time are kept.
func (s *OfferService) Update(ctx context.Context, id uuid.UUID, input OfferInput, principal model.Principal) (*model.Offer, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	changes, err := buildOffer(input, s.region)
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes.ID = current.ID
	changes.Number = current.Number
	changes.Status = current.Status
	changes.CreatedBy = current.CreatedBy
	changes.CreatedByName = current.CreatedByName
	changes.CreatedAt = current.CreatedAt

	if err := s.store.Update(ctx, &changes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("save offer: %w", err)
	}
	return &changes, nil
}

func (s *OfferService) Get(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	if id == uuid.Nil {
		return nil, ErrNotFound
	}
	offer, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return offer, nil
}

func (s *OfferService) List(ctx context.Context, filter repository.ListFilter) (*ListResult, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *filter.Status)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	offers, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: offers, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *OfferService) Delete(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if !principal.CanEdit() {
		return ErrPermissionDenied
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete offer: %w", err)
	}
	s.log.Info().Str("offer_id", id.String()).Str("user_id", principal.UserID.String()).Msg("offer deleted")
	return nil
}

func (s *OfferService) SetStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus, principal model.Principal) (*model.Offer, error) {
	if !principal.CanEdit() {
		return nil, ErrPermissionDenied
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer.Status == status {
		return offer, nil
	}
	if !model.CanTransition(offer.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, offer.Status, status)
	}

	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("save offer status: %w", err)
	}
	offer.Status = status
	offer.UpdatedAt = s.now().UTC()
	return offer, nil
}

// ExportPDF renders a stored offer. Failures here are reported as
// ErrDocumentGeneration and never touch the stored offer.
func (s *OfferService) ExportPDF(ctx context.Context, id uuid.UUID, opts ExportOptions) (*FileResult, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderFile(ctx, *offer, opts)
}

// PreviewPDF renders an unsaved offer, typically straight from the edit
// form. The file is named as a draft.
func (s *OfferService) PreviewPDF(ctx context.Context, input OfferInput, opts ExportOptions, principal model.Principal) (*FileResult, error) {
	offer, err := buildOffer(input, s.region)
	if err != nil {
		return nil, err
	}
	offer.Status = model.OfferStatusDraft
	offer.CreatedBy = principal.UserID
	offer.CreatedByName = principal.DisplayName()
	offer.CreatedAt = s.now().UTC()
	return s.renderFile(ctx, offer, opts)
}

func (s *OfferService) ExportWorkbook(ctx context.Context, filter repository.ListFilter) (*FileResult, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *filter.Status)
	}
	filter.Limit = maxExportOffers
	filter.Offset = 0

	offers, _, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	docs := make([]model.OfferDocument, 0, len(offers))
	for _, offer := range offers {
		docs = append(docs, s.document(offer))
	}
	content, err := s.workbook.Generate(docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentGeneration, err)
	}
	return &FileResult{
		FileName:    fmt.Sprintf("offers-%s.xlsx", s.now().In(s.location).Format("20060102")),
		ContentType: contentTypeXLSX,
		Content:     content,
	}, nil
}

func (s *OfferService) renderFile(ctx context.Context, offer model.Offer, opts ExportOptions) (*FileResult, error) {
	if opts.Variant == "" {
		opts.Variant = pdf.VariantCustomerOffer
	}
	content, err := s.render(ctx, s.document(offer), pdf.RenderOptions{
		Variant:    opts.Variant,
		Locale:     opts.Locale,
		FontFamily: opts.FontFamily,
		Now:        s.now(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("offer_id", offer.ID.String()).Str("variant", string(opts.Variant)).Msg("render offer document")
		return nil, err
	}
	return &FileResult{
		FileName:    pdf.FileName(opts.Variant, offer.Number),
		ContentType: contentTypePDF,
		Content:     content,
	}, nil
}

// render runs the renderer on its own goroutine so that a stuck layout
// cannot outlive the request.
func (s *OfferService) render(ctx context.Context, doc model.OfferDocument, opts pdf.RenderOptions) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	type result struct {
		content []byte
		err     error
	}
	done := make(chan result, 1)
	go func() {
		content, err := s.renderer.Render(doc, opts)
		done <- result{content: content, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrDocumentGeneration, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDocumentGeneration, res.err)
		}
		if len(res.content) == 0 {
			return nil, fmt.Errorf("%w: empty document", ErrDocumentGeneration)
		}
		return res.content, nil
	}
}

func (s *OfferService) document(offer model.Offer) model.OfferDocument {
	return model.OfferDocument{Offer: offer, Issuer: s.issuer}
}

// nextNumber asks the sequence for an offer number. A failing sequence must
// not block the save, so a random number is issued instead.
func (s *OfferService) nextNumber(ctx context.Context) string {
	number, err := s.numbers.Next(ctx)
	if err == nil && number != "" {
		return number
	}
	fallback := fmt.Sprintf("%d-R%06d", s.now().In(s.location).Year(), s.fallbackSeq())
	s.log.Warn().Err(err).Str("number", fallback).Msg("offer number sequence unavailable, using fallback number")
	return fallback
}
