package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/autoservice-offers/internal/calc"
	"github.com/nurpe/autoservice-offers/internal/model"
	"github.com/nurpe/autoservice-offers/internal/service"
)

type partRequest struct {
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	PartNumber  string  `json:"part_number"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

type laborRequest struct {
	ActionName   string  `json:"action_name"`
	TimeRequired string  `json:"time_required"`
	PricePerHour float64 `json:"price_per_hour"`
}

type prepaymentRequest struct {
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
	PaidAt string  `json:"paid_at"`
}

type offerRequest struct {
	ClientID        string              `json:"client_id"`
	VehicleID       string              `json:"vehicle_id"`
	CustomerName    string              `json:"customer_name"`
	CustomerPhone   string              `json:"customer_phone"`
	CustomerEmail   string              `json:"customer_email"`
	VehicleMake     string              `json:"vehicle_make"`
	VehicleModel    string              `json:"vehicle_model"`
	VehiclePlate    string              `json:"vehicle_plate"`
	VIN             string              `json:"vin"`
	Mileage         *int                `json:"mileage"`
	DiscountPercent float64             `json:"discount_percent"`
	Notes           string              `json:"notes"`
	Parts           []partRequest       `json:"parts"`
	Labor           []laborRequest      `json:"labor"`
	Prepayments     []prepaymentRequest `json:"prepayments"`
}

type calculateRequest struct {
	Parts           []partRequest       `json:"parts"`
	Labor           []laborRequest      `json:"labor"`
	DiscountPercent float64             `json:"discount_percent"`
	Prepayments     []prepaymentRequest `json:"prepayments"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (r offerRequest) toInput() (service.OfferInput, error) {
	clientID, err := optionalUUID(r.ClientID)
	if err != nil {
		return service.OfferInput{}, fmt.Errorf("%w: invalid client_id", service.ErrInvalidInput)
	}
	vehicleID, err := optionalUUID(r.VehicleID)
	if err != nil {
		return service.OfferInput{}, fmt.Errorf("%w: invalid vehicle_id", service.ErrInvalidInput)
	}
	prepayments, err := toPrepayments(r.Prepayments)
	if err != nil {
		return service.OfferInput{}, err
	}
	return service.OfferInput{
		ClientID:        clientID,
		VehicleID:       vehicleID,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerEmail:   r.CustomerEmail,
		VehicleMake:     r.VehicleMake,
		VehicleModel:    r.VehicleModel,
		VehiclePlate:    r.VehiclePlate,
		VIN:             r.VIN,
		Mileage:         r.Mileage,
		DiscountPercent: r.DiscountPercent,
		Notes:           r.Notes,
		Parts:           toParts(r.Parts),
		Labor:           toLabor(r.Labor),
		Prepayments:     prepayments,
	}, nil
}

func (r calculateRequest) toInput() (service.CalculateInput, error) {
	prepayments, err := toPrepayments(r.Prepayments)
	if err != nil {
		return service.CalculateInput{}, err
	}
	return service.CalculateInput{
		Parts:           toParts(r.Parts),
		Labor:           toLabor(r.Labor),
		DiscountPercent: r.DiscountPercent,
		Prepayments:     prepayments,
	}, nil
}

func toParts(items []partRequest) []model.PartItem {
	parts := make([]model.PartItem, 0, len(items))
	for _, item := range items {
		parts = append(parts, model.PartItem{
			Description: item.Description,
			Brand:       item.Brand,
			PartNumber:  item.PartNumber,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}
	return parts
}

func toLabor(items []laborRequest) []model.LaborItem {
	labor := make([]model.LaborItem, 0, len(items))
	for _, item := range items {
		labor = append(labor, model.LaborItem{
			ActionName:   item.ActionName,
			TimeRequired: item.TimeRequired,
			PricePerHour: item.PricePerHour,
		})
	}
	return labor
}

func toPrepayments(items []prepaymentRequest) ([]model.Prepayment, error) {
	prepayments := make([]model.Prepayment, 0, len(items))
	for i, item := range items {
		p := model.Prepayment{Amount: item.Amount, Note: item.Note}
		if strings.TrimSpace(item.PaidAt) != "" {
			paid, err := parseDate(item.PaidAt)
			if err != nil {
				return nil, fmt.Errorf("%w: prepayment %d: invalid paid_at", service.ErrInvalidInput, i+1)
			}
			p.PaidAt = &paid
		}
		prepayments = append(prepayments, p)
	}
	return prepayments, nil
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type moneyResponse struct {
	EUR     float64 `json:"eur"`
	BGN     float64 `json:"bgn"`
	Display string  `json:"display"`
}

func money(eur float64) moneyResponse {
	return moneyResponse{
		EUR:     calc.Round2(eur),
		BGN:     calc.Round2(calc.ToBGN(eur)),
		Display: calc.FormatDual(eur),
	}
}

type totalsResponse struct {
	PartsSubtotal   moneyResponse `json:"parts_subtotal"`
	LaborSubtotal   moneyResponse `json:"labor_subtotal"`
	Subtotal        moneyResponse `json:"subtotal"`
	DiscountPercent float64       `json:"discount_percent"`
	DiscountAmount  moneyResponse `json:"discount_amount"`
	NetTotal        moneyResponse `json:"net_total"`
	VATRate         float64       `json:"vat_rate"`
	VATAmount       moneyResponse `json:"vat_amount"`
	GrossTotal      moneyResponse `json:"gross_total"`
}

func newTotalsResponse(t calc.Totals) totalsResponse {
	return totalsResponse{
		PartsSubtotal:   money(t.PartsSubtotal),
		LaborSubtotal:   money(t.LaborSubtotal),
		Subtotal:        money(t.Subtotal),
		DiscountPercent: t.DiscountPercent,
		DiscountAmount:  money(t.DiscountAmount),
		NetTotal:        money(t.NetTotal),
		VATRate:         calc.VATRate,
		VATAmount:       money(t.VATAmount),
		GrossTotal:      money(t.GrossTotal),
	}
}

type summaryRowResponse struct {
	Category string        `json:"category"`
	Net      moneyResponse `json:"net"`
	VATRate  string        `json:"vat_rate"`
	VAT      moneyResponse `json:"vat"`
	Gross    moneyResponse `json:"gross"`
}

func newSummaryRows(summary calc.Summary) []summaryRowResponse {
	rows := make([]summaryRowResponse, 0, len(summary.Categories)+1)
	for _, row := range summary.Categories {
		rows = append(rows, newSummaryRow(row))
	}
	return append(rows, newSummaryRow(summary.Total))
}

func newSummaryRow(row calc.CategorySummary) summaryRowResponse {
	return summaryRowResponse{
		Category: string(row.Category),
		Net:      money(row.Net),
		VATRate:  calc.FormatPercent(row.VATRate),
		VAT:      money(row.VAT),
		Gross:    money(row.Gross),
	}
}

type calculationResponse struct {
	Totals    totalsResponse       `json:"totals"`
	Summary   []summaryRowResponse `json:"summary"`
	Prepaid   moneyResponse        `json:"prepaid"`
	AmountDue moneyResponse        `json:"amount_due"`
}

func newCalculationResponse(result service.CalculationResult) calculationResponse {
	return calculationResponse{
		Totals:    newTotalsResponse(result.Totals),
		Summary:   newSummaryRows(result.Summary),
		Prepaid:   money(result.Prepaid),
		AmountDue: money(result.AmountDue),
	}
}

type partResponse struct {
	ID          uuid.UUID     `json:"id"`
	Description string        `json:"description"`
	Brand       string        `json:"brand"`
	PartNumber  string        `json:"part_number"`
	UnitPrice   float64       `json:"unit_price"`
	Quantity    int           `json:"quantity"`
	LineTotal   moneyResponse `json:"line_total"`
}

type laborResponse struct {
	ID           uuid.UUID     `json:"id"`
	ActionName   string        `json:"action_name"`
	TimeRequired string        `json:"time_required"`
	Hours        float64       `json:"hours"`
	PricePerHour float64       `json:"price_per_hour"`
	LineTotal    moneyResponse `json:"line_total"`
}

type prepaymentResponse struct {
	ID     uuid.UUID  `json:"id"`
	Amount float64    `json:"amount"`
	Note   string     `json:"note"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

type offerResponse struct {
	ID              uuid.UUID            `json:"id"`
	Number          string               `json:"number"`
	ClientID        *uuid.UUID           `json:"client_id,omitempty"`
	VehicleID       *uuid.UUID           `json:"vehicle_id,omitempty"`
	CustomerName    string               `json:"customer_name"`
	CustomerPhone   string               `json:"customer_phone"`
	CustomerEmail   string               `json:"customer_email"`
	VehicleMake     string               `json:"vehicle_make"`
	VehicleModel    string               `json:"vehicle_model"`
	VehiclePlate    string               `json:"vehicle_plate"`
	VIN             string               `json:"vin"`
	Mileage         *int                 `json:"mileage,omitempty"`
	DiscountPercent float64              `json:"discount_percent"`
	Notes           string               `json:"notes"`
	Status          model.OfferStatus    `json:"status"`
	CreatedBy       uuid.UUID            `json:"created_by"`
	CreatedByName   string               `json:"created_by_name"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Parts           []partResponse       `json:"parts"`
	Labor           []laborResponse      `json:"labor"`
	Prepayments     []prepaymentResponse `json:"prepayments"`
	Totals          totalsResponse       `json:"totals"`
	AmountDue       moneyResponse        `json:"amount_due"`
}

func newOfferResponse(offer model.Offer) offerResponse {
	totals := calc.OfferTotals(offer)
	resp := offerResponse{
		ID:              offer.ID,
		Number:          offer.Number,
		ClientID:        offer.ClientID,
		VehicleID:       offer.VehicleID,
		CustomerName:    offer.CustomerName,
		CustomerPhone:   offer.CustomerPhone,
		CustomerEmail:   offer.CustomerEmail,
		VehicleMake:     offer.VehicleMake,
		VehicleModel:    offer.VehicleModel,
		VehiclePlate:    offer.VehiclePlate,
		VIN:             offer.VIN,
		Mileage:         offer.Mileage,
		DiscountPercent: offer.DiscountPercent,
		Notes:           offer.Notes,
		Status:          offer.Status,
		CreatedBy:       offer.CreatedBy,
		CreatedByName:   offer.CreatedByName,
		CreatedAt:       offer.CreatedAt,
		UpdatedAt:       offer.UpdatedAt,
		Parts:           make([]partResponse, 0, len(offer.Parts)),
		Labor:           make([]laborResponse, 0, len(offer.Labor)),
		Prepayments:     make([]prepaymentResponse, 0, len(offer.Prepayments)),
		Totals:          newTotalsResponse(totals),
		AmountDue:       money(calc.AmountDue(totals.GrossTotal, offer.Prepayments)),
	}
	for _, part := range offer.Parts {
		resp.Parts = append(resp.Parts, partResponse{
			ID:          part.ID,
			Description: part.Description,
			Brand:       part.Brand,
			PartNumber:  part.PartNumber,
			UnitPrice:   part.UnitPrice,
			Quantity:    part.Quantity,
			LineTotal:   money(calc.PartLineTotal(part)),
		})
	}
	for _, item := range offer.Labor {
		resp.Labor = append(resp.Labor, laborResponse{
			ID:           item.ID,
			ActionName:   item.ActionName,
			TimeRequired: item.TimeRequired,
			Hours:        calc.LaborHours(item),
			PricePerHour: item.PricePerHour,
			LineTotal:    money(calc.LaborLineTotal(item)),
		})
	}
	for _, p := range offer.Prepayments {
		resp.Prepayments = append(resp.Prepayments, prepaymentResponse{
			ID:     p.ID,
			Amount: p.Amount,
			Note:   p.Note,
			PaidAt: p.PaidAt,
		})
	}
	return resp
}

type listResponse struct {
	Items  []offerResponse `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
