package service

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	"github.com/nurpe/autoservice-offers/internal/calc"
	"github.com/nurpe/autoservice-offers/internal/model"
)

// Limits follow the column types in db/migrations.go.
const (
	maxVINLength      = 17
	maxNotesLength    = 4000
	maxDurationLength = 32
	maxMileage        = 9_999_999
	maxAmount         = 1_000_000
	maxQuantity       = 10_000
	maxLaborHours     = 1_000
)

var validate = validator.New()

// OfferInput is the editable part of an offer as submitted by the admin
// form. Item order is the display order.
type OfferInput struct {
	ClientID        *uuid.UUID
	VehicleID       *uuid.UUID
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	VehicleMake     string
	VehicleModel    string
	VehiclePlate    string
	VIN             string
	Mileage         *int
	DiscountPercent float64
	Notes           string
	Parts           []model.PartItem
	Labor           []model.LaborItem
	Prepayments     []model.Prepayment
}

// buildOffer checks input and returns the normalized offer fields. Identity,
// number, status and audit fields are left for the caller.
func buildOffer(input OfferInput, phoneRegion string) (model.Offer, error) {
	offer := model.Offer{
		ClientID:        input.ClientID,
		VehicleID:       input.VehicleID,
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		VehicleMake:     strings.TrimSpace(input.VehicleMake),
		VehicleModel:    strings.TrimSpace(input.VehicleModel),
		VehiclePlate:    normalizePlate(input.VehiclePlate),
		VIN:             strings.ToUpper(strings.TrimSpace(input.VIN)),
		Mileage:         input.Mileage,
		DiscountPercent: input.DiscountPercent,
		Notes:           strings.TrimSpace(input.Notes),
	}

	if offer.CustomerName == "" {
		return model.Offer{}, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if !isFinite(offer.DiscountPercent) || offer.DiscountPercent < 0 || offer.DiscountPercent > 100 {
		return model.Offer{}, fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidInput)
	}
	if !hasCents(offer.DiscountPercent) {
		return model.Offer{}, fmt.Errorf("%w: discount must have at most 2 decimal places", ErrInvalidInput)
	}
	if offer.Mileage != nil && (*offer.Mileage < 0 || *offer.Mileage > maxMileage) {
		return model.Offer{}, fmt.Errorf("%w: mileage must be between 0 and %d", ErrInvalidInput, maxMileage)
	}
	if len([]rune(offer.VIN)) > maxVINLength {
		return model.Offer{}, fmt.Errorf("%w: vin must be at most %d characters", ErrInvalidInput, maxVINLength)
	}
	if len([]rune(offer.Notes)) > maxNotesLength {
		return model.Offer{}, fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, maxNotesLength)
	}

	phone, err := normalizePhone(input.CustomerPhone, phoneRegion)
	if err != nil {
		return model.Offer{}, err
	}
	offer.CustomerPhone = phone

	if offer.CustomerEmail != "" {
		if err := validate.Var(offer.CustomerEmail, "email,max=254"); err != nil {
			return model.Offer{}, fmt.Errorf("%w: invalid customer email", ErrInvalidInput)
		}
	}

	offer.Parts = make([]model.PartItem, 0, len(input.Parts))
	for i, part := range input.Parts {
		part.Description = strings.TrimSpace(part.Description)
		part.Brand = strings.TrimSpace(part.Brand)
		part.PartNumber = strings.TrimSpace(part.PartNumber)
		switch {
		case part.Description == "":
			return model.Offer{}, fmt.Errorf("%w: part %d: description is required", ErrInvalidInput, i+1)
		case part.Quantity < 1 || part.Quantity > maxQuantity:
			return model.Offer{}, fmt.Errorf("%w: part %d: quantity must be between 1 and %d", ErrInvalidInput, i+1, maxQuantity)
		}
		if err := checkAmount(part.UnitPrice, false); err != nil {
			return model.Offer{}, fmt.Errorf("%w: part %d: unit price %s", ErrInvalidInput, i+1, err)
		}
		part.ID = uuid.Nil
		part.SortOrder = i
		offer.Parts = append(offer.Parts, part)
	}

	offer.Labor = make([]model.LaborItem, 0, len(input.Labor))
	for i, item := range input.Labor {
		item.ActionName = strings.TrimSpace(item.ActionName)
		item.TimeRequired = strings.TrimSpace(item.TimeRequired)
		switch {
		case item.ActionName == "":
			return model.Offer{}, fmt.Errorf("%w: labor %d: action is required", ErrInvalidInput, i+1)
		case len([]rune(item.TimeRequired)) > maxDurationLength:
			return model.Offer{}, fmt.Errorf("%w: labor %d: duration must be at most %d characters", ErrInvalidInput, i+1, maxDurationLength)
		case calc.ParseDurationToHours(item.TimeRequired) > maxLaborHours:
			return model.Offer{}, fmt.Errorf("%w: labor %d: duration must be at most %d hours", ErrInvalidInput, i+1, maxLaborHours)
		}
		if err := checkAmount(item.PricePerHour, false); err != nil {
			return model.Offer{}, fmt.Errorf("%w: labor %d: price per hour %s", ErrInvalidInput, i+1, err)
		}
		item.ID = uuid.Nil
		item.SortOrder = i
		offer.Labor = append(offer.Labor, item)
	}

	if !offer.HasItems() {
		return model.Offer{}, fmt.Errorf("%w: at least one part or labor item is required", ErrInvalidInput)
	}

	offer.Prepayments = make([]model.Prepayment, 0, len(input.Prepayments))
	for i, p := range input.Prepayments {
		if err := checkAmount(p.Amount, true); err != nil {
			return model.Offer{}, fmt.Errorf("%w: prepayment %d: amount %s", ErrInvalidInput, i+1, err)
		}
		p.ID = uuid.Nil
		p.Note = strings.TrimSpace(p.Note)
		if p.PaidAt != nil {
			paid := p.PaidAt.UTC()
			p.PaidAt = &paid
		}
		offer.Prepayments = append(offer.Prepayments, p)
	}

	return offer, nil
}

// normalizePhone formats a customer phone number as E.164. Numbers without
// a country code are read in the shop's region.
func normalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if strings.HasPrefix(raw, "00") {
		raw = "+" + strings.TrimPrefix(raw, "00")
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "", fmt.Errorf("%w: invalid customer phone %q", ErrInvalidInput, raw)
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

func normalizePlate(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// checkAmount reports why a money value cannot be stored as NUMERIC(12,2)
// without rounding.
func checkAmount(value float64, positive bool) error {
	switch {
	case !isFinite(value):
		return errors.New("must be a number")
	case positive && value <= 0:
		return errors.New("must be positive")
	case value < 0:
		return errors.New("must not be negative")
	case value > maxAmount:
		return fmt.Errorf("must be at most %d", maxAmount)
	case !hasCents(value):
		return errors.New("must have at most 2 decimal places")
	}
	return nil
}

func hasCents(value float64) bool {
	scaled := value * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
