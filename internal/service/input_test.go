package service

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/nurpe/autoservice-offers/internal/model"
)

func TestBuildOfferValidation(t *testing.T) {
	negative := -1
	tooFar := maxMileage + 1
	tests := []struct {
		name   string
		mutate func(*OfferInput)
	}{
		{"missing customer", func(in *OfferInput) { in.CustomerName = "   " }},
		{"no items", func(in *OfferInput) { in.Parts, in.Labor = nil, nil }},
		{"discount above 100", func(in *OfferInput) { in.DiscountPercent = 100.5 }},
		{"negative discount", func(in *OfferInput) { in.DiscountPercent = -1 }},
		{"nan discount", func(in *OfferInput) { in.DiscountPercent = math.NaN() }},
		{"negative mileage", func(in *OfferInput) { in.Mileage = &negative }},
		{"long vin", func(in *OfferInput) { in.VIN = "WVWZZZ1JZXW0000001" }},
		{"invalid phone", func(in *OfferInput) { in.CustomerPhone = "12" }},
		{"invalid email", func(in *OfferInput) { in.CustomerEmail = "not-an-email" }},
		{"part without description", func(in *OfferInput) { in.Parts[0].Description = "" }},
		{"part with zero quantity", func(in *OfferInput) { in.Parts[0].Quantity = 0 }},
		{"part with negative price", func(in *OfferInput) { in.Parts[0].UnitPrice = -0.01 }},
		{"labor without action", func(in *OfferInput) { in.Labor[0].ActionName = " " }},
		{"labor with negative rate", func(in *OfferInput) { in.Labor[0].PricePerHour = -5 }},
		{"labor with infinite rate", func(in *OfferInput) { in.Labor[0].PricePerHour = math.Inf(1) }},
		{"mileage overflow", func(in *OfferInput) { in.Mileage = &tooFar }},
		{"discount with fraction of a cent", func(in *OfferInput) { in.DiscountPercent = 12.345 }},
		{"email without domain", func(in *OfferInput) { in.CustomerEmail = "ivan@" }},
		{"email with display name", func(in *OfferInput) { in.CustomerEmail = "Ivan <ivan@example.com>" }},
		{"part with fraction of a cent", func(in *OfferInput) { in.Parts[0].UnitPrice = 10.125 }},
		{"part price overflow", func(in *OfferInput) { in.Parts[0].UnitPrice = 1e10 }},
		{"part quantity overflow", func(in *OfferInput) { in.Parts[0].Quantity = maxQuantity + 1 }},
		{"duration too long", func(in *OfferInput) { in.Labor[0].TimeRequired = strings.Repeat("1", maxDurationLength+1) }},
		{"duration too many hours", func(in *OfferInput) { in.Labor[0].TimeRequired = "1001:00" }},
		{"labor rate overflow", func(in *OfferInput) { in.Labor[0].PricePerHour = 1e308 }},
		{"zero prepayment", func(in *OfferInput) { in.Prepayments = []model.Prepayment{{Amount: 0}} }},
		{"prepayment with fraction of a cent", func(in *OfferInput) { in.Prepayments = []model.Prepayment{{Amount: 0.005}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			if _, err := buildOffer(input, "BG"); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestBuildOfferAcceptsSingleCategory(t *testing.T) {
	partsOnly := validInput()
	partsOnly.Labor = nil
	if _, err := buildOffer(partsOnly, "BG"); err != nil {
		t.Fatalf("parts only: %v", err)
	}

	laborOnly := validInput()
	laborOnly.Parts = nil
	laborOnly.CustomerPhone = ""
	laborOnly.CustomerEmail = ""
	offer, err := buildOffer(laborOnly, "BG")
	if err != nil {
		t.Fatalf("labor only: %v", err)
	}
	if len(offer.Parts) != 0 || len(offer.Labor) != 1 {
		t.Fatalf("unexpected items: %+v", offer)
	}
}

func TestBuildOfferKeepsDurationText(t *testing.T) {
	input := validInput()
	input.Labor = []model.LaborItem{{ActionName: "Diagnostics", TimeRequired: " 0:45 ", PricePerHour: 40}}
	offer, err := buildOffer(input, "BG")
	if err != nil {
		t.Fatalf("buildOffer() error = %v", err)
	}
	if offer.Labor[0].TimeRequired != "0:45" {
		t.Fatalf("TimeRequired = %q", offer.Labor[0].TimeRequired)
	}
}

func TestBuildOfferAcceptsBoundaryValues(t *testing.T) {
	mileage := maxMileage
	input := validInput()
	input.Mileage = &mileage
	input.DiscountPercent = 12.5
	input.CustomerEmail = " Ivan.Petrov+offers@example.bg "
	input.Parts[0].UnitPrice = maxAmount
	input.Parts[0].Quantity = maxQuantity
	input.Labor[0].TimeRequired = "1000:00"
	input.Labor[0].PricePerHour = 0.1
	input.Prepayments = []model.Prepayment{{Amount: 0.01}}

	offer, err := buildOffer(input, "BG")
	if err != nil {
		t.Fatalf("buildOffer() error = %v", err)
	}
	if offer.CustomerEmail != "Ivan.Petrov+offers@example.bg" {
		t.Fatalf("CustomerEmail = %q", offer.CustomerEmail)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw    string
		region string
		want   string
	}{
		{"0888 123 456", "BG", "+359888123456"},
		{"+359 888 123 456", "BG", "+359888123456"},
		{"00359888123456", "BG", "+359888123456"},
		{"", "BG", ""},
	}
	for _, tt := range tests {
		got, err := normalizePhone(tt.raw, tt.region)
		if err != nil {
			t.Fatalf("normalizePhone(%q) error = %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("normalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
