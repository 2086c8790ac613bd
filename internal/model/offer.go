package model

import (
	"time"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "draft"
	OfferStatusSent      OfferStatus = "sent"
	OfferStatusApproved  OfferStatus = "approved"
	OfferStatusFinished  OfferStatus = "finished"
	OfferStatusCancelled OfferStatus = "cancelled"
)

var offerStatuses = []OfferStatus{
	OfferStatusDraft,
	OfferStatusSent,
	OfferStatusApproved,
	OfferStatusFinished,
	OfferStatusCancelled,
}

// OfferStatuses returns every known status in lifecycle order.
func OfferStatuses() []OfferStatus {
	out := make([]OfferStatus, len(offerStatuses))
	copy(out, offerStatuses)
	return out
}

func (s OfferStatus) Valid() bool {
	for _, status := range offerStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// statusTransitions lists the statuses allowed to follow each status.
// The workshop moves offers back and forth freely, so every status is
// reachable from every other one.
var statusTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusDraft:     offerStatuses,
	OfferStatusSent:      offerStatuses,
	OfferStatusApproved:  offerStatuses,
	OfferStatusFinished:  offerStatuses,
	OfferStatusCancelled: offerStatuses,
}

func CanTransition(from, to OfferStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Offer is a repair quotation. Customer and vehicle fields are a text
// snapshot taken when the offer is written and are what gets printed, even
// if the linked client or vehicle record changes later.
type Offer struct {
	ID            uuid.UUID
	Number        string
	ClientID      *uuid.UUID
	VehicleID     *uuid.UUID
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	VehicleMake   string
	VehicleModel  string
	VehiclePlate  string
	VIN           string
	Mileage       *int
	// DiscountPercent is applied to the whole subtotal, 0..100.
	DiscountPercent float64
	Notes           string
	Status          OfferStatus
	CreatedBy       uuid.UUID
	CreatedByName   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Parts           []PartItem
	Labor           []LaborItem
	Prepayments     []Prepayment
}

func (o Offer) HasItems() bool {
	return len(o.Parts)+len(o.Labor) > 0
}

func (o Offer) Vehicle() string {
	switch {
	case o.VehicleMake != "" && o.VehicleModel != "":
		return o.VehicleMake + " " + o.VehicleModel
	case o.VehicleMake != "":
		return o.VehicleMake
	default:
		return o.VehicleModel
	}
}

type PartItem struct {
	ID          uuid.UUID
	Description string
	Brand       string
	PartNumber  string
	UnitPrice   float64 // EUR, net
	Quantity    int
	SortOrder   int
}

type LaborItem struct {
	ID           uuid.UUID
	ActionName   string
	TimeRequired string // free text, e.g. "1:30"
	PricePerHour float64
	SortOrder    int
}

type Prepayment struct {
	ID     uuid.UUID
	Amount float64
	Note   string
	PaidAt *time.Time
}

// OfferDocument is everything a renderer needs to print an offer.
type OfferDocument struct {
	Offer  Offer
	Issuer Issuer
}
