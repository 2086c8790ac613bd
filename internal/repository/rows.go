package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/autoservice-offers/internal/model"
)

type offerRow struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Number          string     `gorm:"size:64;uniqueIndex"`
	ClientID        *uuid.UUID `gorm:"type:uuid"`
	VehicleID       *uuid.UUID `gorm:"type:uuid"`
	CustomerName    string     `gorm:"not null"`
	CustomerPhone   string
	CustomerEmail   string
	VehicleMake     string
	VehicleModel    string
	VehiclePlate    string
	VIN             string `gorm:"column:vin"`
	Mileage         *int
	DiscountPercent float64 `gorm:"not null;default:0"`
	Notes           string
	Status          string    `gorm:"not null;index"`
	CreatedBy       uuid.UUID `gorm:"type:uuid"`
	CreatedByName   string
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (offerRow) TableName() string { return "offers" }

type partRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OfferID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"not null"`
	Brand       string
	PartNumber  string
	UnitPrice   float64 `gorm:"not null"`
	Quantity    int     `gorm:"not null"`
	SortOrder   int     `gorm:"not null"`
}

func (partRow) TableName() string { return "offer_parts" }

type laborRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OfferID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ActionName   string    `gorm:"not null"`
	TimeRequired string
	PricePerHour float64 `gorm:"not null"`
	SortOrder    int     `gorm:"not null"`
}

func (laborRow) TableName() string { return "offer_labor" }

type prepaymentRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OfferID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount    float64   `gorm:"not null"`
	Note      string
	PaidAt    *time.Time
	SortOrder int `gorm:"not null"`
}

func (prepaymentRow) TableName() string { return "offer_prepayments" }

// Models lists the persistence rows, for AutoMigrate in tests.
func Models() []interface{} {
	return []interface{}{&offerRow{}, &partRow{}, &laborRow{}, &prepaymentRow{}}
}

func newOfferRow(offer *model.Offer) offerRow {
	return offerRow{
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
		Status:          string(offer.Status),
		CreatedBy:       offer.CreatedBy,
		CreatedByName:   offer.CreatedByName,
		CreatedAt:       offer.CreatedAt,
		UpdatedAt:       offer.UpdatedAt,
	}
}

func (r offerRow) toModel() model.Offer {
	return model.Offer{
		ID:              r.ID,
		Number:          r.Number,
		ClientID:        r.ClientID,
		VehicleID:       r.VehicleID,
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
		Status:          model.OfferStatus(r.Status),
		CreatedBy:       r.CreatedBy,
		CreatedByName:   r.CreatedByName,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
