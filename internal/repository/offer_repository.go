package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/autoservice-offers/internal/model"
)

type ListFilter struct {
	Status *model.OfferStatus
	Search string
	Limit  int
	Offset int
}

type OfferRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// Create stores the offer and its line items in one transaction. Missing
// ids are generated and written back to offer.
func (r *OfferRepository) Create(ctx context.Context, offer *model.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	now := time.Now().UTC()
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = now
	}
	offer.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := newOfferRow(offer)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return insertChildren(tx, offer)
	})
}

// Update rewrites the offer row and replaces every line item: the old set is
// deleted and the new one inserted, in the caller's order. Number, creator
// and creation time are left untouched.
func (r *OfferRepository) Update(ctx context.Context, offer *model.Offer) error {
	offer.UpdatedAt = time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&offerRow{}).Where("id = ?", offer.ID).Updates(map[string]interface{}{
			"client_id":        offer.ClientID,
			"vehicle_id":       offer.VehicleID,
			"customer_name":    offer.CustomerName,
			"customer_phone":   offer.CustomerPhone,
			"customer_email":   offer.CustomerEmail,
			"vehicle_make":     offer.VehicleMake,
			"vehicle_model":    offer.VehicleModel,
			"vehicle_plate":    offer.VehiclePlate,
			"vin":              offer.VIN,
			"mileage":          offer.Mileage,
			"discount_percent": offer.DiscountPercent,
			"notes":            offer.Notes,
			"updated_at":       offer.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := deleteChildren(tx, offer.ID); err != nil {
			return err
		}
		return insertChildren(tx, offer)
	})
}

func (r *OfferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus) error {
	res := r.db.WithContext(ctx).Model(&offerRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *OfferRepository) Get(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	var row offerRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	offers := []model.Offer{row.toModel()}
	if err := loadChildren(r.db.WithContext(ctx), offers); err != nil {
		return nil, err
	}
	return &offers[0], nil
}

// List returns offers newest first together with the total count matching
// the filter.
func (r *OfferRepository) List(ctx context.Context, filter ListFilter) ([]model.Offer, int64, error) {
	query := r.db.WithContext(ctx).Model(&offerRow{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query = query.Where(
			"LOWER(number) LIKE ? ESCAPE '\\' OR LOWER(customer_name) LIKE ? ESCAPE '\\' OR LOWER(vehicle_plate) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []offerRow
	if err := query.Order("created_at DESC").Order("number DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	offers := make([]model.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, row.toModel())
	}
	if err := loadChildren(r.db.WithContext(ctx), offers); err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

func (r *OfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&offerRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func insertChildren(tx *gorm.DB, offer *model.Offer) error {
	if len(offer.Parts) > 0 {
		rows := make([]partRow, len(offer.Parts))
		for i := range offer.Parts {
			part := &offer.Parts[i]
			part.ID = uuid.New()
			part.SortOrder = i
			rows[i] = partRow{
				ID:          part.ID,
				OfferID:     offer.ID,
				Description: part.Description,
				Brand:       part.Brand,
				PartNumber:  part.PartNumber,
				UnitPrice:   part.UnitPrice,
				Quantity:    part.Quantity,
				SortOrder:   i,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	if len(offer.Labor) > 0 {
		rows := make([]laborRow, len(offer.Labor))
		for i := range offer.Labor {
			item := &offer.Labor[i]
			item.ID = uuid.New()
			item.SortOrder = i
			rows[i] = laborRow{
				ID:           item.ID,
				OfferID:      offer.ID,
				ActionName:   item.ActionName,
				TimeRequired: item.TimeRequired,
				PricePerHour: item.PricePerHour,
				SortOrder:    i,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	if len(offer.Prepayments) > 0 {
		rows := make([]prepaymentRow, len(offer.Prepayments))
		for i := range offer.Prepayments {
			p := &offer.Prepayments[i]
			p.ID = uuid.New()
			rows[i] = prepaymentRow{
				ID:        p.ID,
				OfferID:   offer.ID,
				Amount:    p.Amount,
				Note:      p.Note,
				PaidAt:    p.PaidAt,
				SortOrder: i,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteChildren(tx *gorm.DB, offerID uuid.UUID) error {
	for _, row := range []interface{}{&partRow{}, &laborRow{}, &prepaymentRow{}} {
		if err := tx.Where("offer_id = ?", offerID).Delete(row).Error; err != nil {
			return err
		}
	}
	return nil
}

// loadChildren fills line items of offers in place, ordered by sort_order.
func loadChildren(db *gorm.DB, offers []model.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(offers))
	index := make(map[uuid.UUID]int, len(offers))
	for i, offer := range offers {
		ids[i] = offer.ID
		index[offer.ID] = i
	}

	var parts []partRow
	if err := db.Where("offer_id IN ?", ids).Order("sort_order ASC").Find(&parts).Error; err != nil {
		return err
	}
	for _, row := range parts {
		pos := index[row.OfferID]
		offers[pos].Parts = append(offers[pos].Parts, model.PartItem{
			ID:          row.ID,
			Description: row.Description,
			Brand:       row.Brand,
			PartNumber:  row.PartNumber,
			UnitPrice:   row.UnitPrice,
			Quantity:    row.Quantity,
			SortOrder:   row.SortOrder,
		})
	}

	var labor []laborRow
	if err := db.Where("offer_id IN ?", ids).Order("sort_order ASC").Find(&labor).Error; err != nil {
		return err
	}
	for _, row := range labor {
		pos := index[row.OfferID]
		offers[pos].Labor = append(offers[pos].Labor, model.LaborItem{
			ID:           row.ID,
			ActionName:   row.ActionName,
			TimeRequired: row.TimeRequired,
			PricePerHour: row.PricePerHour,
			SortOrder:    row.SortOrder,
		})
	}

	var prepayments []prepaymentRow
	if err := db.Where("offer_id IN ?", ids).Order("sort_order ASC").Find(&prepayments).Error; err != nil {
		return err
	}
	for _, row := range prepayments {
		pos := index[row.OfferID]
		offers[pos].Prepayments = append(offers[pos].Prepayments, model.Prepayment{
			ID:     row.ID,
			Amount: row.Amount,
			Note:   row.Note,
			PaidAt: row.PaidAt,
		})
	}
	return nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
