package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SequenceNumberGenerator issues human readable offer numbers backed by the
// offer_number_seq Postgres sequence, e.g. "2026-00042".
type SequenceNumberGenerator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSequenceNumberGenerator(db *gorm.DB) *SequenceNumberGenerator {
	return &SequenceNumberGenerator{db: db, now: time.Now}
}

func (g *SequenceNumberGenerator) Next(ctx context.Context) (string, error) {
	var seq int64
	if err := g.db.WithContext(ctx).Raw(`SELECT nextval('offer_number_seq')`).Scan(&seq).Error; err != nil {
		return "", fmt.Errorf("next offer number: %w", err)
	}
	if seq <= 0 {
		return "", fmt.Errorf("next offer number: sequence returned %d", seq)
	}
	return FormatOfferNumber(g.now().Year(), seq), nil
}

func FormatOfferNumber(year int, seq int64) string {
	return fmt.Sprintf("%d-%05d", year, seq)
}
