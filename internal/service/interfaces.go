package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/nurpe/autoservice-offers/internal/model"
	"github.com/nurpe/autoservice-offers/internal/pdf"
	"github.com/nurpe/autoservice-offers/internal/repository"
)

// OfferStore persists offers. Line items come back ordered by sort order
// and Update replaces them wholesale.
type OfferStore interface {
	Create(ctx context.Context, offer *model.Offer) error
	Update(ctx context.Context, offer *model.Offer) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus) error
	Get(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	List(ctx context.Context, filter repository.ListFilter) ([]model.Offer, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

type DocumentRenderer interface {
	Render(doc model.OfferDocument, opts pdf.RenderOptions) ([]byte, error)
}

type WorkbookGenerator interface {
	Generate(docs []model.OfferDocument) ([]byte, error)
}
