package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/nurpe/autoservice-offers/internal/config"
	"github.com/nurpe/autoservice-offers/internal/model"
	"github.com/nurpe/autoservice-offers/internal/pdf"
	"github.com/nurpe/autoservice-offers/internal/repository"
	"github.com/nurpe/autoservice-offers/internal/service/mocks"
)

type deps struct {
	store    *mocks.MockOfferStore
	numbers  *mocks.MockNumberGenerator
	renderer *mocks.MockDocumentRenderer
	workbook *mocks.MockWorkbookGenerator
}

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*OfferService, deps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := deps{
		store:    mocks.NewMockOfferStore(ctrl),
		numbers:  mocks.NewMockNumberGenerator(ctrl),
		renderer: mocks.NewMockDocumentRenderer(ctrl),
		workbook: mocks.NewMockWorkbookGenerator(ctrl),
	}
	cfg := &config.Config{
		Offers:  config.OffersConfig{PhoneRegion: "BG", Location: time.UTC},
		Company: model.Issuer{Name: "Auto Nurpe", Email: "office@example.com"},
	}
	svc := NewOfferService(d.store, d.numbers, d.renderer, d.workbook, cfg, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	svc.fallbackSeq = func() int { return 4711 }
	return svc, d
}

func staff() model.Principal {
	return model.Principal{UserID: uuid.New(), Name: "Georgi", Role: model.RoleStaff}
}

func viewer() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleViewer}
}

func validInput() OfferInput {
	return OfferInput{
		CustomerName:    "  Ivan Petrov ",
		CustomerPhone:   "0888 123 456",
		CustomerEmail:   "ivan@example.com",
		VehicleMake:     "Skoda",
		VehicleModel:    "Octavia",
		VehiclePlate:    "ca 1234 ab",
		VIN:             "tmbjj7ne0f0123456",
		DiscountPercent: 10,
		Parts:           []model.PartItem{{Description: "Brake pads", UnitPrice: 100, Quantity: 2}},
		Labor:           []model.LaborItem{{ActionName: "Replace pads", TimeRequired: "1:00", PricePerHour: 50}},
	}
}

func TestOfferService_Calculate(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Calculate(CalculateInput{
		Parts:           []model.PartItem{{UnitPrice: 100, Quantity: 2}},
		Labor:           []model.LaborItem{{TimeRequired: "1:00", PricePerHour: 50}},
		DiscountPercent: 10,
		Prepayments:     []model.Prepayment{{Amount: 70}},
	})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if math.Abs(result.Totals.GrossTotal-270) > 1e-9 {
		t.Fatalf("GrossTotal = %v, want 270", result.Totals.GrossTotal)
	}
	if math.Abs(result.TotalsBGN.GrossTotal-270*1.95583) > 1e-9 {
		t.Fatalf("GrossTotal BGN = %v", result.TotalsBGN.GrossTotal)
	}
	if result.Prepaid != 70 || math.Abs(result.AmountDue-200) > 1e-9 {
		t.Fatalf("prepaid=%v due=%v", result.Prepaid, result.AmountDue)
	}
	if len(result.Summary.Categories) != 2 {
		t.Fatalf("expected parts and labor summary rows, got %d", len(result.Summary.Categories))
	}
}

func TestOfferService_CalculateRejectsOverflow(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Calculate(CalculateInput{
		Parts: []model.PartItem{{UnitPrice: 1e308, Quantity: 10}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// BGN conversion alone can overflow.
	_, err = svc.Calculate(CalculateInput{
		Labor: []model.LaborItem{{TimeRequired: "1", PricePerHour: math.MaxFloat64 / 1.5}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for BGN overflow, got %v", err)
	}
}

func TestOfferService_Create(t *testing.T) {
	t.Run("assigns sequence number and draft status", func(t *testing.T) {
		svc, d := newTestService(t)
		principal := staff()

		d.numbers.EXPECT().Next(gomock.Any()).Return("2026-00042", nil)
		d.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, offer *model.Offer) error {
			offer.ID = uuid.New()
			return nil
		})

		offer, err := svc.Create(context.Background(), validInput(), principal)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if offer.Number != "2026-00042" || offer.Status != model.OfferStatusDraft {
			t.Fatalf("unexpected offer: number=%q status=%q", offer.Number, offer.Status)
		}
		if offer.CreatedBy != principal.UserID || offer.CreatedByName != "Georgi" {
			t.Fatalf("creator not recorded: %+v", offer)
		}
		if offer.CustomerName != "Ivan Petrov" || offer.CustomerPhone != "+359888123456" {
			t.Fatalf("input not normalized: name=%q phone=%q", offer.CustomerName, offer.CustomerPhone)
		}
		if offer.VehiclePlate != "CA1234AB" || offer.VIN != "TMBJJ7NE0F0123456" {
			t.Fatalf("vehicle not normalized: plate=%q vin=%q", offer.VehiclePlate, offer.VIN)
		}
	})

	t.Run("falls back when the sequence fails", func(t *testing.T) {
		svc, d := newTestService(t)

		d.numbers.EXPECT().Next(gomock.Any()).Return("", errors.New("sequence down"))
		d.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		offer, err := svc.Create(context.Background(), validInput(), staff())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if offer.Number != "2026-R004711" {
			t.Fatalf("Number = %q, want fallback", offer.Number)
		}
	})

	t.Run("store error is reported", func(t *testing.T) {
		svc, d := newTestService(t)

		d.numbers.EXPECT().Next(gomock.Any()).Return("2026-00001", nil)
		d.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		_, err := svc.Create(context.Background(), validInput(), staff())
		if err == nil || !strings.Contains(err.Error(), "save offer") {
			t.Fatalf("expected save error, got %v", err)
		}
		if errors.Is(err, ErrDocumentGeneration) {
			t.Fatalf("save failure must not look like a document failure")
		}
	})

	t.Run("viewer cannot create", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.Create(context.Background(), validInput(), viewer()); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("invalid input never reaches the store", func(t *testing.T) {
		svc, _ := newTestService(t)
		input := validInput()
		input.Parts = nil
		input.Labor = nil
		if _, err := svc.Create(context.Background(), input, staff()); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestOfferService_Update(t *testing.T) {
	t.Run("keeps identity and replaces items", func(t *testing.T) {
		svc, d := newTestService(t)
		id := uuid.New()
		creator := uuid.New()
		created := fixedNow.Add(-48 * time.Hour)
		current := &model.Offer{
			ID:            id,
			Number:        "2026-00007",
			Status:        model.OfferStatusSent,
			CreatedBy:     creator,
			CreatedByName: "Maria",
			CreatedAt:     created,
			Parts:         []model.PartItem{{ID: uuid.New(), Description: "Old", UnitPrice: 1, Quantity: 1}},
		}

		input := validInput()
		input.Parts = []model.PartItem{
			{ID: uuid.New(), Description: "Filter", UnitPrice: 10, Quantity: 1},
			{Description: "Oil", UnitPrice: 12, Quantity: 4},
		}

		d.store.EXPECT().Get(gomock.Any(), id).Return(current, nil)
		d.store.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, offer *model.Offer) error {
			if offer.ID != id || offer.Number != "2026-00007" || offer.Status != model.OfferStatusSent {
				t.Errorf("identity changed: %+v", offer)
			}
			if offer.CreatedBy != creator || !offer.CreatedAt.Equal(created) {
				t.Errorf("audit fields changed: %+v", offer)
			}
			if len(offer.Parts) != 2 || offer.Parts[0].ID != uuid.Nil || offer.Parts[1].SortOrder != 1 {
				t.Errorf("parts not replaced in order: %+v", offer.Parts)
			}
			return nil
		})

		updated, err := svc.Update(context.Background(), id, input, staff())
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Parts[0].Description != "Filter" {
			t.Fatalf("unexpected parts: %+v", updated.Parts)
		}
	})

	t.Run("missing offer", func(t *testing.T) {
		svc, d := newTestService(t)
		d.store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)
		if _, err := svc.Update(context.Background(), uuid.New(), validInput(), staff()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("deleted between read and write", func(t *testing.T) {
		svc, d := newTestService(t)
		id := uuid.New()
		d.store.EXPECT().Get(gomock.Any(), id).Return(&model.Offer{ID: id}, nil)
		d.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(gorm.ErrRecordNotFound)
		if _, err := svc.Update(context.Background(), id, validInput(), staff()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestOfferService_GetListDelete(t *testing.T) {
	t.Run("get maps not found", func(t *testing.T) {
		svc, d := newTestService(t)
		d.store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)
		if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("get nil id", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.Get(context.Background(), uuid.Nil); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list applies default and max limits", func(t *testing.T) {
		svc, d := newTestService(t)
		gomock.InOrder(
			d.store.EXPECT().List(gomock.Any(), repository.ListFilter{Limit: defaultListLimit}).Return([]model.Offer{{Number: "a"}}, int64(1), nil),
			d.store.EXPECT().List(gomock.Any(), repository.ListFilter{Limit: maxListLimit, Offset: 10}).Return(nil, int64(0), nil),
		)

		result, err := svc.List(context.Background(), repository.ListFilter{})
		if err != nil || result.Total != 1 || len(result.Items) != 1 || result.Limit != defaultListLimit {
			t.Fatalf("unexpected result %+v err=%v", result, err)
		}
		if _, err := svc.List(context.Background(), repository.ListFilter{Limit: 5000, Offset: 10}); err != nil {
			t.Fatalf("List() error = %v", err)
		}
	})

	t.Run("list rejects bad filters", func(t *testing.T) {
		svc, _ := newTestService(t)
		bad := model.OfferStatus("lost")
		if _, err := svc.List(context.Background(), repository.ListFilter{Status: &bad}); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus, got %v", err)
		}
		if _, err := svc.List(context.Background(), repository.ListFilter{Offset: -1}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		svc, d := newTestService(t)
		id := uuid.New()
		d.store.EXPECT().Delete(gomock.Any(), id).Return(nil)
		d.store.EXPECT().Delete(gomock.Any(), id).Return(gorm.ErrRecordNotFound)

		if err := svc.Delete(context.Background(), id, staff()); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := svc.Delete(context.Background(), id, staff()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := svc.Delete(context.Background(), id, viewer()); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
	})
}

func TestOfferService_SetStatus(t *testing.T) {
	t.Run("any status may follow any other", func(t *testing.T) {
		for _, from := range model.OfferStatuses() {
			for _, to := range model.OfferStatuses() {
				if from == to {
					continue
				}
				svc, d := newTestService(t)
				id := uuid.New()
				d.store.EXPECT().Get(gomock.Any(), id).Return(&model.Offer{ID: id, Status: from}, nil)
				d.store.EXPECT().UpdateStatus(gomock.Any(), id, to).Return(nil)

				offer, err := svc.SetStatus(context.Background(), id, to, staff())
				if err != nil {
					t.Fatalf("%s -> %s: %v", from, to, err)
				}
				if offer.Status != to {
					t.Fatalf("%s -> %s: status = %s", from, to, offer.Status)
				}
			}
		}
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		svc, d := newTestService(t)
		id := uuid.New()
		d.store.EXPECT().Get(gomock.Any(), id).Return(&model.Offer{ID: id, Status: model.OfferStatusSent}, nil)
		if _, err := svc.SetStatus(context.Background(), id, model.OfferStatusSent, staff()); err != nil {
			t.Fatalf("SetStatus() error = %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.SetStatus(context.Background(), uuid.New(), "archived", staff()); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus, got %v", err)
		}
	})
}

func TestOfferService_ExportPDF(t *testing.T) {
	t.Run("renders stored offer", func(t *testing.T) {
		svc, d := newTestService(t)
		id := uuid.New()
		d.store.EXPECT().Get(gomock.Any(), id).Return(&model.Offer{ID: id, Number: "2026-00012", CustomerName: "Ivan"}, nil)
		d.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(func(doc model.OfferDocument, opts pdf.RenderOptions) ([]byte, error) {
			if doc.Issuer.Name != "Auto Nurpe" || doc.Offer.CustomerName != "Ivan" {
				t.Errorf("unexpected document: %+v", doc)
			}
			if opts.Variant != pdf.VariantServiceCard || opts.Locale != pdf.LocaleEN || !opts.Now.Equal(fixedNow) {
				t.Errorf("unexpected options: %+v", opts)
			}
			return []byte("%PDF-1.3"), nil
		})

		file, err := svc.ExportPDF(context.Background(), id, ExportOptions{Variant: pdf.VariantServiceCard, Locale: pdf.LocaleEN})
		if err != nil {
			t.Fatalf("ExportPDF() error = %v", err)
		}
		if file.FileName != "service-card-2026-00012.pdf" || file.ContentType != "application/pdf" {
			t.Fatalf("unexpected file: %+v", file)
		}
	})

	t.Run("render failure is a document error", func(t *testing.T) {
		svc, d := newTestService(t)
		id := uuid.New()
		d.store.EXPECT().Get(gomock.Any(), id).Return(&model.Offer{ID: id}, nil)
		d.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil, errors.New("layout exploded"))

		if _, err := svc.ExportPDF(context.Background(), id, ExportOptions{}); !errors.Is(err, ErrDocumentGeneration) {
			t.Fatalf("expected ErrDocumentGeneration, got %v", err)
		}
	})

	t.Run("render timeout is a document error", func(t *testing.T) {
		svc, d := newTestService(t)
		svc.renderTimeout = 20 * time.Millisecond
		release := make(chan struct{})
		defer close(release)

		id := uuid.New()
		d.store.EXPECT().Get(gomock.Any(), id).Return(&model.Offer{ID: id}, nil)
		d.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(func(model.OfferDocument, pdf.RenderOptions) ([]byte, error) {
			<-release
			return []byte("late"), nil
		})

		if _, err := svc.ExportPDF(context.Background(), id, ExportOptions{}); !errors.Is(err, ErrDocumentGeneration) {
			t.Fatalf("expected ErrDocumentGeneration, got %v", err)
		}
	})

	t.Run("missing offer is not a document error", func(t *testing.T) {
		svc, d := newTestService(t)
		d.store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)
		if _, err := svc.ExportPDF(context.Background(), uuid.New(), ExportOptions{}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestOfferService_PreviewPDF(t *testing.T) {
	svc, d := newTestService(t)
	principal := staff()
	d.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).DoAndReturn(func(doc model.OfferDocument, opts pdf.RenderOptions) ([]byte, error) {
		if doc.Offer.Number != "" || doc.Offer.CreatedByName != "Georgi" {
			t.Errorf("unexpected preview offer: %+v", doc.Offer)
		}
		if opts.Variant != pdf.VariantCustomerOffer {
			t.Errorf("variant = %q", opts.Variant)
		}
		return []byte("%PDF"), nil
	})

	file, err := svc.PreviewPDF(context.Background(), validInput(), ExportOptions{}, principal)
	if err != nil {
		t.Fatalf("PreviewPDF() error = %v", err)
	}
	if file.FileName != "offer-draft.pdf" {
		t.Fatalf("FileName = %q", file.FileName)
	}
}

func TestOfferService_ExportWorkbook(t *testing.T) {
	t.Run("exports filtered offers", func(t *testing.T) {
		svc, d := newTestService(t)
		sent := model.OfferStatusSent
		d.store.EXPECT().List(gomock.Any(), repository.ListFilter{Status: &sent, Search: "ivan", Limit: maxExportOffers}).
			Return([]model.Offer{{Number: "2026-00001"}, {Number: "2026-00002"}}, int64(2), nil)
		d.workbook.EXPECT().Generate(gomock.Any()).DoAndReturn(func(docs []model.OfferDocument) ([]byte, error) {
			if len(docs) != 2 || docs[1].Offer.Number != "2026-00002" || docs[0].Issuer.Name != "Auto Nurpe" {
				t.Errorf("unexpected docs: %+v", docs)
			}
			return []byte("xlsx"), nil
		})

		file, err := svc.ExportWorkbook(context.Background(), repository.ListFilter{Status: &sent, Search: "ivan", Limit: 3, Offset: 9})
		if err != nil {
			t.Fatalf("ExportWorkbook() error = %v", err)
		}
		if file.FileName != "offers-20260314.xlsx" || !strings.Contains(file.ContentType, "spreadsheetml") {
			t.Fatalf("unexpected file: %+v", file)
		}
	})

	t.Run("generator failure is a document error", func(t *testing.T) {
		svc, d := newTestService(t)
		d.store.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, int64(0), nil)
		d.workbook.EXPECT().Generate(gomock.Any()).Return(nil, errors.New("disk full"))
		if _, err := svc.ExportWorkbook(context.Background(), repository.ListFilter{}); !errors.Is(err, ErrDocumentGeneration) {
			t.Fatalf("expected ErrDocumentGeneration, got %v", err)
		}
	})
}
