package excel

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/autoservice-offers/internal/model"
)

func sampleDocs() []model.OfferDocument {
	created := time.Date(2026, 2, 10, 23, 30, 0, 0, time.UTC)
	return []model.OfferDocument{
		{Offer: model.Offer{
			Number:          "2026-00001",
			CustomerName:    "Ivan Petrov",
			VehicleMake:     "Skoda",
			VehicleModel:    "Octavia",
			VehiclePlate:    "CA0001AA",
			DiscountPercent: 10,
			Status:          model.OfferStatusSent,
			CreatedAt:       created,
			Parts:           []model.PartItem{{Description: "Pads", UnitPrice: 100, Quantity: 2}},
			Labor:           []model.LaborItem{{ActionName: "Fit pads", TimeRequired: "1:00", PricePerHour: 50}},
		}},
		{Offer: model.Offer{
			Number:       "2026-00001",
			CustomerName: "Maria Ivanova",
			Status:       model.OfferStatusDraft,
			Labor:        []model.LaborItem{{ActionName: "Diagnostics", TimeRequired: "0:30", PricePerHour: 40}},
		}},
		{Offer: model.Offer{
			CustomerName: "No number",
			Parts:        []model.PartItem{{Description: "Bulb", UnitPrice: 3, Quantity: 1}},
		}},
	}
}

func openWorkbook(t *testing.T, content []byte) *excelize.File {
	t.Helper()
	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = file.Close() })
	return file
}

func TestGenerateWorkbook(t *testing.T) {
	sofia := time.FixedZone("EET", 2*60*60)
	content, err := NewGenerator(sofia).Generate(sampleDocs())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	file := openWorkbook(t, content)

	sheets := file.GetSheetList()
	want := []string{"Offers", "2026-00001", "2026-00001-2", "Offer 3"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", sheets, want)
		}
	}

	checks := map[string]string{
		"A2": "2026-00001",
		"B2": "2026-02-11",
		"C2": "sent",
		"F2": "Skoda Octavia",
		"K2": "270",
		"A4": "draft",
	}
	for cell, wantValue := range checks {
		got, err := file.GetCellValue("Offers", cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if got != wantValue {
			t.Errorf("Offers!%s = %q, want %q", cell, got, wantValue)
		}
	}

	rows, err := file.GetRows("2026-00001")
	if err != nil {
		t.Fatalf("read detail rows: %v", err)
	}
	var sawParts, sawLabor, sawGross bool
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		switch {
		case row[0] == "Parts":
			sawParts = true
		case row[0] == "Labor":
			sawLabor = true
		case row[0] == "Gross, EUR" && len(row) > 1 && row[1] == "270":
			sawGross = true
		}
	}
	if !sawParts || !sawLabor || !sawGross {
		t.Fatalf("detail sheet incomplete: parts=%v labor=%v gross=%v rows=%v", sawParts, sawLabor, sawGross, rows)
	}

	laborOnly, err := file.GetRows("2026-00001-2")
	if err != nil {
		t.Fatalf("read labor-only rows: %v", err)
	}
	for _, row := range laborOnly {
		if len(row) > 0 && row[0] == "Parts" {
			t.Fatalf("labor-only offer must not have a parts block")
		}
	}
}

func TestGenerateEmpty(t *testing.T) {
	content, err := NewGenerator(nil).Generate(nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	file := openWorkbook(t, content)
	if sheets := file.GetSheetList(); len(sheets) != 1 || sheets[0] != "Offers" {
		t.Fatalf("expected only the summary sheet, got %v", sheets)
	}
}

func TestBuildSheetName(t *testing.T) {
	used := map[string]struct{}{"offers": {}}

	long := model.Offer{Number: strings.Repeat("N", 40)}
	first := buildSheetName(long, 0, used)
	if len([]rune(first)) != 31 {
		t.Fatalf("expected 31 chars, got %d", len([]rune(first)))
	}
	used[strings.ToLower(first)] = struct{}{}

	second := buildSheetName(long, 1, used)
	if second == first || len([]rune(second)) > 31 || !strings.HasSuffix(second, "-2") {
		t.Fatalf("unexpected duplicate name %q", second)
	}

	if got := buildSheetName(model.Offer{Number: "2026/[7]"}, 0, used); got != "2026--7-" {
		t.Fatalf("invalid characters not replaced: %q", got)
	}
	if got := buildSheetName(model.Offer{}, 4, used); got != "Offer 5" {
		t.Fatalf("expected fallback name, got %q", got)
	}
	if got := buildSheetName(model.Offer{Number: "OFFERS"}, 0, used); got != "OFFERS-2" {
		t.Fatalf("expected case-insensitive collision with the summary sheet, got %q", got)
	}
}

func TestGenerateSheetNamesIgnoreCase(t *testing.T) {
	docs := []model.OfferDocument{
		{Offer: model.Offer{Number: "2026-r000001", CustomerName: "A", Labor: []model.LaborItem{{ActionName: "x", PricePerHour: 1}}}},
		{Offer: model.Offer{Number: "2026-R000001", CustomerName: "B", Labor: []model.LaborItem{{ActionName: "y", PricePerHour: 2}}}},
	}
	content, err := NewGenerator(time.UTC).Generate(docs)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	file := openWorkbook(t, content)

	sheets := file.GetSheetList()
	want := []string{"Offers", "2026-r000001", "2026-R000001-2"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", sheets, want)
		}
	}
	customer, err := file.GetCellValue("2026-R000001-2", "B2")
	if err != nil || customer != "B" {
		t.Fatalf("second detail sheet customer = %q, err = %v", customer, err)
	}
}
