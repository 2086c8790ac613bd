package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/autoservice-offers/internal/pdf"
)

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		raw  string
		want pdf.Locale
	}{
		{"", pdf.LocaleBG},
		{"bg", pdf.LocaleBG},
		{"bg-BG,bg;q=0.9", pdf.LocaleBG},
		{"en", pdf.LocaleEN},
		{"en-US,en;q=0.9", pdf.LocaleEN},
		{"de-DE,en;q=0.5", pdf.LocaleEN},
		{"fr", pdf.LocaleBG},
		{"***", pdf.LocaleBG},
	}
	for _, tt := range tests {
		if got := matchLocale(tt.raw); got != tt.want {
			t.Errorf("matchLocale(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestRequestLocalePrefersQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/offers/x/pdf?locale=en", nil)
	c.Request.Header.Set("Accept-Language", "bg")
	if got := requestLocale(c); got != pdf.LocaleEN {
		t.Fatalf("requestLocale = %q", got)
	}
}
