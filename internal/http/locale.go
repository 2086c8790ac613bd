package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/nurpe/autoservice-offers/internal/pdf"
)

// supportedLocales is ordered by preference; the first entry is the fallback.
var supportedLocales = []language.Tag{language.Bulgarian, language.English}

var localeMatcher = language.NewMatcher(supportedLocales)

// requestLocale picks the document locale from ?locale=, then from the
// Accept-Language header.
func requestLocale(c *gin.Context) pdf.Locale {
	if raw := strings.TrimSpace(c.Query("locale")); raw != "" {
		return matchLocale(raw)
	}
	return matchLocale(c.GetHeader("Accept-Language"))
}

func matchLocale(raw string) pdf.Locale {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return pdf.LocaleBG
	}
	_, index, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return pdf.LocaleBG
	}
	return pdf.ParseLocale(supportedLocales[index].String())
}
