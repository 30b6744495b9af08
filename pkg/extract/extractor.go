// Package extract pulls structured film data out of fetched HTML pages.
// Every field extractor is layered: a primary selector matching the current
// page markup, then looser fallbacks, so a markup tweak on the origin site
// degrades extraction gracefully instead of zeroing it out.
package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kinostat/kinofetch/pkg/engine"
)

// Prometheus metrics for extraction.
var (
	fieldsExtractedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinofetch_fields_extracted_total",
		Help: "Successfully extracted fields by name",
	}, []string{"field"})

	parseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kinofetch_parse_failures_total",
		Help: "Pages that could not be parsed as HTML",
	})
)

// Field names produced by FilmExtractor.
const (
	FieldTitle             = "title"
	FieldTotalFees         = "total_fees"
	FieldPresalesFees      = "presales_fees"
	FieldPremiereDayFees   = "premiere_day_fees"
	FieldFirstWeekendFees  = "first_weekend_fees"
	FieldSecondWeekendFees = "second_weekend_fees"
	FieldCountry           = "country"
	FieldStartDate         = "start_date"
	FieldYear              = "year"
	FieldAgeRestriction    = "age_restriction"
)

// keyFields are the fields whose presence marks a page as meaningfully
// extracted. A page yielding none of these is treated as an extraction
// failure even when the HTTP status was 200.
var keyFields = []string{FieldTitle, FieldTotalFees, FieldCountry, FieldStartDate}

// Fee regex fallbacks, tried in order against the page text when the labeled
// markup is missing.
var feePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Общие сборы\D*?(\d[\d\s,]+)`),
	regexp.MustCompile(`(?i)сборы\D*?(\d[\d\s,]+)`),
	regexp.MustCompile(`(\d[\d\s,]+)\s*руб`),
}

// titleSkipWords mark navigation chrome that must never be mistaken for a
// film title.
var titleSkipWords = []string{"каталог", "вернуться", "создано", "смотреть", "©"}

// FilmExtractor extracts film box-office fields from detail pages.
// It implements the engine's Extractor interface.
type FilmExtractor struct{}

// NewFilmExtractor creates a film page extractor.
func NewFilmExtractor() *FilmExtractor {
	return &FilmExtractor{}
}

// KeyFields returns the field names that qualify a page as extracted.
func (x *FilmExtractor) KeyFields() []string {
	return keyFields
}

// Extract parses the page body and returns every field it can find. Missing
// fields are simply absent from the map; only an unparseable document is an
// error.
func (x *FilmExtractor) Extract(target string, body []byte) (engine.Fields, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		parseFailuresTotal.Inc()
		return nil, err
	}

	fields := make(engine.Fields)
	put := func(name, value string) {
		if value != "" {
			fields[name] = value
			fieldsExtractedTotal.WithLabelValues(name).Inc()
		}
	}

	put(FieldTitle, extractTitle(doc))
	put(FieldTotalFees, extractTotalFees(doc))
	put(FieldPresalesFees, labeledValue(doc, "span", "Предпродажи:"))
	put(FieldPremiereDayFees, labeledValue(doc, "span", "День премьеры:"))
	put(FieldFirstWeekendFees, labeledValue(doc, "span", "Первый уикенд:"))
	put(FieldSecondWeekendFees, labeledValue(doc, "span", "Второй уикенд:"))
	put(FieldCountry, nowrapValue(doc, "Страна:"))
	put(FieldStartDate, nowrapValue(doc, "Старт:"))
	put(FieldYear, nowrapValue(doc, "Год:"))
	put(FieldAgeRestriction, extractAgeRestriction(doc))

	return fields, nil
}

// extractTitle tries progressively looser selectors for the film title.
// Titles can be as short as one word, so length checks stay permissive.
func extractTitle(doc *goquery.Document) string {
	selectors := []string{
		"h1",
		"div.ftr__top__title",
		"h1.ftr__top__title",
		".film-title",
		".movie-title",
		"title",
	}

	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if isPlausibleTitle(text) {
			return text
		}
	}
	return ""
}

func isPlausibleTitle(text string) bool {
	if text == "" || len([]rune(text)) > 200 {
		return false
	}
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "http") {
		return false
	}
	for _, skip := range titleSkipWords {
		if strings.Contains(lower, skip) {
			return false
		}
	}
	return true
}

// extractTotalFees reads the labeled fees block, falling back to regex over
// the page text when the markup has changed.
func extractTotalFees(doc *goquery.Document) string {
	if v := labeledValue(doc, "div", "Общие сборы"); v != "" {
		return v
	}

	pageText := doc.Text()
	for _, pattern := range feePatterns {
		if m := pattern.FindStringSubmatch(pageText); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// labeledValue finds an element of the given tag whose text equals label and
// returns the text of the following span.-val element.
func labeledValue(doc *goquery.Document, tag, label string) string {
	var value string
	doc.Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != label {
			return true
		}
		value = strings.TrimSpace(s.NextAllFiltered("span.-val").First().Text())
		if value == "" {
			value = strings.TrimSpace(s.Parent().Find("span.-val").First().Text())
		}
		return value == ""
	})
	return value
}

// nowrapValue handles the span.-nowrap label rows (country, start date,
// year): the value is the sibling span after the label.
func nowrapValue(doc *goquery.Document, label string) string {
	var value string
	doc.Find("span.-nowrap").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != label {
			return true
		}
		value = strings.TrimSpace(s.NextFiltered("span").First().Text())
		if value == "" {
			value = strings.TrimSpace(s.Parent().Find("span").Eq(1).Text())
		}
		return value == ""
	})
	return value
}

// extractAgeRestriction reads the age badge, whose value sits in the div
// following the card-film-age marker.
func extractAgeRestriction(doc *goquery.Document) string {
	marker := doc.Find("div.card-film-age").First()
	if marker.Length() == 0 {
		return ""
	}
	if v := strings.TrimSpace(marker.Find("div").First().Text()); v != "" {
		return v
	}
	if v := strings.TrimSpace(marker.Next().Text()); v != "" {
		return v
	}
	return strings.TrimSpace(marker.Text())
}
