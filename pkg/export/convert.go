// Package export turns run results into the delivery artifacts: a CSV of
// normalized film records and a plain-text run report.
package export

import (
	"regexp"
	"strconv"
	"strings"
)

// russianMonths maps Russian month names and their abbreviated forms (with
// and without a trailing period) to month numbers.
var russianMonths = map[string]string{
	"янв": "01", "янв.": "01", "января": "01",
	"февр": "02", "февр.": "02", "февраля": "02",
	"мар": "03", "мар.": "03", "марта": "03",
	"апр": "04", "апр.": "04", "апреля": "04",
	"май": "05", "май.": "05", "мая": "05",
	"июн": "06", "июн.": "06", "июня": "06",
	"июл": "07", "июл.": "07", "июля": "07",
	"авг": "08", "авг.": "08", "августа": "08",
	"сент": "09", "сент.": "09", "сентября": "09",
	"окт": "10", "окт.": "10", "октября": "10",
	"нояб": "11", "нояб.": "11", "ноября": "11",
	"дек": "12", "дек.": "12", "декабря": "12",
}

var (
	nonFeeChars  = regexp.MustCompile(`[^\d\s,]`)
	feeSeparator = regexp.MustCompile(`[\s,]`)
	datePattern  = regexp.MustCompile(`(\d{1,2})\s+([\p{L}]+\.?)\s+(\d{4})`)
	agePattern   = regexp.MustCompile(`(\d+)\+`)
)

// ParseFee converts a displayed fee like "123 456 789 руб" to its integer
// value. Returns false when the string holds no number.
func ParseFee(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	clean := nonFeeChars.ReplaceAllString(s, "")
	clean = feeSeparator.ReplaceAllString(clean, "")
	if clean == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseRussianDate converts dates like "28 авг. 2025" or "1 августа 2025"
// to ISO form "2025-08-28". Unrecognized input is returned unchanged so the
// raw value still lands in the CSV.
func ParseRussianDate(s string) string {
	if s == "" {
		return ""
	}
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	month, ok := russianMonths[strings.ToLower(m[2])]
	if !ok {
		return s
	}
	day := m[1]
	if len(day) == 1 {
		day = "0" + day
	}
	return m[3] + "-" + month + "-" + day
}

// ParseAge extracts the number from an age badge like "16+". Returns false
// when no age marker is present.
func ParseAge(s string) (int, bool) {
	m := agePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
