package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kinostat/kinofetch/pkg/engine"
	"github.com/kinostat/kinofetch/pkg/extract"
)

// csvColumns is the fixed column order of the results CSV. Fee columns hold
// normalized integers, start_date is converted to ISO form, and age is
// derived from the raw age_restriction badge.
var csvColumns = []string{
	"url",
	"title_name",
	"total_fees",
	"presales_fees",
	"premiere_day_fees",
	"first_weekend_fees",
	"second_weekend_fees",
	"country",
	"start_date",
	"year",
	"age_restriction",
	"age",
	"error",
	"parse_time",
	"attempt_count",
	"batch_number",
	"parsing_date",
	"parsing_datetime",
}

// feeColumns maps CSV fee columns to their source fields.
var feeColumns = map[string]string{
	"total_fees":          extract.FieldTotalFees,
	"presales_fees":       extract.FieldPresalesFees,
	"premiere_day_fees":   extract.FieldPremiereDayFees,
	"first_weekend_fees":  extract.FieldFirstWeekendFees,
	"second_weekend_fees": extract.FieldSecondWeekendFees,
}

// WriteCSV writes one normalized row per result, in result order. The
// parsing_date and parsing_datetime columns are stamped with now.
func WriteCSV(w io.Writer, results []engine.Result, now time.Time) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	parsingDate := now.Format("2006-01-02")
	parsingDateTime := now.Format("2006-01-02 15:04:05")

	for _, r := range results {
		row := make([]string, 0, len(csvColumns))
		for _, col := range csvColumns {
			row = append(row, csvValue(col, r, parsingDate, parsingDateTime))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvValue(col string, r engine.Result, parsingDate, parsingDateTime string) string {
	if field, ok := feeColumns[col]; ok {
		if n, ok := ParseFee(r.Fields[field]); ok {
			return strconv.FormatInt(n, 10)
		}
		return ""
	}

	switch col {
	case "url":
		return r.Target
	case "title_name":
		return r.Fields[extract.FieldTitle]
	case "country":
		return r.Fields[extract.FieldCountry]
	case "start_date":
		return ParseRussianDate(r.Fields[extract.FieldStartDate])
	case "year":
		return r.Fields[extract.FieldYear]
	case "age_restriction":
		return r.Fields[extract.FieldAgeRestriction]
	case "age":
		if n, ok := ParseAge(r.Fields[extract.FieldAgeRestriction]); ok {
			return strconv.Itoa(n)
		}
		return ""
	case "error":
		if r.Err != nil {
			return r.Err.Message
		}
		return ""
	case "parse_time":
		return strconv.FormatFloat(r.Elapsed.Seconds(), 'f', 3, 64)
	case "attempt_count":
		return strconv.Itoa(r.Attempts)
	case "batch_number":
		return strconv.Itoa(r.Batch)
	case "parsing_date":
		return parsingDate
	case "parsing_datetime":
		return parsingDateTime
	}
	return ""
}
