/*
Package export renders punch events and daily reports as CSV, JSON or XLSX.

PURPOSE:
  Turns the same data the API lists into downloadable documents. A
  Document carries a title derived from the requested period, ordered
  headers, one row of typed cells per record and the records themselves
  for JSON.

FORMATS:
  csv:  header line, one line per record
  json: array of records
  xlsx: one sheet with a merged title row, a styled header and typed cells

HOURS:
  Worked hours are exact two-decimal values (shopspring/decimal)
  so 7h 36m exports as 7.60.
*/
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/worklog/ledger"
)

// Format is an output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned by ParseFormat.
var ErrUnsupportedFormat = errors.New("unsupported export format (use csv, json or xlsx)")

// ParseFormat accepts a format name in any case; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension is the file extension for f, without dot.
func (f Format) Extension() string { return string(f) }

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a format-independent table.
type Document struct {
	Title   string
	Sheet   string
	Headers []string
	Rows    [][]any

	// Records is what JSON encodes; one element per row.
	Records any
}

// Write renders doc in format f.
func Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, doc)
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatXLSX:
		return writeXLSX(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// =============================================================================
// EVENTS
// =============================================================================

// EventRecord is the flat export shape of a punch event.
type EventRecord struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Kind       string `json:"kind"`
	Position   string `json:"position"`
	LunchBreak int    `json:"lunch_break"`
	Pair       int    `json:"pair"`
	Source     string `json:"source"`
}

var eventHeaders = []string{"id", "date", "time", "kind", "position", "lunch_break", "pair", "source"}

// Events builds the raw events document.
func Events(title string, events []ledger.PunchEvent) Document {
	records := make([]EventRecord, 0, len(events))
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		r := EventRecord{
			ID:         int64(e.ID),
			Date:       e.Date.String(),
			Time:       e.Time.String(),
			Kind:       string(e.Kind),
			Position:   string(e.Position),
			LunchBreak: e.LunchMinutes(),
			Pair:       e.PairIndex,
			Source:     e.Source,
		}
		records = append(records, r)
		rows = append(rows, []any{r.ID, r.Date, r.Time, r.Kind, r.Position, r.LunchBreak, r.Pair, r.Source})
	}
	return Document{Title: title, Sheet: "Events", Headers: eventHeaders, Rows: rows, Records: records}
}

// =============================================================================
// REPORTS
// =============================================================================

// ReportRecord is the flat export shape of a daily report.
type ReportRecord struct {
	Date          string          `json:"date"`
	Position      string          `json:"position"`
	FirstIn       string          `json:"first_in,omitempty"`
	LastOut       string          `json:"last_out,omitempty"`
	LunchMinutes  int             `json:"lunch_minutes"`
	WorkedMinutes int             `json:"worked_minutes"`
	WorkedHours   decimal.Decimal `json:"worked_hours"`
	ExpectedExit  string          `json:"expected_exit,omitempty"`
	Surplus       *int            `json:"surplus"`
	Unmatched     bool            `json:"unmatched"`
}

var reportHeaders = []string{
	"date", "position", "first_in", "last_out", "lunch_minutes",
	"worked_minutes", "worked_hours", "expected_exit", "surplus", "unmatched",
}

// Reports builds the daily reports document.
func Reports(title string, reports []ledger.DailyReport) Document {
	records := make([]ReportRecord, 0, len(reports))
	rows := make([][]any, 0, len(reports))
	for _, r := range reports {
		rec := ReportRecord{
			Date:          r.Date.String(),
			Position:      string(r.Position),
			FirstIn:       clockOrEmpty(r.FirstIn),
			LastOut:       clockOrEmpty(r.LastOut),
			LunchMinutes:  r.LunchMinutes,
			WorkedMinutes: r.WorkedMinutes,
			WorkedHours:   Hours(r.WorkedMinutes),
			ExpectedExit:  clockOrEmpty(r.ExpectedExit),
			Surplus:       r.Surplus,
			Unmatched:     r.HasUnmatched(),
		}
		records = append(records, rec)

		var surplus any = ""
		if rec.Surplus != nil {
			surplus = *rec.Surplus
		}
		rows = append(rows, []any{
			rec.Date, rec.Position, rec.FirstIn, rec.LastOut, rec.LunchMinutes,
			rec.WorkedMinutes, rec.WorkedHours, rec.ExpectedExit, surplus, rec.Unmatched,
		})
	}
	return Document{Title: title, Sheet: "Reports", Headers: reportHeaders, Rows: rows, Records: records}
}

// Hours converts minutes to hours rounded to two decimals.
func Hours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}

func clockOrEmpty(c *ledger.ClockTime) string {
	if c == nil {
		return ""
	}
	return c.String()
}

// =============================================================================
// TITLE
// =============================================================================

// Title describes the exported interval, e.g. "Saved sessions for March 2025".
func Title(iv ledger.DateInterval) string {
	switch {
	case iv.IsUnbounded() || iv.Start.IsZero():
		return "Saved sessions"
	case iv.Start == iv.End:
		return "Saved session for date " + iv.Start.String()
	case iv == ledger.MonthOf(iv.Start):
		return fmt.Sprintf("Saved sessions for %s %d", iv.Start.Month, iv.Start.Year)
	case iv == ledger.YearOf(iv.Start):
		return fmt.Sprintf("Saved sessions for year %d", iv.Start.Year)
	}
	return fmt.Sprintf("Saved sessions from %s to %s", iv.Start, iv.End)
}

// Filename is a download name such as "worklog-2025-03-01_2025-03-31.csv".
func Filename(iv ledger.DateInterval, f Format) string {
	if iv.IsUnbounded() || iv.Start.IsZero() {
		return "worklog-all." + f.Extension()
	}
	if iv.Start == iv.End {
		return fmt.Sprintf("worklog-%s.%s", iv.Start, f.Extension())
	}
	return fmt.Sprintf("worklog-%s_%s.%s", iv.Start, iv.End, f.Extension())
}
