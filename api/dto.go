/*
dto.go - Data Transfer Objects for the HTTP API

PURPOSE:
  Defines the JSON shapes exchanged with clients. DTOs decouple the wire
  format from the ledger types: clock times travel as "HH:MM" strings,
  dates as "YYYY-MM-DD", and every minute count also ships pre-formatted.

NAMING CONVENTION:
  - *DTO: Response building blocks (DailyReportDTO, PairDTO)
  - *Request: Request bodies (PunchRequest, PairEditRequest)
  - *Response: Top-level response envelopes (ReportsResponse)

VALIDATION:
  Request structs carry validator/v10 tags checked by decodeJSON before
  the journal parses times and positions.

SEE ALSO:
  - handlers.go: Uses these DTOs
  - ledger/types.go: Engine types these mirror
*/
package api

import (
	"time"

	"github.com/warp/worklog/ledger"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Details  string   `json:"details,omitempty"`
	Examples []string `json:"examples,omitempty"`
}

// =============================================================================
// REPORTS
// =============================================================================

type IntervalDTO struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	All   bool   `json:"all"`
	Label string `json:"label"`
}

type EventDTO struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Kind     string `json:"kind"`
	Position string `json:"position,omitempty"`
	Lunch    *int   `json:"lunch,omitempty"`
	Deduced  bool   `json:"lunch_deduced,omitempty"`
	WorkGap  *bool  `json:"work_gap,omitempty"`
	Pair     int    `json:"pair"`
	Source   string `json:"source"`
}

type PairDTO struct {
	Index         int     `json:"index"`
	In            *string `json:"in"`
	Out           *string `json:"out"`
	Position      string  `json:"position"`
	Lunch         int     `json:"lunch"`
	LunchInGap    bool    `json:"lunch_in_gap,omitempty"`
	WorkedMinutes int     `json:"worked_minutes"`
	Worked        string  `json:"worked"`
	WorkGap       *bool   `json:"work_gap,omitempty"`
	Unmatched     bool    `json:"unmatched"`
}

type GapDTO struct {
	After        int    `json:"after"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Minutes      int    `json:"minutes"`
	CountsAsWork bool   `json:"counts_as_work"`
}

// LunchWarningDTO reports a lunch outside the configured bounds.
type LunchWarningDTO struct {
	Pair    int    `json:"pair"`
	Lunch   int    `json:"lunch"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Message string `json:"message"`
}

// DailyReportDTO is one day. Nullable times are omitted, surplus is null
// when the day has no OUT.
type DailyReportDTO struct {
	Date          string            `json:"date"`
	Weekday       string            `json:"weekday"`
	Position      string            `json:"position"`
	PositionLabel string            `json:"position_label"`
	Pairs         []PairDTO         `json:"pairs"`
	Gaps          []GapDTO          `json:"gaps"`
	WorkedMinutes int               `json:"worked_minutes"`
	Worked        string            `json:"worked"`
	LunchMinutes  int               `json:"lunch_minutes"`
	FirstIn       *string           `json:"first_in,omitempty"`
	LastOut       *string           `json:"last_out,omitempty"`
	ExpectedExit  *string           `json:"expected_exit,omitempty"`
	Surplus       *int              `json:"surplus"`
	SurplusText   string            `json:"surplus_text"`
	Unmatched     bool              `json:"unmatched"`
	LunchWarnings []LunchWarningDTO `json:"lunch_warnings,omitempty"`
}

type SummaryDTO struct {
	Days           int    `json:"days"`
	WorkedMinutes  int    `json:"worked_minutes"`
	Worked         string `json:"worked"`
	LunchMinutes   int    `json:"lunch_minutes"`
	Surplus        int    `json:"surplus"`
	SurplusText    string `json:"surplus_text"`
	DaysWithOut    int    `json:"days_with_out"`
	UnmatchedPairs int    `json:"unmatched_pairs"`
}

type ReportsResponse struct {
	Period   string           `json:"period"`
	Interval IntervalDTO      `json:"interval"`
	Days     []DailyReportDTO `json:"days"`
	Summary  SummaryDTO       `json:"summary"`
}

type EventsResponse struct {
	Interval IntervalDTO `json:"interval"`
	Events   []EventDTO  `json:"events"`
}

// =============================================================================
// COMMANDS
// =============================================================================

// PunchRequest adds an IN, an OUT, a pair, or a lunch when neither time is set.
type PunchRequest struct {
	In       string `json:"in" validate:"omitempty,len=5"`
	Out      string `json:"out" validate:"omitempty,len=5"`
	Lunch    *int   `json:"lunch" validate:"omitempty,min=0,max=1440"`
	Position string `json:"position" validate:"omitempty,len=1"`
	WorkGap  *bool  `json:"work_gap"`
}

type LunchRequest struct {
	Lunch *int `json:"lunch" validate:"required,min=0,max=1440"`
}

// PairEditRequest changes the provided fields of one pair.
type PairEditRequest struct {
	Position string `json:"position" validate:"omitempty,len=1"`
	In       string `json:"in" validate:"omitempty,len=5"`
	Out      string `json:"out" validate:"omitempty,len=5"`
	Lunch    *int   `json:"lunch" validate:"omitempty,min=0,max=1440"`
	WorkGap  *bool  `json:"work_gap"`
}

// WorkGapRequest sets (true/false) or clears (null) the flag.
type WorkGapRequest struct {
	WorkGap *bool `json:"work_gap"`
}

type DeleteDayResponse struct {
	Date    string `json:"date"`
	Removed int    `json:"removed"`
}

type RecomputeResponse struct {
	Dates int `json:"dates"`
}

// =============================================================================
// AUDIT, SCENARIOS, CONFIG
// =============================================================================

type AuditEntryDTO struct {
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
	Operation string    `json:"operation"`
	Target    string    `json:"target"`
	Message   string    `json:"message"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

type LoadScenarioResponse struct {
	ScenarioID string `json:"scenario_id"`
	Events     int    `json:"events"`
}

type ConfigDTO struct {
	DefaultPosition     string       `json:"default_position"`
	WorkDurationMinutes int          `json:"work_duration_minutes"`
	WorkDuration        string       `json:"work_duration"`
	MinLunchMinutes     int          `json:"min_lunch_minutes"`
	MaxLunchMinutes     int          `json:"max_lunch_minutes"`
	EnforceLunchBounds  bool         `json:"enforce_lunch_bounds"`
	AutoLunch           AutoLunchDTO `json:"auto_lunch"`
}

type AutoLunchDTO struct {
	Enabled     bool   `json:"enabled"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toIntervalDTO(iv ledger.DateInterval) IntervalDTO {
	if iv.IsUnbounded() {
		return IntervalDTO{All: true, Label: iv.String()}
	}
	return IntervalDTO{Start: iv.Start.String(), End: iv.End.String(), Label: iv.String()}
}

func toEventDTO(e ledger.PunchEvent) EventDTO {
	return EventDTO{
		ID:       int64(e.ID),
		Date:     e.Date.String(),
		Time:     e.Time.String(),
		Kind:     string(e.Kind),
		Position: string(e.Position),
		Lunch:    e.Lunch,
		Deduced:  e.LunchDeduced,
		WorkGap:  e.WorkGap,
		Pair:     e.PairIndex,
		Source:   e.Source,
	}
}

func toPairDTO(p ledger.Pair) PairDTO {
	dto := PairDTO{
		Index:         p.Index,
		Position:      string(p.Position),
		Lunch:         p.Lunch,
		LunchInGap:    p.LunchInGap,
		WorkedMinutes: p.Duration(),
		Worked:        ledger.FormatMinutes(p.Duration()),
		Unmatched:     p.Unmatched,
	}
	if p.In != nil {
		dto.In = strPtr(p.In.Time.String())
	}
	if p.Out != nil {
		dto.Out = strPtr(p.Out.Time.String())
		dto.WorkGap = p.Out.WorkGap
	}
	return dto
}

func toDailyReportDTO(r ledger.DailyReport) DailyReportDTO {
	dto := DailyReportDTO{
		Date:          r.Date.String(),
		Weekday:       r.Date.Weekday().String(),
		Position:      string(r.Position),
		PositionLabel: r.Position.Label(),
		Pairs:         make([]PairDTO, len(r.Pairs)),
		Gaps:          make([]GapDTO, len(r.Gaps)),
		WorkedMinutes: r.WorkedMinutes,
		Worked:        ledger.FormatMinutes(r.WorkedMinutes),
		LunchMinutes:  r.LunchMinutes,
		FirstIn:       clockPtr(r.FirstIn),
		LastOut:       clockPtr(r.LastOut),
		ExpectedExit:  clockPtr(r.ExpectedExit),
		Surplus:       r.Surplus,
		SurplusText:   ledger.FormatSurplus(r.Surplus),
		Unmatched:     r.HasUnmatched(),
	}
	for i, p := range r.Pairs {
		dto.Pairs[i] = toPairDTO(p)
	}
	for i, g := range r.Gaps {
		dto.Gaps[i] = GapDTO{
			After:        g.After,
			Start:        g.Start.String(),
			End:          g.End.String(),
			Minutes:      g.Minutes(),
			CountsAsWork: g.CountsAsWork,
		}
	}
	for _, v := range r.LunchViolations {
		dto.LunchWarnings = append(dto.LunchWarnings, LunchWarningDTO{
			Pair:    v.Pair,
			Lunch:   v.Lunch,
			Min:     v.Min,
			Max:     v.Max,
			Message: v.Error(),
		})
	}
	return dto
}

func toSummaryDTO(s ledger.PeriodSummary) SummaryDTO {
	return SummaryDTO{
		Days:           s.Days,
		WorkedMinutes:  s.WorkedMinutes,
		Worked:         ledger.FormatMinutes(s.WorkedMinutes),
		LunchMinutes:   s.LunchMinutes,
		Surplus:        s.Surplus,
		SurplusText:    ledger.FormatSignedMinutes(s.Surplus),
		DaysWithOut:    s.DaysWithOut,
		UnmatchedPairs: s.UnmatchedPairs,
	}
}

func toAuditEntryDTO(e ledger.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:        e.ID,
		At:        e.At,
		Operation: string(e.Operation),
		Target:    e.Target,
		Message:   e.Message,
	}
}

func clockPtr(c *ledger.ClockTime) *string {
	if c == nil {
		return nil
	}
	return strPtr(c.String())
}

func strPtr(s string) *string {
	return &s
}
