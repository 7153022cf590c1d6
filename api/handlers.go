/*
handlers.go - HTTP API handlers for the work-time ledger

PURPOSE:
  Exposes the journal commands and reports via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to journal.Service.

ENDPOINTS:
  Reports:
    GET    /api/reports?period=EXPR&today=bool  Daily reports and period totals
    GET    /api/events?period=EXPR&today=bool   Raw punch events
    GET    /api/days/{date}                     Report of one date

  Commands:
    POST   /api/days/{date}/punches             IN, OUT, IN+OUT or lunch only
    PUT    /api/days/{date}/lunch               Lunch on the day's last event
    PUT    /api/days/{date}/pairs/{pair}        Edit pair N
    PUT    /api/days/{date}/pairs/{pair}/work-gap  Set or clear the work-gap flag
    DELETE /api/days/{date}/pairs/{pair}        Delete pair N
    DELETE /api/days/{date}                     Delete every event of the date
    POST   /api/recompute                       Recompute pair indices of all dates

  Other:
    GET    /api/export?range=EXPR&format=csv|json|xlsx&events=bool
    GET    /api/log?limit=N                     Audit log, newest first
    GET    /api/config                          Effective engine rules
    GET    /api/scenarios                       List demo scenarios
    POST   /api/scenarios/load                  Load a demo scenario

REQUEST FLOW:
  1. Parse path, query and body (decodeJSON validates request DTOs)
  2. Convert strings to ledger values with the journal parsers
  3. Call the journal service
  4. Serialize the resulting report

ERROR HANDLING:
  Errors are returned as JSON {error, details, examples?}:
  - 400: Invalid input, malformed period (with accepted examples)
  - 404: Date or pair not found
  - 422: Lunch refused by the enforced bounds
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/worklog/export"
	"github.com/warp/worklog/journal"
	"github.com/warp/worklog/ledger"
	"github.com/warp/worklog/logger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter wipes every event and audit entry. Scenarios need it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Journal *journal.Service
	Store   Resetter

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over a journal service.
func NewHandler(svc *journal.Service, store Resetter) *Handler {
	return &Handler{Journal: svc, Store: store}
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ListReports returns one report per date holding events, plus period totals.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	today, err := queryBool(r, "today")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid today flag", err)
		return
	}
	period := r.URL.Query().Get("period")

	set, err := h.Journal.Reports(r.Context(), period, today)
	if err != nil {
		h.writeServiceError(w, r, "Failed to build reports", err)
		return
	}

	resp := ReportsResponse{
		Period:   period,
		Interval: toIntervalDTO(set.Interval),
		Days:     make([]DailyReportDTO, len(set.Days)),
		Summary:  toSummaryDTO(set.Summary),
	}
	for i, d := range set.Days {
		resp.Days[i] = toDailyReportDTO(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListEvents returns raw events ordered by date, time and id.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	today, err := queryBool(r, "today")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid today flag", err)
		return
	}

	events, interval, err := h.Journal.Events(r.Context(), r.URL.Query().Get("period"), today)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list events", err)
		return
	}

	resp := EventsResponse{Interval: toIntervalDTO(interval), Events: make([]EventDTO, len(events))}
	for i, e := range events {
		resp.Events[i] = toEventDTO(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDay returns the report of one date; an empty date yields an empty report.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}
	report, err := h.Journal.Day(r.Context(), date)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportDTO(report))
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// AddPunch records an IN, an OUT, a pair or a lunch.
func (h *Handler) AddPunch(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}
	req, err := decodeJSON[PunchRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	input, err := toPunchInput(req)
	if err != nil {
		h.writeServiceError(w, r, "Invalid punch", err)
		return
	}

	report, err := h.Journal.AddPunch(r.Context(), date, input)
	if err != nil {
		h.writeServiceError(w, r, "Failed to add punch", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDailyReportDTO(report))
}

func toPunchInput(req PunchRequest) (journal.PunchInput, error) {
	in, err := journal.ParseOptionalClock(req.In)
	if err != nil {
		return journal.PunchInput{}, err
	}
	out, err := journal.ParseOptionalClock(req.Out)
	if err != nil {
		return journal.PunchInput{}, err
	}
	pos, err := journal.ParsePosition(req.Position)
	if err != nil {
		return journal.PunchInput{}, err
	}
	return journal.PunchInput{
		In:       in,
		Out:      out,
		Lunch:    req.Lunch,
		Position: pos,
		WorkGap:  req.WorkGap,
		Source:   "api",
	}, nil
}

// SetLunch stores a lunch on the day's last event.
func (h *Handler) SetLunch(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}
	req, err := decodeJSON[LunchRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	report, err := h.Journal.SetLunch(r.Context(), date, *req.Lunch)
	if err != nil {
		h.writeServiceError(w, r, "Failed to set lunch", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportDTO(report))
}

// EditPair changes the given fields of pair N.
func (h *Handler) EditPair(w http.ResponseWriter, r *http.Request) {
	date, index, ok := pathPair(w, r)
	if !ok {
		return
	}
	req, err := decodeJSON[PairEditRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	edit, err := toPairEdit(req)
	if err != nil {
		h.writeServiceError(w, r, "Invalid edit", err)
		return
	}

	report, err := h.Journal.EditPair(r.Context(), date, index, edit)
	if err != nil {
		h.writeServiceError(w, r, "Failed to edit pair", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportDTO(report))
}

func toPairEdit(req PairEditRequest) (journal.PairEdit, error) {
	edit := journal.PairEdit{Lunch: req.Lunch, WorkGap: req.WorkGap}
	var err error
	if edit.In, err = journal.ParseOptionalClock(req.In); err != nil {
		return journal.PairEdit{}, err
	}
	if edit.Out, err = journal.ParseOptionalClock(req.Out); err != nil {
		return journal.PairEdit{}, err
	}
	if req.Position != "" {
		pos, err := journal.ParsePosition(req.Position)
		if err != nil {
			return journal.PairEdit{}, err
		}
		edit.Position = &pos
	}
	return edit, nil
}

// SetWorkGap sets or clears the work-gap flag on pair N's OUT.
func (h *Handler) SetWorkGap(w http.ResponseWriter, r *http.Request) {
	date, index, ok := pathPair(w, r)
	if !ok {
		return
	}
	req, err := decodeJSON[WorkGapRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	report, err := h.Journal.SetWorkGap(r.Context(), date, index, req.WorkGap)
	if err != nil {
		h.writeServiceError(w, r, "Failed to set work gap", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportDTO(report))
}

// DeletePair removes both events of pair N.
func (h *Handler) DeletePair(w http.ResponseWriter, r *http.Request) {
	date, index, ok := pathPair(w, r)
	if !ok {
		return
	}
	report, err := h.Journal.DeletePair(r.Context(), date, index)
	if err != nil {
		h.writeServiceError(w, r, "Failed to delete pair", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportDTO(report))
}

// DeleteDay removes every event of the date.
func (h *Handler) DeleteDay(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}
	removed, err := h.Journal.DeleteDay(r.Context(), date)
	if err != nil {
		h.writeServiceError(w, r, "Failed to delete day", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteDayResponse{Date: date.String(), Removed: removed})
}

// Recompute re-reconciles every stored date.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	n, err := h.Journal.Rebuild(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to recompute pairs", err)
		return
	}
	writeJSON(w, http.StatusOK, RecomputeResponse{Dates: n})
}

// =============================================================================
// EXPORT, AUDIT, CONFIG
// =============================================================================

// Export downloads events or daily reports. An empty range exports the
// whole history.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid export format", err)
		return
	}
	rawEvents, err := queryBool(r, "events")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid events flag", err)
		return
	}
	expr := q.Get("range")
	if expr == "" {
		expr = ledger.AllPeriodLiteral
	}

	var (
		doc      export.Document
		interval ledger.DateInterval
	)
	if rawEvents {
		var events []ledger.PunchEvent
		events, interval, err = h.Journal.Events(r.Context(), expr, false)
		if err != nil {
			h.writeServiceError(w, r, "Failed to export events", err)
			return
		}
		doc = export.Events(export.Title(interval), events)
	} else {
		set, err := h.Journal.Reports(r.Context(), expr, false)
		if err != nil {
			h.writeServiceError(w, r, "Failed to export reports", err)
			return
		}
		interval = set.Interval
		doc = export.Reports(export.Title(interval), set.Days)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, doc); err != nil {
		h.writeServiceError(w, r, "Failed to render export", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(interval, format)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ListAudit returns the newest audit entries first.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", fmt.Errorf("limit %q must be a non-negative integer", s))
			return
		}
		limit = n
	}

	entries, err := h.Journal.Audit(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list audit log", err)
		return
	}
	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConfig returns the engine rules the journal runs with.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.Journal.Config()
	rule := h.Journal.AutoLunch()
	writeJSON(w, http.StatusOK, ConfigDTO{
		DefaultPosition:     string(cfg.DefaultPosition),
		WorkDurationMinutes: cfg.WorkDurationMinutes,
		WorkDuration:        ledger.FormatMinutes(cfg.WorkDurationMinutes),
		MinLunchMinutes:     cfg.MinLunchMinutes,
		MaxLunchMinutes:     cfg.MaxLunchMinutes,
		EnforceLunchBounds:  h.Journal.EnforcesLunchBounds(),
		AutoLunch: AutoLunchDTO{
			Enabled:     rule.Enabled,
			WindowStart: rule.WindowStart.String(),
			WindowEnd:   rule.WindowEnd.String(),
		},
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	if ledger.IsPeriodError(err) {
		resp.Examples = ledger.PeriodExamples
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps journal and ledger errors to a status code.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case journal.IsLunchViolation(err):
		return http.StatusUnprocessableEntity
	case journal.IsNotFound(err):
		return http.StatusNotFound
	case journal.IsClientError(err), errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func pathDate(w http.ResponseWriter, r *http.Request) (ledger.Date, bool) {
	date, err := journal.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return ledger.Date{}, false
	}
	return date, true
}

func pathPair(w http.ResponseWriter, r *http.Request) (ledger.Date, int, bool) {
	date, ok := pathDate(w, r)
	if !ok {
		return ledger.Date{}, 0, false
	}
	raw := chi.URLParam(r, "pair")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 1 {
		writeError(w, http.StatusBadRequest, "Invalid pair index", fmt.Errorf("pair %q must be a positive integer", raw))
		return ledger.Date{}, 0, false
	}
	return date, index, true
}

func queryBool(r *http.Request, key string) (bool, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
