/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides canned punch datasets that populate the journal with realistic
	days for demos. Dates are relative to the journal clock so a loaded
	scenario always shows up in the current or previous week.

AVAILABLE SCENARIOS:

	regular-week:  Last week, five office/remote days with a lunch each
	open-day:      Today clocked in, not yet out
	work-gap:      A day split by a client call counted as work
	holiday-mixed: A holiday, a mixed office/remote day and a short day

HOW SCENARIOS WORK:
 1. Reset the store (clear all events and audit entries)
 2. Replay each punch through journal.AddPunch, so pairing, auto lunch
    and pair indices follow the normal command path
 3. Record a scenario audit entry

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "regular-week"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Command handlers
  - journal/commands.go: AddPunch
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/warp/worklog/journal"
	"github.com/warp/worklog/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// scenarioPunch is one AddPunch call; day is an offset from the anchor date.
type scenarioPunch struct {
	day      int
	in, out  string
	lunch    int
	position ledger.Position
	workGap  *bool
}

type scenario struct {
	ScenarioDTO
	// anchor picks the reference date from today.
	anchor  func(today ledger.Date) ledger.Date
	punches []scenarioPunch
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "regular-week",
			Name:        "Regular Week",
			Description: "Five days last week, office and remote, one lunch break per day",
		},
		anchor: previousMonday,
		punches: []scenarioPunch{
			{day: 0, in: "08:55", out: "12:30", position: ledger.PositionOffice},
			{day: 0, in: "13:15", out: "17:40", lunch: 45, position: ledger.PositionOffice},
			{day: 1, in: "09:10", out: "17:50", lunch: 60, position: ledger.PositionRemote},
			{day: 2, in: "08:30", out: "12:00", position: ledger.PositionOffice},
			{day: 2, in: "12:40", out: "16:45", lunch: 40, position: ledger.PositionOffice},
			{day: 3, in: "09:00", out: "17:00", lunch: 30, position: ledger.PositionRemote},
			{day: 4, in: "08:45", out: "16:10", lunch: 30, position: ledger.PositionOnSite},
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "open-day",
			Name:        "Open Day",
			Description: "Clocked in this morning, expected exit computed, no surplus yet",
		},
		anchor: func(today ledger.Date) ledger.Date { return today },
		punches: []scenarioPunch{
			{day: -1, in: "09:00", out: "17:45", lunch: 45, position: ledger.PositionOffice},
			{day: 0, in: "08:50", position: ledger.PositionOffice},
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "work-gap",
			Name:        "Work Gap",
			Description: "A day interrupted by a client call whose gap counts as work",
		},
		anchor: previousMonday,
		punches: []scenarioPunch{
			{day: 1, in: "08:30", out: "11:00", position: ledger.PositionOffice, workGap: ledger.BoolPtr(true)},
			{day: 1, in: "11:45", out: "13:00", position: ledger.PositionOffice},
			{day: 1, in: "13:30", out: "17:15", lunch: 30, position: ledger.PositionOffice},
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "holiday-mixed",
			Name:        "Holiday and Mixed",
			Description: "A holiday, a day split between office and remote, and a short day",
		},
		anchor: previousMonday,
		punches: []scenarioPunch{
			{day: 0, in: "09:00", out: "17:00", position: ledger.PositionHoliday},
			{day: 1, in: "08:40", out: "12:15", position: ledger.PositionOffice},
			{day: 1, in: "14:00", out: "18:05", lunch: 50, position: ledger.PositionRemote},
			{day: 2, in: "09:30", out: "14:00", lunch: 30, position: ledger.PositionRemote},
		},
	},
}

// previousMonday is the Monday of the week before today.
func previousMonday(today ledger.Date) ledger.Date {
	offset := (int(today.Weekday()) + 6) % 7
	return today.AddDays(-offset - 7)
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the last loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s.ScenarioDTO)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the journal and replays a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[LoadScenarioRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", fmt.Errorf("scenario %q not found", req.ScenarioID))
		return
	}

	n, err := h.loadScenario(r.Context(), s)
	if err != nil {
		h.writeServiceError(w, r, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, LoadScenarioResponse{ScenarioID: s.ID, Events: n})
}

// ResetDatabase clears every event and audit entry.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeServiceError(w, r, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// LOADER
// =============================================================================

// loadScenario returns the number of events written. A replay that fails
// part way is wiped again, so the store never holds half a scenario.
func (h *Handler) loadScenario(ctx context.Context, s scenario) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return 0, err
	}
	h.currentScenario = ""

	events, err := h.replay(ctx, s)
	if err != nil {
		if rerr := h.Store.Reset(ctx); rerr != nil {
			return 0, errors.Join(err, rerr)
		}
		return 0, err
	}

	h.currentScenario = s.ID
	h.Journal.RecordScenario(ctx, s.ID, events)
	return events, nil
}

func (h *Handler) replay(ctx context.Context, s scenario) (int, error) {
	anchor := s.anchor(h.Journal.Resolver().Today().Start)

	events := 0
	for _, p := range s.punches {
		input, err := p.input()
		if err != nil {
			return 0, fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		if _, err := h.Journal.AddPunch(ctx, anchor.AddDays(p.day), input); err != nil {
			return 0, fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		events++
		if input.In != nil && input.Out != nil {
			events++
		}
	}
	return events, nil
}

func (p scenarioPunch) input() (journal.PunchInput, error) {
	in, err := journal.ParseOptionalClock(p.in)
	if err != nil {
		return journal.PunchInput{}, err
	}
	out, err := journal.ParseOptionalClock(p.out)
	if err != nil {
		return journal.PunchInput{}, err
	}
	input := journal.PunchInput{
		In:       in,
		Out:      out,
		Position: p.position,
		WorkGap:  p.workGap,
		Source:   "scenario",
	}
	if p.lunch > 0 {
		input.Lunch = ledger.IntPtr(p.lunch)
	}
	return input, nil
}
