package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worklog/ledger"
	"github.com/warp/worklog/logger"
)

// =============================================================================
// SCENARIO TESTS
// =============================================================================

func TestPreviousMonday(t *testing.T) {
	tests := []struct {
		today ledger.Date
		want  ledger.Date
	}{
		{ledger.NewDate(2025, time.June, 2), ledger.NewDate(2025, time.May, 26)},
		{ledger.NewDate(2025, time.June, 4), ledger.NewDate(2025, time.May, 26)},
		{ledger.NewDate(2025, time.June, 8), ledger.NewDate(2025, time.May, 26)},
		{ledger.NewDate(2025, time.June, 9), ledger.NewDate(2025, time.June, 2)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, previousMonday(tt.today), tt.today.String())
	}
}

func TestScenarios_AllLoad(t *testing.T) {
	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			// GIVEN: A journal holding unrelated data
			ts := newTestServer(t, true)
			ts.do(t, http.MethodPost, "/api/days/2020-01-01/punches", `{"in":"09:00"}`)

			// WHEN: Loading the scenario with lunch bounds enforced
			rec := ts.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"`+s.ID+`"}`)

			// THEN: It replaces the data and every punch is accepted
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[LoadScenarioResponse](t, rec)
			assert.Equal(t, s.ID, resp.ScenarioID)

			events := decode[EventsResponse](t, ts.do(t, http.MethodGet, "/api/events?period=all", ""))
			assert.Len(t, events.Events, resp.Events)
			for _, e := range events.Events {
				assert.NotEqual(t, "2020-01-01", e.Date)
				assert.Equal(t, "scenario", e.Source)
			}

			entries := decode[[]AuditEntryDTO](t, ts.do(t, http.MethodGet, "/api/log", ""))
			require.NotEmpty(t, entries)
			assert.Equal(t, "scenario", entries[0].Operation)

			current := decode[ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios/current", ""))
			assert.Equal(t, s.ID, current.ID)
		})
	}
}

func TestScenarios_RegularWeek(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"regular-week"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 14, decode[LoadScenarioResponse](t, rec).Events)

	resp := decode[ReportsResponse](t, ts.do(t, http.MethodGet, "/api/reports?period=2025-05-26:2025-05-30", ""))
	require.Len(t, resp.Days, 5)
	assert.Equal(t, "2025-05-26", resp.Days[0].Date)
	assert.Len(t, resp.Days[0].Pairs, 2)
	assert.Equal(t, "C", resp.Days[4].Position)
}

func TestScenarios_UnknownAndReset(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/scenarios/load", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"open-day"}`)
	rec = ts.do(t, http.MethodPost, "/api/scenarios/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	events := decode[EventsResponse](t, ts.do(t, http.MethodGet, "/api/events?period=all", ""))
	assert.Empty(t, events.Events)
	assert.Equal(t, "null", string(bytes.TrimSpace(ts.do(t, http.MethodGet, "/api/scenarios/current", "").Body.Bytes())))
	assert.Len(t, decode[[]ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios", "")), len(scenarios))
}

func TestLoadScenario_FailedReplayLeavesNothingBehind(t *testing.T) {
	// GIVEN: A loaded scenario and a broken one whose second punch has no IN to close
	ts := newTestServer(t, false)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"regular-week"}`).Code)
	broken := scenario{
		ScenarioDTO: ScenarioDTO{ID: "broken", Name: "Broken"},
		anchor:      func(today ledger.Date) ledger.Date { return today },
		punches: []scenarioPunch{
			{day: 0, in: "09:00", out: "12:00"},
			{day: 1, out: "17:00"},
		},
	}

	// WHEN: Loading the broken scenario
	_, err := ts.handler.loadScenario(context.Background(), broken)

	// THEN: The error surfaces, no partial data is kept and no scenario is current
	require.Error(t, err)
	events := decode[EventsResponse](t, ts.do(t, http.MethodGet, "/api/events?period=all", ""))
	assert.Empty(t, events.Events)
	assert.Equal(t, "null", string(bytes.TrimSpace(ts.do(t, http.MethodGet, "/api/scenarios/current", "").Body.Bytes())))
}

// =============================================================================
// SWEEPER TESTS
// =============================================================================

type countingRecomputer struct {
	calls atomic.Int32
	err   error
}

func (c *countingRecomputer) RecomputeAll(context.Context) (int, error) {
	c.calls.Add(1)
	return 3, c.err
}

func TestPairSweeper_RunsOnStart(t *testing.T) {
	// GIVEN: A sweeper with a long interval
	rc := &countingRecomputer{}
	ps := NewPairSweeper(rc, logger.Nop())
	ps.Interval = time.Hour

	// WHEN: Starting and stopping it
	ps.Start()
	ps.Stop()

	// THEN: The initial sweep ran exactly once
	assert.Equal(t, int32(1), rc.calls.Load())
	last, n := ps.LastRun()
	assert.False(t, last.IsZero())
	assert.Equal(t, 3, n)

	// Stopping twice is a no-op
	ps.Stop()
}

func TestPairSweeper_DisabledDoesNothing(t *testing.T) {
	rc := &countingRecomputer{}
	ps := NewPairSweeper(rc, logger.Nop())
	ps.Enabled = false

	ps.Start()
	ps.Stop()

	assert.Equal(t, int32(0), rc.calls.Load())
}

func TestPairSweeper_FailureKeepsLastRun(t *testing.T) {
	rc := &countingRecomputer{err: errors.New("db locked")}
	ps := NewPairSweeper(rc, logger.Nop())

	ps.RunNow()

	last, n := ps.LastRun()
	assert.True(t, last.IsZero())
	assert.Equal(t, 0, n)
}

type deadlineRecomputer struct {
	mu        sync.Mutex
	deadlines []time.Duration
}

func (d *deadlineRecomputer) RecomputeAll(ctx context.Context) (int, error) {
	dl, _ := ctx.Deadline()
	d.mu.Lock()
	d.deadlines = append(d.deadlines, time.Until(dl))
	d.mu.Unlock()
	return 0, nil
}

func TestPairSweeper_TimeoutFollowsInterval(t *testing.T) {
	// GIVEN: A sweeper started without an interval
	rc := &deadlineRecomputer{}
	ps := NewPairSweeper(rc, logger.Nop())
	ps.Interval = 0

	// WHEN: It starts and a manual sweep runs alongside
	ps.Start()
	ps.RunNow()
	ps.Stop()

	// THEN: The started sweep is bounded by the hourly default, the manual one by a minute,
	// and the configured interval is left as given
	rc.mu.Lock()
	defer rc.mu.Unlock()
	require.Len(t, rc.deadlines, 2)
	var short, long int
	for _, d := range rc.deadlines {
		switch {
		case d > time.Minute && d <= time.Hour:
			long++
		case d > 0 && d <= time.Minute:
			short++
		}
	}
	assert.Equal(t, 1, long)
	assert.Equal(t, 1, short)
	assert.Equal(t, time.Duration(0), ps.Interval)
}
