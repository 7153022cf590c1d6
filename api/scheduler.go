/*
scheduler.go - Periodic pair index sweeper

PURPOSE:
  Pair indices are persisted after every journal command. Rows written by
  other tools (a restored backup, a manual SQL fix) can leave stale
  indices behind; the sweeper re-reconciles every stored date on a timer
  so exported "pair" columns stay in step with the engine.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Runs once immediately on start
  - A failed sweep is logged and retried on the next tick
  - Sweeps leave no audit entry; POST /api/recompute does

CONFIGURATION:
  - sweeper.enabled:  Whether the sweeper is active (default: false)
  - sweeper.interval: How often to sweep (default: 1h)

USAGE:
  sweeper := NewPairSweeper(svc, log)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - journal/service.go: RecomputeAll
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/worklog/logger"
)

// Recomputer re-reconciles every stored date.
type Recomputer interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// PairSweeper handles periodic pair index recomputation.
type PairSweeper struct {
	Journal  Recomputer
	Interval time.Duration
	Enabled  bool

	log     logger.Logger
	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun time.Time
	swept   int
}

// NewPairSweeper creates an enabled sweeper with an hourly interval.
func NewPairSweeper(j Recomputer, log logger.Logger) *PairSweeper {
	return &PairSweeper{
		Journal:  j,
		Interval: time.Hour,
		Enabled:  true,
		log:      logger.Named(log, "sweeper"),
	}
}

// Start begins the sweeper.
func (ps *PairSweeper) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		ps.log.Info().Msg("disabled, not starting")
		return
	}
	if ps.ticker != nil {
		return
	}
	interval := ps.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	ps.ticker = time.NewTicker(interval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go ps.run(ps.ticker, ps.stop, interval)

	ps.log.Info().Dur("interval", interval).Msg("started")
}

// Stop stops the sweeper and waits for a running sweep to finish.
func (ps *PairSweeper) Stop() {
	ps.mu.Lock()
	if ps.ticker == nil {
		ps.mu.Unlock()
		return
	}
	ps.ticker.Stop()
	close(ps.stop)
	ps.ticker = nil
	ps.mu.Unlock()

	ps.wg.Wait()
	ps.log.Info().Msg("stopped")
}

func (ps *PairSweeper) run(ticker *time.Ticker, stop <-chan struct{}, interval time.Duration) {
	defer ps.wg.Done()

	// Run immediately on start
	ps.sweep(interval)

	for {
		select {
		case <-ticker.C:
			ps.sweep(interval)
		case <-stop:
			return
		}
	}
}

// sweep runs one recompute bounded by timeout.
func (ps *PairSweeper) sweep(timeout time.Duration) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	n, err := ps.Journal.RecomputeAll(ctx)
	if err != nil {
		ps.log.Error().Err(err).Msg("sweep failed")
		return
	}

	ps.mu.Lock()
	ps.lastRun = start
	ps.swept = n
	ps.mu.Unlock()

	ps.log.Debug().Int("dates", n).Dur("elapsed", time.Since(start)).Msg("sweep done")
}

// RunNow triggers an immediate sweep on the caller's goroutine.
func (ps *PairSweeper) RunNow() {
	ps.mu.Lock()
	interval := ps.Interval
	ps.mu.Unlock()
	ps.sweep(interval)
}

// LastRun returns when the last successful sweep started and how many
// dates it covered.
func (ps *PairSweeper) LastRun() (time.Time, int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.lastRun, ps.swept
}
