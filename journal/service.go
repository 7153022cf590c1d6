/*
Package journal is the command layer around the ledger engine.

PURPOSE:
  Every mutation of the punch journal goes through a Service: it validates
  the command, writes the raw events inside one storage transaction,
  re-reconciles the touched date, persists the recomputed pair indices and
  appends an audit entry. Reads resolve a period expression and run the
  pure ledger pipeline over a storage snapshot.

COMMANDS:
  AddPunch    - IN only, OUT only, IN+OUT pair, or lunch only
  SetLunch    - lunch on the day's last event
  EditPair    - position/in/out/lunch/work-gap of pair N
  SetWorkGap  - explicit work-gap flag on pair N's OUT
  DeletePair  - remove both events of pair N
  DeleteDay   - remove every event of a date

LUNCH POLICY:
  Out-of-bounds lunches are reported on the DailyReport. With
  EnforceLunchBounds a command that would store one is rolled back and
  returns the *ledger.LunchOutOfBoundsError.

SEE ALSO:
  - ledger/types.go: Engine types
  - ledger/store.go: Storage contracts
*/
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/worklog/ledger"
	"github.com/warp/worklog/logger"
)

// Options configures a Service.
type Options struct {
	Config             ledger.Config
	AutoLunch          ledger.AutoLunchRule
	EnforceLunchBounds bool
	Logger             logger.Logger
	Now                func() time.Time
}

// Service executes journal commands and queries.
type Service struct {
	store    ledger.TxStore
	audit    ledger.AuditLog
	cfg      ledger.Config
	rule     ledger.AutoLunchRule
	enforce  bool
	resolver *ledger.Resolver
	log      logger.Logger
	now      func() time.Time
}

// NewService wires a store and an audit log. A zero Options.Config falls
// back to ledger.DefaultConfig().
func NewService(store ledger.TxStore, audit ledger.AuditLog, opt Options) *Service {
	if opt.Config == (ledger.Config{}) {
		opt.Config = ledger.DefaultConfig()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Service{
		store:    store,
		audit:    audit,
		cfg:      opt.Config,
		rule:     opt.AutoLunch,
		enforce:  opt.EnforceLunchBounds,
		resolver: ledger.NewResolver(opt.Now),
		log:      logger.Named(opt.Logger, "journal"),
		now:      opt.Now,
	}
}

// Config returns the engine rules in effect.
func (s *Service) Config() ledger.Config { return s.cfg }

// AutoLunch returns the lunch deduction rule in effect.
func (s *Service) AutoLunch() ledger.AutoLunchRule { return s.rule }

// EnforcesLunchBounds reports whether out-of-bounds lunches are refused.
func (s *Service) EnforcesLunchBounds() bool { return s.enforce }

// Resolver returns the period resolver on the service clock.
func (s *Service) Resolver() *ledger.Resolver { return s.resolver }

// =============================================================================
// RECOMPUTE - Persist pair indices after a mutation
// =============================================================================

// recompute reconciles date on tx, saves its pair indices and returns the report.
func (s *Service) recompute(ctx context.Context, tx ledger.EventStore, date ledger.Date) (ledger.DailyReport, error) {
	events, err := tx.EventsByDate(ctx, date)
	if err != nil {
		return ledger.DailyReport{}, err
	}
	pairs := ledger.Reconcile(date, events, s.cfg.DefaultPosition)
	if err := tx.SavePairIndices(ctx, date, ledger.PairIndices(pairs)); err != nil {
		return ledger.DailyReport{}, fmt.Errorf("failed to save pair indices for %s: %w", date, err)
	}
	return ledger.ReportFromPairs(date, pairs, s.cfg), nil
}

// RecomputeDay re-reconciles one date and persists its pair indices.
func (s *Service) RecomputeDay(ctx context.Context, date ledger.Date) (ledger.DailyReport, error) {
	var report ledger.DailyReport
	err := s.store.WithTx(ctx, func(tx ledger.EventStore) error {
		var err error
		report, err = s.recompute(ctx, tx, date)
		return err
	})
	return report, err
}

// RecomputeAll re-reconciles every stored date and returns how many were processed.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	dates, err := s.store.Dates(ctx)
	if err != nil {
		return 0, err
	}
	err = s.store.WithTx(ctx, func(tx ledger.EventStore) error {
		for _, d := range dates {
			if _, err := s.recompute(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Debug().Int("dates", len(dates)).Msg("pair indices recomputed")
	return len(dates), nil
}

// Rebuild is RecomputeAll on demand; unlike the periodic sweep it leaves an
// audit entry.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	n, err := s.RecomputeAll(ctx)
	if err != nil {
		return 0, err
	}
	s.record(ctx, ledger.AuditRecompute, "all", "recomputed pair indices of %d dates", n)
	return n, nil
}

// checkLunch refuses the command when enforcement is on and a pair holding
// one of the written events breaks the bounds. Otherwise violations are logged.
func (s *Service) checkLunch(report ledger.DailyReport, written ...ledger.EventID) error {
	if len(report.LunchViolations) == 0 {
		return nil
	}
	touched := make(map[int]bool)
	for _, p := range report.Pairs {
		for _, e := range []*ledger.PunchEvent{p.In, p.Out} {
			if e == nil {
				continue
			}
			for _, id := range written {
				if e.ID == id {
					touched[p.Index] = true
				}
			}
		}
	}
	for _, v := range report.LunchViolations {
		if !touched[v.Pair] {
			continue
		}
		if s.enforce {
			return v
		}
		s.log.Warn().
			Str("date", v.Date.String()).
			Int("pair", v.Pair).
			Int("lunch", v.Lunch).
			Int("min", v.Min).
			Int("max", v.Max).
			Msg("lunch outside configured bounds")
	}
	return nil
}

// =============================================================================
// AUDIT
// =============================================================================

// record appends an audit entry. The command already committed, so a
// failure is logged rather than returned.
func (s *Service) record(ctx context.Context, op ledger.AuditOperation, target, format string, args ...any) {
	entry := ledger.AuditEntry{
		ID:        uuid.NewString(),
		At:        s.now().UTC(),
		Operation: op,
		Target:    target,
		Message:   fmt.Sprintf(format, args...),
	}
	if err := s.audit.AppendAudit(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("operation", string(op)).Msg("failed to append audit entry")
		return
	}
	s.log.Info().Str("operation", string(op)).Str("target", target).Msg(entry.Message)
}

// Audit returns the newest audit entries first.
func (s *Service) Audit(ctx context.Context, limit int) ([]ledger.AuditEntry, error) {
	return s.audit.ListAudit(ctx, limit)
}

// RecordScenario notes that a demo dataset replaced the journal content.
func (s *Service) RecordScenario(ctx context.Context, id string, events int) {
	s.record(ctx, ledger.AuditScenario, id, "loaded scenario %s with %d events", id, events)
}
