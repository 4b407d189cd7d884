package workers

import (
	"context"
	"sync"
	"time"

	"github.com/biblioteca/loans-service/src/logger"
	"github.com/biblioteca/loans-service/src/models"
	"github.com/biblioteca/loans-service/src/repositories"
	"github.com/pkg/errors"
)

// SweepResult counts what one sweep did.
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Promoted int `json:"promoted"`
	Updated  int `json:"updated"`
}

// OverdueSweeper labels open loans that went past their due date as OVERDUE
// and keeps their daysLate current. It runs once a day at a fixed time.
type OverdueSweeper struct {
	store repositories.LoanStore
	log   logger.Logger
	at    time.Duration
	now   func() time.Time

	// one sweep at a time; a manual trigger waits for a scheduled one
	mu sync.Mutex
}

// NewOverdueSweeper returns a sweeper that runs every day at the given offset
// from local midnight.
func NewOverdueSweeper(store repositories.LoanStore, log logger.Logger, at time.Duration) *OverdueSweeper {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &OverdueSweeper{
		store: store,
		log:   log.WithComponent("overdue-sweeper"),
		at:    at,
		now:   time.Now,
	}
}

// WithClock replaces time.Now. Meant for tests.
func (w *OverdueSweeper) WithClock(now func() time.Time) *OverdueSweeper {
	w.now = now
	return w
}

// Start runs the daily schedule in a goroutine until ctx is cancelled. The
// returned channel is closed once the goroutine has exited.
func (w *OverdueSweeper) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			next := NextRun(w.now(), w.at)
			w.log.Debugw("next overdue sweep scheduled", "at", next.Format(time.RFC3339))

			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				w.log.Infow("overdue sweeper stopped")
				return
			case <-timer.C:
				w.RunOnce(ctx)
			}
		}
	}()
	return done
}

// RunOnce sweeps and logs the outcome. Errors are not returned; the next
// scheduled run tries again.
func (w *OverdueSweeper) RunOnce(ctx context.Context) {
	result, err := w.Sweep(ctx)
	if err != nil {
		w.log.Errorw("overdue sweep failed", "error", err)
		return
	}
	w.log.Infow("overdue sweep finished",
		"scanned", result.Scanned, "promoted", result.Promoted, "updated", result.Updated)
}

// Sweep loads every open loan, recomputes it for today and writes back the
// ones that changed in a single transaction.
func (w *OverdueSweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	today := models.DateOf(w.now())

	loans, err := w.store.FindByStatus(ctx, models.OpenLoanStatuses...)
	if err != nil {
		return nil, errors.Wrap(err, "loading open loans")
	}

	result := &SweepResult{Scanned: len(loans)}
	changed := make([]models.LoanModel, 0)
	for i := range loans {
		wasActive := loans[i].Status == models.LoanStatusActive
		if !loans[i].PromoteIfOverdue(today) {
			continue
		}
		if wasActive && loans[i].Status == models.LoanStatusOverdue {
			result.Promoted++
		}
		changed = append(changed, loans[i])
	}

	saved, err := w.store.SaveAll(ctx, changed)
	if err != nil {
		return nil, errors.Wrap(err, "saving swept loans")
	}
	result.Updated = saved
	return result, nil
}

// NextRun returns the first time strictly after now that falls at offset at
// from midnight in now's location.
func NextRun(now time.Time, at time.Duration) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Add(at)
	if !next.After(now) {
		next = time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()).Add(at)
	}
	return next
}
