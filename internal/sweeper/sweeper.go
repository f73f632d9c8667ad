// Package sweeper owns the periodic overdue sweep: an explicit background
// task with its own error boundary, isolated from request handling.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookhive/library-backend/internal/email"
	"github.com/bookhive/library-backend/internal/metrics"
	"github.com/bookhive/library-backend/internal/repository"
	"github.com/robfig/cron/v3"
)

type Sweeper struct {
	loans    repository.LoanRepository
	notifier email.Sender
	logger   *slog.Logger
	schedule cron.Schedule
	now      func() time.Time
}

// New parses a standard 5-field cron expression describing when the sweep
// runs.
func New(loans repository.LoanRepository, notifier email.Sender, logger *slog.Logger, cronExpr string) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", cronExpr, err)
	}
	return &Sweeper{
		loans:    loans,
		notifier: notifier,
		logger:   logger.With("component", "sweeper"),
		schedule: schedule,
		now:      time.Now,
	}, nil
}

// Start blocks until ctx is cancelled, running one sweep per scheduled
// tick. A failed sweep is logged and retried implicitly on the next tick.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started")

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper shut down")
			return
		case <-timer.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep cycle", "error", err)
			}
		}
	}
}

// Sweep flips every active loan past its due date to overdue and notifies
// the borrowers. It returns the number of flipped loans. Repeated runs only
// affect loans that newly crossed the threshold; book availability and
// borrowed-book lists are untouched, the books are still outstanding.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := s.now()

	notices, err := s.loans.MarkOverdue(ctx, start)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}

	metrics.SweepCycleDuration.Observe(time.Since(start).Seconds())
	metrics.LoansOverdueTotal.Add(float64(len(notices)))

	if len(notices) == 0 {
		return 0, nil
	}
	s.logger.Info("marked loans overdue", "count", len(notices))

	for _, n := range notices {
		subject := "Your borrowed book is overdue"
		body := fmt.Sprintf(
			`<p>Hi %s,</p><p>Your loan of <strong>%s</strong> was due on %s. Please return it to the library.</p>`,
			n.UserName, n.BookTitle, n.DueAt.Format("January 2, 2006"),
		)
		if err := s.notifier.Send(ctx, n.UserEmail, subject, body); err != nil {
			// Notification is best effort; the loan is already overdue.
			s.logger.Error("send overdue notice", "loan_id", n.LoanID, "error", err)
		}
	}

	return len(notices), nil
}
