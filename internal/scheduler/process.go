package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"docroute-api/internal/clock"
	"docroute-api/internal/models"
	"docroute-api/internal/reminder"
	"docroute-api/internal/repository"
)

// processReminders is the scheduler tick. Passes are serialized, so a
// manual run never overlaps a cron tick. Each due reminder is handled
// and committed independently: a failure on one row never defers the
// others, and an aborted tick is safe to re-run because the due check
// is idempotent.
func (s *Scheduler) processReminders() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()

	logrus.Info("Starting reminder processing cycle")

	startTime := time.Now()
	s.metrics.TickCount.Inc()

	today := s.clock.Today()

	reminders, err := s.store.ActiveReminders()
	if err != nil {
		logrus.Errorf("Failed to load active reminders: %v", err)
		return
	}

	logrus.Infof("Evaluating %d active reminder(s)", len(reminders))

	for i := range reminders {
		if err := s.processReminder(&reminders[i], today); err != nil {
			logrus.Errorf("Failed to process reminder %d: %v", reminders[i].ID, err)
		}
	}

	if count, err := s.store.CountActiveReminders(); err == nil {
		s.metrics.ActiveReminders.Set(float64(count))
	}

	duration := time.Since(startTime)
	s.metrics.TickDuration.Observe(duration.Seconds())
	logrus.Infof("Reminder processing cycle completed in %v", duration)
}

// processReminder evaluates one rule and, when due, dispatches and
// transitions its pending history row. The SENT transition also retires
// the rule; that plus the one-pending-row invariant is what prevents a
// duplicate send on the next tick.
func (s *Scheduler) processReminder(rem *models.RoutingReminder, today time.Time) error {
	select {
	case <-s.ctx.Done():
		return fmt.Errorf("context cancelled")
	default:
	}

	// Orphaned rules (deadline or routing removed) are skipped, not failed.
	if rem.Deadline == nil || rem.Routing == nil {
		logrus.Debugf("Reminder %d has no deadline or routing, skipping", rem.ID)
		return nil
	}

	triggerDate := reminder.TriggerDate(rem.Deadline.DeadlineDate, rem.TriggerValue, rem.TriggerUnit, rem.Direction)
	if !clock.SameDate(triggerDate, today) {
		return nil
	}

	return s.store.Transact(func(tx repository.Store) error {
		// A rule whose seeded history predates a later edit owes nothing.
		history, err := tx.PendingHistoryForTrigger(rem.ID, triggerDate)
		if err != nil {
			return err
		}
		if history == nil {
			logrus.Debugf("Reminder %d due today but no pending history, skipping", rem.ID)
			return nil
		}

		recipients, err := s.resolveRecipients(tx, rem.Routing)
		if err != nil {
			return err
		}
		if len(recipients) == 0 {
			logrus.Warnf("Reminder %d has no recipients, skipping", rem.ID)
			return nil
		}

		daysToDeadline := clock.DaysBetween(today, rem.Deadline.DeadlineDate)
		msg := composeReminderMessage(rem.Routing, rem.Deadline, recipients, daysToDeadline)

		ctx, cancel := context.WithTimeout(s.ctx, s.config.DispatchTimeout)
		defer cancel()

		sentOn := today
		if sendErr := s.notifier.Send(ctx, msg); sendErr != nil {
			logrus.Errorf("Reminder %d dispatch failed: %v", rem.ID, sendErr)

			// The rule stays active so an operator can see and recreate
			// it; there is no automatic retry for a FAILED row.
			history.Status = models.StatusFailed
			history.SentOn = &sentOn
			s.metrics.RemindersFailed.Inc()
			return tx.SaveHistory(history)
		}

		history.Status = models.StatusSent
		history.SentOn = &sentOn
		history.DaysRemaining = maxInt(daysToDeadline, 0)
		if err := tx.SaveHistory(history); err != nil {
			return err
		}

		rem.Active = false
		if err := tx.SaveReminder(rem); err != nil {
			return err
		}

		s.metrics.RemindersSent.Inc()
		logrus.Infof("Reminder %d for routing %s dispatched to %s", rem.ID, rem.Routing.RoutingID, strings.Join(recipients, ", "))
		return nil
	})
}

// resolveRecipients collects the routing owner's address plus any CC
// rows, deduplicated and sorted for deterministic output.
func (s *Scheduler) resolveRecipients(tx repository.Store, routing *models.DocumentRouting) ([]string, error) {
	var recipients []string

	owner, err := tx.UserEmail(routing.UserID)
	if err != nil {
		return nil, err
	}
	if owner != "" {
		recipients = append(recipients, owner)
	}

	ccs, err := tx.RecipientEmails(routing.ID)
	if err != nil {
		return nil, err
	}
	recipients = append(recipients, ccs...)

	seen := make(map[string]struct{}, len(recipients))
	unique := recipients[:0]
	for _, r := range recipients {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		unique = append(unique, r)
	}
	sort.Strings(unique)

	return unique, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
