package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docroute-api/internal/clock"
	"docroute-api/internal/config"
	"docroute-api/internal/metrics"
	"docroute-api/internal/models"
	"docroute-api/internal/notifier"
	"docroute-api/internal/reminder"
	"docroute-api/internal/repository"
)

// Prometheus collectors register globally, so the test file shares one
// Metrics instance across all scheduler tests.
var testMetrics = metrics.NewMetrics()

// fakeNotifier records dispatched messages and can be forced to fail.
type fakeNotifier struct {
	sent    []notifier.Message
	sendErr error
}

func (f *fakeNotifier) Send(ctx context.Context, msg notifier.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeNotifier) Close() error { return nil }

// fakeStore is an in-memory Store covering what the scheduler touches.
type fakeStore struct {
	users     map[uint]string
	ccs       map[uint][]string
	routings  map[uint]*models.DocumentRouting
	deadlines map[uint]*models.RoutingDeadline
	reminders map[uint]*models.RoutingReminder
	history   map[uint]*models.ReminderHistory
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[uint]string),
		ccs:       make(map[uint][]string),
		routings:  make(map[uint]*models.DocumentRouting),
		deadlines: make(map[uint]*models.RoutingDeadline),
		reminders: make(map[uint]*models.RoutingReminder),
		history:   make(map[uint]*models.ReminderHistory),
	}
}

func (f *fakeStore) ActiveReminders() ([]models.RoutingReminder, error) {
	var out []models.RoutingReminder
	for _, r := range f.reminders {
		if !r.Active {
			continue
		}
		rem := *r
		if d, ok := f.deadlines[r.DeadlineID]; ok {
			deadline := *d
			rem.Deadline = &deadline
		}
		if rt, ok := f.routings[r.RoutingID]; ok {
			routing := *rt
			rem.Routing = &routing
		}
		out = append(out, rem)
	}
	return out, nil
}

func (f *fakeStore) SaveReminder(r *models.RoutingReminder) error {
	stored := *r
	stored.Routing = nil
	stored.Deadline = nil
	f.reminders[r.ID] = &stored
	return nil
}

func (f *fakeStore) SaveHistory(h *models.ReminderHistory) error {
	stored := *h
	f.history[h.ID] = &stored
	return nil
}

func (f *fakeStore) PendingHistoryForTrigger(reminderID uint, triggerDate time.Time) (*models.ReminderHistory, error) {
	for _, h := range f.history {
		if h.ReminderID == reminderID && h.Status == models.StatusPending && clock.SameDate(h.TriggerDate, triggerDate) {
			row := *h
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UserEmail(userID uint) (string, error) { return f.users[userID], nil }

func (f *fakeStore) RecipientEmails(routingID uint) ([]string, error) { return f.ccs[routingID], nil }

func (f *fakeStore) CountActiveReminders() (int64, error) {
	var n int64
	for _, r := range f.reminders {
		if r.Active {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Transact(fn func(repository.Store) error) error { return fn(f) }

// Unused by the scheduler.
func (f *fakeStore) CreateRouting(r *models.DocumentRouting) error { return nil }
func (f *fakeStore) SaveRouting(r *models.DocumentRouting) error   { return nil }
func (f *fakeStore) RoutingByRoutingID(userID uint, routingID string) (*models.DocumentRouting, error) {
	return nil, nil
}
func (f *fakeStore) RoutingsForUser(userID uint) ([]models.DocumentRouting, error) { return nil, nil }
func (f *fakeStore) DeleteRouting(r *models.DocumentRouting) error                 { return nil }
func (f *fakeStore) CreateDeadline(d *models.RoutingDeadline) error                { return nil }
func (f *fakeStore) LatestDeadline(routingID uint) (*models.RoutingDeadline, error) {
	return nil, nil
}
func (f *fakeStore) ActiveRemindersForRouting(routingID uint) ([]models.RoutingReminder, error) {
	return nil, nil
}
func (f *fakeStore) DefaultReminder(routingID uint) (*models.RoutingReminder, error) {
	return nil, nil
}
func (f *fakeStore) ReminderByID(userID, reminderID uint) (*models.RoutingReminder, error) {
	return nil, nil
}
func (f *fakeStore) CreateReminder(r *models.RoutingReminder) error { return nil }
func (f *fakeStore) CreateHistory(h *models.ReminderHistory) error  { return nil }
func (f *fakeStore) PendingHistoryForReminder(reminderID uint) (*models.ReminderHistory, error) {
	return nil, nil
}
func (f *fakeStore) HistoryForRouting(routingID uint) ([]models.ReminderHistory, error) {
	return nil, nil
}
func (f *fakeStore) HistoryByID(userID, historyID uint) (*models.ReminderHistory, error) {
	return nil, nil
}
func (f *fakeStore) DeleteHistory(h *models.ReminderHistory) error                { return nil }
func (f *fakeStore) UpdatePendingRecipients(routingID uint, recipient string) error { return nil }
func (f *fakeStore) UpdatePendingRuleText(reminderID uint, ruleText string) error { return nil }
func (f *fakeStore) MarkPendingSkipped(reminderID uint) error                     { return nil }
func (f *fakeStore) ReplaceRecipients(routingID uint, emails []string) error      { return nil }
func (f *fakeStore) AppendAudit(routingID uint, action, details string, actor models.AuditActor) error {
	return nil
}
func (f *fakeStore) AuditForRouting(routingID uint) ([]models.RoutingAuditLog, error) {
	return nil, nil
}
func (f *fakeStore) Ping() error { return nil }

// seedReminder wires a user, routing, deadline, reminder rule and its
// PENDING history row into the fake store.
func seedReminder(fs *fakeStore, deadlineDate time.Time, value int, unit models.ReminderUnit, dir models.ReminderDirection) *models.RoutingReminder {
	fs.users[1] = "owner@example.com"

	fs.routings[1] = &models.DocumentRouting{
		ID:           1,
		RoutingID:    "ROUTE-AB12CD34",
		UserID:       1,
		DocumentName: "lease.pdf",
	}
	fs.deadlines[1] = &models.RoutingDeadline{
		ID:           1,
		RoutingID:    1,
		DeadlineDate: deadlineDate,
	}

	d := dir
	v := value
	rule := &models.RoutingReminder{
		ID:           1,
		RoutingID:    1,
		DeadlineID:   1,
		TriggerValue: &v,
		TriggerUnit:  unit,
		Direction:    &d,
		Channel:      models.ChannelEmail,
		Active:       true,
	}
	fs.reminders[1] = rule

	trigger := reminder.TriggerDate(deadlineDate, &v, unit, &d)
	fs.history[1] = &models.ReminderHistory{
		ID:          1,
		ReminderID:  1,
		RoutingID:   1,
		RuleText:    reminder.RuleText(&v, unit, &d),
		SubmittedOn: deadlineDate,
		TriggerDate: trigger,
		Status:      models.StatusPending,
		Recipient:   "owner@example.com",
		Channel:     models.ChannelEmail,
	}
	return rule
}

func newTestScheduler(fs *fakeStore, n notifier.Notifier, today time.Time) *Scheduler {
	cfg := &config.SchedulerConfig{IntervalMinutes: 60, DispatchTimeout: time.Second}
	return NewScheduler(cfg, fs, n, clock.Fixed{T: today}, testMetrics)
}

func TestReminderDispatchedOnTriggerDate(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 3, models.UnitDay, models.DirectionBefore)

	fn := &fakeNotifier{}
	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 7))

	assert.NoError(t, sched.RunOnce())

	assert.Len(t, fn.sent, 1)
	assert.Equal(t, []string{"owner@example.com"}, fn.sent[0].To)
	assert.Contains(t, fn.sent[0].Subject, "Deadline in 3 Days")
	assert.Contains(t, fn.sent[0].Subject, "ROUTE-AB12CD34")

	h := fs.history[1]
	assert.Equal(t, models.StatusSent, h.Status)
	assert.NotNil(t, h.SentOn)
	assert.True(t, clock.SameDate(*h.SentOn, clock.Date(2025, 3, 7)))
	assert.Equal(t, 3, h.DaysRemaining)

	assert.False(t, fs.reminders[1].Active)
}

func TestReminderDueTodayUsesCriticalFraming(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 0, models.UnitDay, models.DirectionBefore)

	fn := &fakeNotifier{}
	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 10))

	assert.NoError(t, sched.RunOnce())

	assert.Len(t, fn.sent, 1)
	assert.Contains(t, fn.sent[0].Subject, "CRITICAL: Deadline TODAY")
	assert.Equal(t, 0, fs.history[1].DaysRemaining)
}

func TestReminderNotDueIsLeftAlone(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 3, models.UnitDay, models.DirectionBefore)

	fn := &fakeNotifier{}
	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 6))

	assert.NoError(t, sched.RunOnce())

	assert.Empty(t, fn.sent)
	assert.Equal(t, models.StatusPending, fs.history[1].Status)
	assert.True(t, fs.reminders[1].Active)
}

func TestReminderSentExactlyOnceAcrossTicks(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 3, models.UnitDay, models.DirectionBefore)

	fn := &fakeNotifier{}
	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 7))

	assert.NoError(t, sched.RunOnce())
	assert.NoError(t, sched.RunOnce())

	assert.Len(t, fn.sent, 1)
}

func TestFailedDispatchKeepsRuleActive(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 3, models.UnitDay, models.DirectionBefore)

	fn := &fakeNotifier{sendErr: errors.New("smtp connection refused")}
	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 7))

	assert.NoError(t, sched.RunOnce())

	h := fs.history[1]
	assert.Equal(t, models.StatusFailed, h.Status)
	assert.NotNil(t, h.SentOn)
	assert.True(t, fs.reminders[1].Active)

	// FAILED is terminal: the next tick finds no pending row and does
	// not retry.
	fn.sendErr = nil
	assert.NoError(t, sched.RunOnce())
	assert.Empty(t, fn.sent)
}

func TestDueRuleWithoutPendingHistorySkips(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 3, models.UnitDay, models.DirectionBefore)
	fs.history[1].Status = models.StatusSkipped

	fn := &fakeNotifier{}
	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 7))

	assert.NoError(t, sched.RunOnce())

	assert.Empty(t, fn.sent)
	assert.True(t, fs.reminders[1].Active)
}

func TestStaleTriggerDateDoesNotFire(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 3, models.UnitDay, models.DirectionBefore)

	// The rule was edited to 1 day before after its history row was
	// seeded with the old trigger date. The re-derived trigger is the
	// 9th; on the 7th nothing is due, and on the 9th the stale pending
	// row no longer matches.
	one := 1
	fs.reminders[1].TriggerValue = &one

	fn := &fakeNotifier{}

	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 7))
	assert.NoError(t, sched.RunOnce())
	assert.Empty(t, fn.sent)

	sched = newTestScheduler(fs, fn, clock.Date(2025, 3, 9))
	assert.NoError(t, sched.RunOnce())
	assert.Empty(t, fn.sent)
	assert.Equal(t, models.StatusPending, fs.history[1].Status)
}

func TestRecipientsDeduplicatedAndSorted(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 0, models.UnitDay, models.DirectionBefore)
	fs.ccs[1] = []string{"zoe@example.com", "owner@example.com", "amy@example.com"}

	fn := &fakeNotifier{}
	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 10))

	assert.NoError(t, sched.RunOnce())

	assert.Len(t, fn.sent, 1)
	assert.Equal(t, []string{"amy@example.com", "owner@example.com", "zoe@example.com"}, fn.sent[0].To)
}

func TestOrphanedReminderSkipped(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 0, models.UnitDay, models.DirectionBefore)
	delete(fs.deadlines, 1)

	fn := &fakeNotifier{}
	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 10))

	assert.NoError(t, sched.RunOnce())
	assert.Empty(t, fn.sent)
}

func TestConcurrentManualRunsDispatchOnce(t *testing.T) {
	fs := newFakeStore()
	seedReminder(fs, clock.Date(2025, 3, 10), 0, models.UnitDay, models.DirectionBefore)

	fn := &fakeNotifier{}
	sched := newTestScheduler(fs, fn, clock.Date(2025, 3, 10))

	// RunOnce is reachable from HTTP handlers while cron ticks fire;
	// overlapping passes must not double-dispatch the same pending row.
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sched.RunOnce())
		}()
	}
	wg.Wait()

	assert.Len(t, fn.sent, 1)
	assert.Equal(t, models.StatusSent, fs.history[1].Status)
	assert.False(t, fs.reminders[1].Active)
}

func TestSchedulerRestart(t *testing.T) {
	fs := newFakeStore()
	sched := newTestScheduler(fs, &fakeNotifier{}, clock.Date(2025, 3, 7))

	if err := sched.Start(); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if !sched.IsRunning() {
		t.Fatalf("scheduler should be running after Start")
	}
	if err := sched.Start(); err == nil {
		t.Fatalf("second Start while running should fail")
	}
	if err := sched.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if sched.IsRunning() {
		t.Fatalf("scheduler should not be running after Stop")
	}
}
