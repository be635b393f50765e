// Package repository is the persistence boundary. All gorm access runs
// through the Store interface so the scheduler and handlers can be
// exercised against in-memory fakes.
package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"docroute-api/internal/models"
)

const dateLayout = "2006-01-02"

// Store is the persistence contract for routings, deadlines, reminder
// rules, history rows, recipients, identity lookups and the audit
// ledger.
type Store interface {
	CreateRouting(r *models.DocumentRouting) error
	SaveRouting(r *models.DocumentRouting) error
	RoutingByRoutingID(userID uint, routingID string) (*models.DocumentRouting, error)
	RoutingsForUser(userID uint) ([]models.DocumentRouting, error)
	DeleteRouting(r *models.DocumentRouting) error

	CreateDeadline(d *models.RoutingDeadline) error
	LatestDeadline(routingID uint) (*models.RoutingDeadline, error)

	ActiveReminders() ([]models.RoutingReminder, error)
	ActiveRemindersForRouting(routingID uint) ([]models.RoutingReminder, error)
	DefaultReminder(routingID uint) (*models.RoutingReminder, error)
	ReminderByID(userID, reminderID uint) (*models.RoutingReminder, error)
	CreateReminder(r *models.RoutingReminder) error
	SaveReminder(r *models.RoutingReminder) error

	CreateHistory(h *models.ReminderHistory) error
	SaveHistory(h *models.ReminderHistory) error
	PendingHistoryForReminder(reminderID uint) (*models.ReminderHistory, error)
	PendingHistoryForTrigger(reminderID uint, triggerDate time.Time) (*models.ReminderHistory, error)
	HistoryForRouting(routingID uint) ([]models.ReminderHistory, error)
	HistoryByID(userID, historyID uint) (*models.ReminderHistory, error)
	DeleteHistory(h *models.ReminderHistory) error
	UpdatePendingRecipients(routingID uint, recipient string) error
	UpdatePendingRuleText(reminderID uint, ruleText string) error
	MarkPendingSkipped(reminderID uint) error

	UserEmail(userID uint) (string, error)
	RecipientEmails(routingID uint) ([]string, error)
	ReplaceRecipients(routingID uint, emails []string) error

	AppendAudit(routingID uint, action, details string, actor models.AuditActor) error
	AuditForRouting(routingID uint) ([]models.RoutingAuditLog, error)

	Ping() error
	CountActiveReminders() (int64, error)

	// Transact runs fn against a transactional view of the store. The
	// scheduler commits each reminder independently through this, so one
	// faulty row cannot defer unrelated due reminders.
	Transact(fn func(Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// New creates a gorm-backed Store.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) CreateRouting(r *models.DocumentRouting) error {
	if err := s.db.Create(r).Error; err != nil {
		return fmt.Errorf("failed to create routing: %w", err)
	}
	return nil
}

func (s *gormStore) SaveRouting(r *models.DocumentRouting) error {
	if err := s.db.Save(r).Error; err != nil {
		return fmt.Errorf("failed to save routing: %w", err)
	}
	return nil
}

func (s *gormStore) RoutingByRoutingID(userID uint, routingID string) (*models.DocumentRouting, error) {
	var routing models.DocumentRouting
	result := s.db.Where("routing_id = ? AND user_id = ?", routingID, userID).First(&routing)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &routing, nil
}

func (s *gormStore) RoutingsForUser(userID uint) ([]models.DocumentRouting, error) {
	var routings []models.DocumentRouting
	result := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&routings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get routings: %w", result.Error)
	}
	return routings, nil
}

func (s *gormStore) DeleteRouting(r *models.DocumentRouting) error {
	if err := s.db.Select("Deadlines", "EmailRecipients", "Audits", "Reminders").Delete(r).Error; err != nil {
		return fmt.Errorf("failed to delete routing: %w", err)
	}
	return nil
}

func (s *gormStore) CreateDeadline(d *models.RoutingDeadline) error {
	if err := s.db.Create(d).Error; err != nil {
		return fmt.Errorf("failed to create deadline: %w", err)
	}
	return nil
}

func (s *gormStore) LatestDeadline(routingID uint) (*models.RoutingDeadline, error) {
	var deadline models.RoutingDeadline
	result := s.db.Where("routing_id = ?", routingID).Order("created_at DESC").First(&deadline)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &deadline, nil
}

func (s *gormStore) ActiveReminders() ([]models.RoutingReminder, error) {
	var reminders []models.RoutingReminder
	result := s.db.Preload("Deadline").Preload("Routing").
		Where("active = ?", true).Find(&reminders)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get active reminders: %w", result.Error)
	}
	return reminders, nil
}

func (s *gormStore) ActiveRemindersForRouting(routingID uint) ([]models.RoutingReminder, error) {
	var reminders []models.RoutingReminder
	result := s.db.Where("routing_id = ? AND active = ?", routingID, true).
		Order("created_at DESC").Find(&reminders)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get reminders: %w", result.Error)
	}
	return reminders, nil
}

// DefaultReminder returns the routing's active zero-day-before rule, if
// any. There is at most one; callers reuse it rather than duplicating.
func (s *gormStore) DefaultReminder(routingID uint) (*models.RoutingReminder, error) {
	var reminder models.RoutingReminder
	result := s.db.Where(
		"routing_id = ? AND trigger_value = ? AND trigger_unit = ? AND direction = ? AND active = ?",
		routingID, 0, models.UnitDay, models.DirectionBefore, true,
	).First(&reminder)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &reminder, nil
}

func (s *gormStore) ReminderByID(userID, reminderID uint) (*models.RoutingReminder, error) {
	var reminder models.RoutingReminder
	result := s.db.Joins("JOIN document_routings ON document_routings.id = routing_reminders.routing_id").
		Where("routing_reminders.id = ? AND document_routings.user_id = ?", reminderID, userID).
		Preload("Routing").
		First(&reminder)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &reminder, nil
}

func (s *gormStore) CreateReminder(r *models.RoutingReminder) error {
	if err := s.db.Create(r).Error; err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (s *gormStore) SaveReminder(r *models.RoutingReminder) error {
	if err := s.db.Save(r).Error; err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}
	return nil
}

func (s *gormStore) CreateHistory(h *models.ReminderHistory) error {
	if err := s.db.Create(h).Error; err != nil {
		return fmt.Errorf("failed to create reminder history: %w", err)
	}
	return nil
}

func (s *gormStore) SaveHistory(h *models.ReminderHistory) error {
	if err := s.db.Save(h).Error; err != nil {
		return fmt.Errorf("failed to save reminder history: %w", err)
	}
	return nil
}

func (s *gormStore) PendingHistoryForReminder(reminderID uint) (*models.ReminderHistory, error) {
	var history models.ReminderHistory
	result := s.db.Where("reminder_id = ? AND status = ?", reminderID, models.StatusPending).
		First(&history)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &history, nil
}

func (s *gormStore) PendingHistoryForTrigger(reminderID uint, triggerDate time.Time) (*models.ReminderHistory, error) {
	var history models.ReminderHistory
	result := s.db.Where(
		"reminder_id = ? AND status = ? AND DATE(trigger_date) = ?",
		reminderID, models.StatusPending, triggerDate.Format(dateLayout),
	).First(&history)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &history, nil
}

func (s *gormStore) HistoryForRouting(routingID uint) ([]models.ReminderHistory, error) {
	var history []models.ReminderHistory
	result := s.db.Where("routing_id = ?", routingID).
		Order("trigger_date DESC").Find(&history)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get reminder history: %w", result.Error)
	}
	return history, nil
}

func (s *gormStore) HistoryByID(userID, historyID uint) (*models.ReminderHistory, error) {
	var history models.ReminderHistory
	result := s.db.Joins("JOIN document_routings ON document_routings.id = routing_reminder_history.routing_id").
		Where("routing_reminder_history.id = ? AND document_routings.user_id = ?", historyID, userID).
		First(&history)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &history, nil
}

func (s *gormStore) DeleteHistory(h *models.ReminderHistory) error {
	if err := s.db.Delete(h).Error; err != nil {
		return fmt.Errorf("failed to delete reminder history: %w", err)
	}
	return nil
}

func (s *gormStore) UpdatePendingRecipients(routingID uint, recipient string) error {
	err := s.db.Model(&models.ReminderHistory{}).
		Where("routing_id = ? AND status = ?", routingID, models.StatusPending).
		Update("recipient", recipient).Error
	if err != nil {
		return fmt.Errorf("failed to update pending recipients: %w", err)
	}
	return nil
}

func (s *gormStore) UpdatePendingRuleText(reminderID uint, ruleText string) error {
	err := s.db.Model(&models.ReminderHistory{}).
		Where("reminder_id = ? AND status = ?", reminderID, models.StatusPending).
		Update("rule_text", ruleText).Error
	if err != nil {
		return fmt.Errorf("failed to update pending rule text: %w", err)
	}
	return nil
}

func (s *gormStore) MarkPendingSkipped(reminderID uint) error {
	err := s.db.Model(&models.ReminderHistory{}).
		Where("reminder_id = ? AND status = ?", reminderID, models.StatusPending).
		Update("status", models.StatusSkipped).Error
	if err != nil {
		return fmt.Errorf("failed to mark pending history skipped: %w", err)
	}
	return nil
}

func (s *gormStore) UserEmail(userID uint) (string, error) {
	var user models.User
	result := s.db.First(&user, userID)
	if result.Error == gorm.ErrRecordNotFound {
		return "", nil
	}
	if result.Error != nil {
		return "", fmt.Errorf("database error: %w", result.Error)
	}
	return user.Email, nil
}

func (s *gormStore) RecipientEmails(routingID uint) ([]string, error) {
	var recipients []models.RoutingEmailRecipient
	result := s.db.Where("routing_id = ?", routingID).Find(&recipients)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get recipients: %w", result.Error)
	}
	emails := make([]string, 0, len(recipients))
	for _, r := range recipients {
		emails = append(emails, r.Email)
	}
	return emails, nil
}

func (s *gormStore) ReplaceRecipients(routingID uint, emails []string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("routing_id = ?", routingID).Delete(&models.RoutingEmailRecipient{}).Error; err != nil {
			return err
		}
		for _, email := range emails {
			rec := models.RoutingEmailRecipient{RoutingID: routingID, Email: email}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace recipients: %w", err)
	}
	return nil
}

func (s *gormStore) AppendAudit(routingID uint, action, details string, actor models.AuditActor) error {
	entry := models.RoutingAuditLog{
		RoutingID:   routingID,
		Action:      action,
		Details:     details,
		PerformedBy: actor,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *gormStore) AuditForRouting(routingID uint) ([]models.RoutingAuditLog, error) {
	var entries []models.RoutingAuditLog
	result := s.db.Where("routing_id = ?", routingID).Order("created_at DESC").Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get audit log: %w", result.Error)
	}
	return entries, nil
}

func (s *gormStore) Ping() error {
	return s.db.Raw("SELECT 1").Error
}

func (s *gormStore) CountActiveReminders() (int64, error) {
	var count int64
	err := s.db.Model(&models.RoutingReminder{}).Where("active = ?", true).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active reminders: %w", err)
	}
	return count, nil
}

func (s *gormStore) Transact(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
