package models

import (
	"time"

	"gorm.io/gorm"
)

// RoutingSource identifies who produced a routing or deadline.
type RoutingSource string

const (
	SourceAI    RoutingSource = "AI"
	SourceHuman RoutingSource = "HUMAN"
)

// DeadlineLabel classifies what kind of obligation a deadline represents.
type DeadlineLabel string

const (
	LabelSubmission DeadlineLabel = "SUBMISSION"
	LabelDue        DeadlineLabel = "DUE"
	LabelExpiry     DeadlineLabel = "EXPIRY"
	LabelHearing    DeadlineLabel = "HEARING"
	LabelRenewal    DeadlineLabel = "RENEWAL"
	LabelFiling     DeadlineLabel = "FILING"
	LabelValidTill  DeadlineLabel = "VALID_TILL"
	LabelOther      DeadlineLabel = "OTHER"
)

// PriorityLevel is the urgency bucket derived from days remaining.
type PriorityLevel string

const (
	PriorityLow      PriorityLevel = "LOW"
	PriorityMedium   PriorityLevel = "MEDIUM"
	PriorityHigh     PriorityLevel = "HIGH"
	PriorityCritical PriorityLevel = "CRITICAL"
)

// DecisionFlag is the routing engine's verdict on a document's deadline state.
type DecisionFlag string

const (
	FlagDeadlineFound    DecisionFlag = "DEADLINE_FOUND"
	FlagDateAmbiguous    DecisionFlag = "DATE_AMBIGUOUS"
	FlagDateMissing      DecisionFlag = "DATE_MISSING"
	FlagDeadlineNear     DecisionFlag = "DEADLINE_NEAR"
	FlagDeadlineCritical DecisionFlag = "DEADLINE_CRITICAL"
	FlagMissedDeadline   DecisionFlag = "MISSED_DEADLINE"
)

// DocumentCategory is the keyword-classifier output.
type DocumentCategory string

const (
	CategorySubmission DocumentCategory = "SUBMISSION"
	CategoryLegal      DocumentCategory = "LEGAL"
	CategoryAgreement  DocumentCategory = "AGREEMENT"
	CategoryContract   DocumentCategory = "CONTRACT"
	CategoryInvoice    DocumentCategory = "INVOICE"
	CategoryPolicy     DocumentCategory = "POLICY"
	CategoryNotice     DocumentCategory = "NOTICE"
	CategoryOther      DocumentCategory = "OTHER"
)

// AuditActor identifies who performed an audited action.
type AuditActor string

const (
	ActorAI     AuditActor = "AI"
	ActorHuman  AuditActor = "HUMAN"
	ActorSystem AuditActor = "SYSTEM"
)

// ReminderUnit is the offset unit of a reminder rule.
type ReminderUnit string

const (
	UnitDay   ReminderUnit = "DAY"
	UnitWeek  ReminderUnit = "WEEK"
	UnitMonth ReminderUnit = "MONTH"
	UnitExact ReminderUnit = "EXACT"
)

// ReminderDirection says whether the offset runs before or after the deadline.
type ReminderDirection string

const (
	DirectionBefore ReminderDirection = "BEFORE"
	DirectionAfter  ReminderDirection = "AFTER"
)

// ReminderChannel is the delivery channel for a reminder.
type ReminderChannel string

const (
	ChannelEmail ReminderChannel = "EMAIL"
)

// ReminderStatus is the lifecycle state of a history row.
// PENDING transitions to exactly one of SENT, FAILED or SKIPPED; all three
// are terminal.
type ReminderStatus string

const (
	StatusPending ReminderStatus = "PENDING"
	StatusSent    ReminderStatus = "SENT"
	StatusFailed  ReminderStatus = "FAILED"
	StatusSkipped ReminderStatus = "SKIPPED"
)

// User is the minimal identity record the engine needs to resolve a
// notification address. Account management lives outside this service.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// DocumentRouting is one document moving through AI/human deadline triage.
type DocumentRouting struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	RoutingID string `json:"routing_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	UserID    uint   `json:"user_id" gorm:"not null;index"`

	DocumentID   *uint  `json:"document_id"`
	DocumentName string `json:"document_name" gorm:"type:varchar(255);not null"`
	FileType     string `json:"file_type" gorm:"type:varchar(100);not null"`

	// SourceFilePath points at the stored copy of an AI-submitted file.
	// Empty for routings created against an existing document reference.
	SourceFilePath string `json:"source_file_path,omitempty" gorm:"type:varchar(500)"`

	SourceType    RoutingSource `json:"source_type" gorm:"type:varchar(16);not null"`
	AIFlag        DecisionFlag  `json:"ai_flag" gorm:"type:varchar(32);not null"`
	Confidence    *float64      `json:"confidence"`
	RequiresHuman bool          `json:"requires_human" gorm:"not null;default:true"`
	Notes         string        `json:"notes,omitempty" gorm:"type:text"`

	DocumentCategory *DocumentCategory `json:"document_category,omitempty" gorm:"type:varchar(32)"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Deadlines       []RoutingDeadline       `json:"deadlines,omitempty" gorm:"foreignKey:RoutingID;constraint:OnDelete:CASCADE"`
	EmailRecipients []RoutingEmailRecipient `json:"email_recipients,omitempty" gorm:"foreignKey:RoutingID;constraint:OnDelete:CASCADE"`
	Audits          []RoutingAuditLog       `json:"audits,omitempty" gorm:"foreignKey:RoutingID;constraint:OnDelete:CASCADE"`
	Reminders       []RoutingReminder       `json:"reminders,omitempty" gorm:"foreignKey:RoutingID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for DocumentRouting
func (DocumentRouting) TableName() string {
	return "document_routings"
}

// RoutingDeadline is one detected or human-entered deadline. Priority and
// AIFlag are derived from the deadline date relative to "today" when the row
// is written; they are cached values, not recomputed on read.
type RoutingDeadline struct {
	ID        uint `json:"id" gorm:"primaryKey;autoIncrement"`
	RoutingID uint `json:"routing_id" gorm:"not null;index"`

	Source       RoutingSource `json:"source" gorm:"type:varchar(16);not null"`
	Label        DeadlineLabel `json:"label" gorm:"type:varchar(32);not null"`
	DeadlineDate time.Time     `json:"deadline_date" gorm:"type:date;not null"`
	Confidence   *float64      `json:"confidence"`
	Priority     PriorityLevel `json:"priority" gorm:"type:varchar(16);not null;default:MEDIUM"`
	AIFlag       DecisionFlag  `json:"ai_flag" gorm:"type:varchar(32);not null"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for RoutingDeadline
func (RoutingDeadline) TableName() string {
	return "routing_deadlines"
}

// RoutingEmailRecipient is a CC address attached to a routing.
type RoutingEmailRecipient struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	RoutingID uint   `json:"routing_id" gorm:"not null;index"`
	Email     string `json:"email" gorm:"type:varchar(255);not null"`
}

// TableName specifies the table name for RoutingEmailRecipient
func (RoutingEmailRecipient) TableName() string {
	return "routing_email_recipients"
}

// RoutingAuditLog is an append-only audit fact. Never mutated, never read
// back into business logic.
type RoutingAuditLog struct {
	ID        uint `json:"id" gorm:"primaryKey;autoIncrement"`
	RoutingID uint `json:"routing_id" gorm:"not null;index"`

	Action      string     `json:"action" gorm:"type:varchar(150);not null"`
	Details     string     `json:"details,omitempty" gorm:"type:text"`
	PerformedBy AuditActor `json:"performed_by" gorm:"type:varchar(16);not null"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for RoutingAuditLog
func (RoutingAuditLog) TableName() string {
	return "routing_audit_logs"
}

// RoutingReminder is a reminder rule. A rule fires at most once: the
// scheduler flips Active to false when its history row goes SENT.
type RoutingReminder struct {
	ID         uint `json:"id" gorm:"primaryKey;autoIncrement"`
	RoutingID  uint `json:"routing_id" gorm:"not null;index"`
	DeadlineID uint `json:"deadline_id" gorm:"not null;index"`

	TriggerValue *int               `json:"trigger_value"`
	TriggerUnit  ReminderUnit       `json:"trigger_unit" gorm:"type:varchar(16);not null"`
	Direction    *ReminderDirection `json:"direction" gorm:"type:varchar(16)"`
	Channel      ReminderChannel    `json:"channel" gorm:"type:varchar(16);not null;default:EMAIL"`
	Active       bool               `json:"active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`

	Routing  *DocumentRouting `json:"routing,omitempty" gorm:"foreignKey:RoutingID"`
	Deadline *RoutingDeadline `json:"deadline,omitempty" gorm:"foreignKey:DeadlineID"`
}

// TableName specifies the table name for RoutingReminder
func (RoutingReminder) TableName() string {
	return "routing_reminders"
}

// ReminderHistory is one obligation-to-fire record per reminder rule. At
// most one PENDING row exists per active rule; edits update the PENDING row
// in place rather than creating a duplicate.
type ReminderHistory struct {
	ID         uint `json:"id" gorm:"primaryKey;autoIncrement"`
	ReminderID uint `json:"reminder_id" gorm:"not null;index"`
	RoutingID  uint `json:"routing_id" gorm:"not null;index"`

	RuleText string `json:"rule_text" gorm:"type:varchar(200)"`

	// SubmittedOn is the deadline date in effect when the rule was created
	// or last updated.
	SubmittedOn time.Time  `json:"submitted_on" gorm:"type:date;not null"`
	TriggerDate time.Time  `json:"trigger_date" gorm:"type:date;not null"`
	SentOn      *time.Time `json:"sent_on" gorm:"type:date"`

	// DaysRemaining is stored at write time; API reads recompute it live
	// from TriggerDate and the current date, floored at zero.
	DaysRemaining int `json:"days_remaining"`

	Status    ReminderStatus  `json:"status" gorm:"type:varchar(16);not null"`
	Recipient string          `json:"recipient" gorm:"type:varchar(500)"`
	Channel   ReminderChannel `json:"channel" gorm:"type:varchar(16);not null"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for ReminderHistory
func (ReminderHistory) TableName() string {
	return "routing_reminder_history"
}

// AnalyzeRequest asks the engine to run AI analysis on a routing.
type AnalyzeRequest struct {
	RoutingID string `json:"routing_id" binding:"required"`
}

// DetectedDeadline is one extractor candidate in an analysis response.
type DetectedDeadline struct {
	DeadlineDate string        `json:"deadline_date"`
	Label        DeadlineLabel `json:"label"`
	Confidence   float64       `json:"confidence"`
}

// AnalyzeResponse is the outcome of an AI analysis run.
type AnalyzeResponse struct {
	RoutingID         string             `json:"routing_id"`
	AIFlag            DecisionFlag       `json:"ai_flag"`
	Confidence        *float64           `json:"confidence"`
	RequiresHuman     bool               `json:"requires_human"`
	DocumentCategory  *DocumentCategory  `json:"document_category,omitempty"`
	DetectedDeadlines []DetectedDeadline `json:"detected_deadlines"`
	CreatedAt         time.Time          `json:"created_at"`
}

// RoutingResponse is the serialized form of a routing.
type RoutingResponse struct {
	ID               uint              `json:"id"`
	RoutingID        string            `json:"routing_id"`
	DocumentID       *uint             `json:"document_id"`
	DocumentName     string            `json:"document_name"`
	FileType         string            `json:"file_type"`
	DeadlineDate     *string           `json:"deadline_date,omitempty"`
	DocumentCategory *DocumentCategory `json:"document_category,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	SourceType       RoutingSource     `json:"source_type"`
	AIFlag           DecisionFlag      `json:"ai_flag"`
	Confidence       *float64          `json:"confidence"`
	RequiresHuman    bool              `json:"requires_human"`
	CreatedAt        time.Time         `json:"created_at"`
}

// HumanDeadlineRequest finalizes a deadline manually. Confidence is always
// recorded as 1.0 for human-entered deadlines.
type HumanDeadlineRequest struct {
	RoutingID        string            `json:"routing_id" binding:"required"`
	DeadlineDate     string            `json:"deadline_date" binding:"required"`
	Label            DeadlineLabel     `json:"label"`
	Priority         PriorityLevel     `json:"priority"`
	CCEmails         []string          `json:"cc_emails"`
	Notes            string            `json:"notes"`
	EmailEnabled     *bool             `json:"email_enabled"`
	DocumentCategory *DocumentCategory `json:"document_category"`
}

// ReminderRequest creates or updates a reminder rule.
type ReminderRequest struct {
	RoutingID    string             `json:"routing_id"`
	TriggerValue *int               `json:"trigger_value"`
	TriggerUnit  ReminderUnit       `json:"trigger_unit" binding:"required"`
	Direction    *ReminderDirection `json:"direction"`
	Channel      ReminderChannel    `json:"channel"`
}

// ReminderHistoryResponse is a history row with days remaining computed
// live against the configured clock.
type ReminderHistoryResponse struct {
	ID            uint            `json:"id"`
	RuleText      string          `json:"rule_text"`
	SubmittedOn   string          `json:"submitted_on"`
	TriggerDate   string          `json:"trigger_date"`
	SentOn        *string         `json:"sent_on,omitempty"`
	DaysRemaining int             `json:"days_remaining"`
	Status        ReminderStatus  `json:"status"`
	Recipient     string          `json:"recipient"`
	Channel       ReminderChannel `json:"channel"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
