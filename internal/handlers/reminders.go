package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"docroute-api/internal/auth"
	"docroute-api/internal/clock"
	"docroute-api/internal/models"
	"docroute-api/internal/reminder"
	"docroute-api/internal/routing"
)

// CreateHumanDeadline finalizes a deadline by hand: records the
// HUMAN-sourced deadline at full confidence, clears the review flag,
// replaces the CC list and (re)arms the default due-date reminder.
func (h *Handlers) CreateHumanDeadline(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	var req models.HumanDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	deadlineDate, err := time.Parse(dateLayout, req.DeadlineDate)
	if err != nil {
		h.badRequest(c, "deadline_date must be YYYY-MM-DD")
		return
	}

	rt, err := h.store.RoutingByRoutingID(userID, req.RoutingID)
	if err != nil {
		h.internalError(c, "Failed to fetch routing")
		return
	}
	if rt == nil {
		h.notFound(c, "Routing not found")
		return
	}

	label := req.Label
	if label == "" {
		label = models.LabelDue
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	confidence := 1.0
	deadline := models.RoutingDeadline{
		RoutingID:    rt.ID,
		Source:       models.SourceHuman,
		Label:        label,
		DeadlineDate: deadlineDate,
		Confidence:   &confidence,
		Priority:     priority,
		AIFlag:       routing.FlagFromPriority(priority),
	}
	if err := h.store.CreateDeadline(&deadline); err != nil {
		h.internalError(c, "Failed to record deadline")
		return
	}

	rt.AIFlag = deadline.AIFlag
	rt.Confidence = &confidence
	rt.RequiresHuman = false
	if req.Notes != "" {
		rt.Notes = req.Notes
	}
	if req.DocumentCategory != nil {
		rt.DocumentCategory = req.DocumentCategory
	}
	if err := h.store.SaveRouting(rt); err != nil {
		h.internalError(c, "Failed to update routing")
		return
	}

	if err := h.store.ReplaceRecipients(rt.ID, req.CCEmails); err != nil {
		h.internalError(c, "Failed to update recipients")
		return
	}

	recipientStr, err := h.recipientString(rt)
	if err != nil {
		h.internalError(c, "Failed to resolve recipients")
		return
	}

	rule, err := h.armDefaultReminder(rt, &deadline, recipientStr)
	if err != nil {
		logrus.Errorf("Failed to arm default reminder: %v", err)
		h.internalError(c, "Failed to schedule reminder")
		return
	}

	// Other pending rows of this routing carry the old CC list; refresh
	// them too.
	if err := h.store.UpdatePendingRecipients(rt.ID, recipientStr); err != nil {
		logrus.Errorf("Failed to refresh pending recipients: %v", err)
	}

	details := "deadline_date=" + req.DeadlineDate + " priority=" + string(priority)
	if err := h.store.AppendAudit(rt.ID, "HUMAN_DEADLINE_ADDED", details, models.ActorHuman); err != nil {
		logrus.Errorf("Failed to audit human deadline: %v", err)
	}

	emailEnabled := req.EmailEnabled == nil || *req.EmailEnabled
	trigger := reminder.TriggerDate(deadlineDate, rule.TriggerValue, rule.TriggerUnit, rule.Direction)
	if emailEnabled && clock.SameDate(trigger, h.clock.Today()) {
		if err := h.scheduler.RunOnce(); err != nil {
			logrus.Errorf("Immediate reminder run failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, routingResponse(rt, &deadline))
}

// armDefaultReminder reuses the routing's active zero-day-before rule
// if one exists, relinking it to the new deadline; otherwise it creates
// one. Either way the rule's PENDING history row is brought in line
// with the new deadline.
func (h *Handlers) armDefaultReminder(rt *models.DocumentRouting, deadline *models.RoutingDeadline, recipientStr string) (*models.RoutingReminder, error) {
	rule, err := h.store.DefaultReminder(rt.ID)
	if err != nil {
		return nil, err
	}

	zero := 0
	before := models.DirectionBefore
	if rule == nil {
		rule = &models.RoutingReminder{
			RoutingID:    rt.ID,
			DeadlineID:   deadline.ID,
			TriggerValue: &zero,
			TriggerUnit:  models.UnitDay,
			Direction:    &before,
			Channel:      models.ChannelEmail,
			Active:       true,
		}
		if err := h.store.CreateReminder(rule); err != nil {
			return nil, err
		}
	} else {
		rule.DeadlineID = deadline.ID
		rule.Active = true
		if err := h.store.SaveReminder(rule); err != nil {
			return nil, err
		}
	}

	trigger := reminder.TriggerDate(deadline.DeadlineDate, rule.TriggerValue, rule.TriggerUnit, rule.Direction)
	ruleText := reminder.RuleText(rule.TriggerValue, rule.TriggerUnit, rule.Direction)
	today := h.clock.Today()

	pending, err := h.store.PendingHistoryForReminder(rule.ID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		pending.RuleText = ruleText
		pending.SubmittedOn = deadline.DeadlineDate
		pending.TriggerDate = trigger
		pending.DaysRemaining = maxInt(clock.DaysBetween(today, trigger), 0)
		pending.Recipient = recipientStr
		if err := h.store.SaveHistory(pending); err != nil {
			return nil, err
		}
		return rule, nil
	}

	history := models.ReminderHistory{
		ReminderID:    rule.ID,
		RoutingID:     rt.ID,
		RuleText:      ruleText,
		SubmittedOn:   deadline.DeadlineDate,
		TriggerDate:   trigger,
		DaysRemaining: maxInt(clock.DaysBetween(today, trigger), 0),
		Status:        models.StatusPending,
		Recipient:     recipientStr,
		Channel:       rule.Channel,
	}
	if err := h.store.CreateHistory(&history); err != nil {
		return nil, err
	}
	return rule, nil
}

// GetReminders lists the active reminder rules for a routing.
func (h *Handlers) GetReminders(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	rt, err := h.store.RoutingByRoutingID(userID, c.Param("routing_id"))
	if err != nil {
		h.internalError(c, "Failed to fetch routing")
		return
	}
	if rt == nil {
		h.notFound(c, "Routing not found")
		return
	}

	reminders, err := h.store.ActiveRemindersForRouting(rt.ID)
	if err != nil {
		h.internalError(c, "Failed to fetch reminders")
		return
	}

	c.JSON(http.StatusOK, reminders)
}

// CreateReminder adds a reminder rule against the routing's latest
// deadline and seeds its PENDING history row.
func (h *Handlers) CreateReminder(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	var req models.ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	if req.RoutingID == "" {
		h.badRequest(c, "routing_id is required")
		return
	}
	if !validUnit(req.TriggerUnit) {
		h.badRequest(c, "trigger_unit must be DAY, WEEK, MONTH or EXACT")
		return
	}

	rt, err := h.store.RoutingByRoutingID(userID, req.RoutingID)
	if err != nil {
		h.internalError(c, "Failed to fetch routing")
		return
	}
	if rt == nil {
		h.notFound(c, "Routing not found")
		return
	}

	deadline, err := h.store.LatestDeadline(rt.ID)
	if err != nil {
		h.internalError(c, "Failed to fetch deadline")
		return
	}
	if deadline == nil {
		h.badRequest(c, "Routing has no deadline to remind against")
		return
	}

	channel := req.Channel
	if channel == "" {
		channel = models.ChannelEmail
	}

	rule := models.RoutingReminder{
		RoutingID:    rt.ID,
		DeadlineID:   deadline.ID,
		TriggerValue: req.TriggerValue,
		TriggerUnit:  req.TriggerUnit,
		Direction:    req.Direction,
		Channel:      channel,
		Active:       true,
	}
	if err := h.store.CreateReminder(&rule); err != nil {
		h.internalError(c, "Failed to create reminder")
		return
	}

	recipientStr, err := h.recipientString(rt)
	if err != nil {
		h.internalError(c, "Failed to resolve recipients")
		return
	}

	trigger := reminder.TriggerDate(deadline.DeadlineDate, rule.TriggerValue, rule.TriggerUnit, rule.Direction)
	ruleText := reminder.RuleText(rule.TriggerValue, rule.TriggerUnit, rule.Direction)
	today := h.clock.Today()

	history := models.ReminderHistory{
		ReminderID:    rule.ID,
		RoutingID:     rt.ID,
		RuleText:      ruleText,
		SubmittedOn:   deadline.DeadlineDate,
		TriggerDate:   trigger,
		DaysRemaining: maxInt(clock.DaysBetween(today, trigger), 0),
		Status:        models.StatusPending,
		Recipient:     recipientStr,
		Channel:       rule.Channel,
	}
	if err := h.store.CreateHistory(&history); err != nil {
		h.internalError(c, "Failed to record reminder history")
		return
	}

	if err := h.store.AppendAudit(rt.ID, "REMINDER_CREATED", ruleText, models.ActorHuman); err != nil {
		logrus.Errorf("Failed to audit reminder creation: %v", err)
	}

	if clock.SameDate(trigger, today) {
		if err := h.scheduler.RunOnce(); err != nil {
			logrus.Errorf("Immediate reminder run failed: %v", err)
		}
	}

	c.JSON(http.StatusCreated, rule)
}

// UpdateReminder changes a rule's offset. Only the rule text of the
// PENDING history row is rewritten here; the scheduler re-derives the
// trigger date on every tick, so a stale stored date cannot fire.
func (h *Handlers) UpdateReminder(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	reminderID, err := parseID(c.Param("reminder_id"))
	if err != nil {
		h.badRequest(c, "Invalid reminder id")
		return
	}

	var req models.ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	if !validUnit(req.TriggerUnit) {
		h.badRequest(c, "trigger_unit must be DAY, WEEK, MONTH or EXACT")
		return
	}

	rule, err := h.store.ReminderByID(userID, reminderID)
	if err != nil {
		h.internalError(c, "Failed to fetch reminder")
		return
	}
	if rule == nil {
		h.notFound(c, "Reminder not found")
		return
	}

	rule.TriggerValue = req.TriggerValue
	rule.TriggerUnit = req.TriggerUnit
	rule.Direction = req.Direction
	if req.Channel != "" {
		rule.Channel = req.Channel
	}
	if err := h.store.SaveReminder(rule); err != nil {
		h.internalError(c, "Failed to save reminder")
		return
	}

	ruleText := reminder.RuleText(rule.TriggerValue, rule.TriggerUnit, rule.Direction)
	if err := h.store.UpdatePendingRuleText(rule.ID, ruleText); err != nil {
		logrus.Errorf("Failed to update pending rule text: %v", err)
	}

	if err := h.store.AppendAudit(rule.RoutingID, "REMINDER_UPDATED", ruleText, models.ActorHuman); err != nil {
		logrus.Errorf("Failed to audit reminder update: %v", err)
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteReminder deactivates a rule and closes out its PENDING history
// row as SKIPPED.
func (h *Handlers) DeleteReminder(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	reminderID, err := parseID(c.Param("reminder_id"))
	if err != nil {
		h.badRequest(c, "Invalid reminder id")
		return
	}

	rule, err := h.store.ReminderByID(userID, reminderID)
	if err != nil {
		h.internalError(c, "Failed to fetch reminder")
		return
	}
	if rule == nil {
		h.notFound(c, "Reminder not found")
		return
	}

	rule.Active = false
	if err := h.store.SaveReminder(rule); err != nil {
		h.internalError(c, "Failed to deactivate reminder")
		return
	}

	if err := h.store.MarkPendingSkipped(rule.ID); err != nil {
		h.internalError(c, "Failed to close pending history")
		return
	}
	h.metrics.RemindersSkipped.Inc()

	ruleText := reminder.RuleText(rule.TriggerValue, rule.TriggerUnit, rule.Direction)
	if err := h.store.AppendAudit(rule.RoutingID, "REMINDER_DELETED", ruleText, models.ActorHuman); err != nil {
		logrus.Errorf("Failed to audit reminder deletion: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted"})
}

// ReminderHistory lists a routing's history rows, newest trigger first,
// with days remaining recomputed against the current date.
func (h *Handlers) ReminderHistory(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	rt, err := h.store.RoutingByRoutingID(userID, c.Param("routing_id"))
	if err != nil {
		h.internalError(c, "Failed to fetch routing")
		return
	}
	if rt == nil {
		h.notFound(c, "Routing not found")
		return
	}

	rows, err := h.store.HistoryForRouting(rt.ID)
	if err != nil {
		h.internalError(c, "Failed to fetch reminder history")
		return
	}

	today := h.clock.Today()
	results := make([]models.ReminderHistoryResponse, 0, len(rows))
	for _, row := range rows {
		var sentOn *string
		if row.SentOn != nil {
			s := row.SentOn.Format(dateLayout)
			sentOn = &s
		}
		results = append(results, models.ReminderHistoryResponse{
			ID:            row.ID,
			RuleText:      row.RuleText,
			SubmittedOn:   row.SubmittedOn.Format(dateLayout),
			TriggerDate:   row.TriggerDate.Format(dateLayout),
			SentOn:        sentOn,
			DaysRemaining: maxInt(clock.DaysBetween(today, row.TriggerDate), 0),
			Status:        row.Status,
			Recipient:     row.Recipient,
			Channel:       row.Channel,
		})
	}

	c.JSON(http.StatusOK, results)
}

// DeleteReminderHistory removes a single history row.
func (h *Handlers) DeleteReminderHistory(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		h.unauthorized(c)
		return
	}

	historyID, err := parseID(c.Param("history_id"))
	if err != nil {
		h.badRequest(c, "Invalid history id")
		return
	}

	row, err := h.store.HistoryByID(userID, historyID)
	if err != nil {
		h.internalError(c, "Failed to fetch reminder history")
		return
	}
	if row == nil {
		h.notFound(c, "Reminder history not found")
		return
	}

	if err := h.store.DeleteHistory(row); err != nil {
		h.internalError(c, "Failed to delete reminder history")
		return
	}

	if err := h.store.AppendAudit(row.RoutingID, "REMINDER_HISTORY_DELETED", row.RuleText, models.ActorHuman); err != nil {
		logrus.Errorf("Failed to audit history deletion: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder history deleted"})
}

// recipientString joins the routing owner's address with the CC list,
// deduplicated and sorted, into the comma-separated form stored on
// history rows.
func (h *Handlers) recipientString(rt *models.DocumentRouting) (string, error) {
	owner, err := h.store.UserEmail(rt.UserID)
	if err != nil {
		return "", err
	}
	ccs, err := h.store.RecipientEmails(rt.ID)
	if err != nil {
		return "", err
	}

	seen := make(map[string]bool)
	var emails []string
	for _, e := range append([]string{owner}, ccs...) {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		emails = append(emails, e)
	}
	sort.Strings(emails)

	return strings.Join(emails, ", "), nil
}

func validUnit(unit models.ReminderUnit) bool {
	switch unit {
	case models.UnitDay, models.UnitWeek, models.UnitMonth, models.UnitExact:
		return true
	}
	return false
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Days remaining never goes negative: a trigger in the past reads as 0.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
