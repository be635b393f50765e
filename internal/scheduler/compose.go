package scheduler

import (
	"fmt"
	"strings"

	"docroute-api/internal/models"
	"docroute-api/internal/notifier"
)

const dateLayout = "2006-01-02"

// composeReminderMessage builds the notification for a due reminder.
// Severity framing depends on the days left to the deadline: zero days
// gets the critical "today" framing, anything later the standard
// countdown framing.
func composeReminderMessage(routing *models.DocumentRouting, deadline *models.RoutingDeadline, recipients []string, daysToDeadline int) notifier.Message {
	deadlineStr := deadline.DeadlineDate.Format(dateLayout)

	notesText := "—"
	notesBlock := ""
	if routing.Notes != "" {
		notesText = routing.Notes
		notesBlock = fmt.Sprintf(`
<hr>
<p><b>Notes:</b></p>
<p>%s</p>
`, routing.Notes)
	}

	var subject, htmlBody string
	if daysToDeadline == 0 {
		subject = fmt.Sprintf("CRITICAL: Deadline TODAY – %s", routing.RoutingID)
		htmlBody = fmt.Sprintf(`
<h2 style="color:red">CRITICAL DEADLINE TODAY</h2>
<p><b>Document:</b> %s</p>
<p><b>Deadline:</b> %s</p>
<p style="color:red;font-weight:bold">
    Immediate action is required.
</p>
%s`, routing.DocumentName, deadlineStr, notesBlock)
	} else {
		subject = fmt.Sprintf("Reminder: Deadline in %d Days – %s", daysToDeadline, routing.RoutingID)
		htmlBody = fmt.Sprintf(`
<h3 style="color:orange">Upcoming Deadline</h3>
<p><b>Document:</b> %s</p>
<p><b>Deadline:</b> %s</p>
%s`, routing.DocumentName, deadlineStr, notesBlock)
	}

	textBody := fmt.Sprintf(
		"Document: %s\nDeadline: %s\n\nNotes:\n%s",
		routing.DocumentName, deadlineStr, notesText,
	)

	return notifier.Message{
		To:             recipients,
		Subject:        subject,
		TextBody:       strings.TrimSpace(textBody),
		HTMLBody:       strings.TrimSpace(htmlBody),
		AttachmentPath: routing.SourceFilePath,
	}
}
