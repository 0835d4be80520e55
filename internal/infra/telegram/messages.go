package telegram

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"care_reminder_service/internal/app"
	"care_reminder_service/internal/domain/notification"

	"gopkg.in/telebot.v3"
)

// donePrefix marks callback data that completes a task: "done_<reminder id>".
const donePrefix = "done_"

var messageTemplates = template.Must(template.New("messages").Parse(`
{{define "welcome"}}
Hi {{.firstName}}! {{.subjectName}} is all set with {{.seeded}} care reminders.
Send /today to see what needs doing and /upcoming for the week ahead.
{{end}}

{{define "daily_digest"}}
Good morning {{.firstName}}! Here is the plan for {{.subjectName}} on {{.date}}:
{{range .today}}
- {{.Title}}{{if gt .DaysOverdue 0}} (overdue by {{.DaysOverdue}} days){{end}}{{end}}
{{with .medical}}
Medical in the next 30 days:{{range .}}
- {{.Title}} on {{.DueDate}}{{end}}
{{end}}
{{end}}

{{define "weekly_summary"}}
Weekly check-in for {{.subjectName}}, {{.firstName}}.
{{with .overdueTasks}}
Overdue tasks:{{range .}}
- {{.Title}} was due {{.DueDate}} ({{.DaysOverdue}} days ago){{end}}
{{end}}{{with .overdueVaccinations}}
Vaccinations not recorded yet:{{range .}}
- {{.Title}} was due {{.DueDate}}{{end}}
{{end}}
{{end}}
`))

// Render turns a notification into message text and, when the message lists
// tasks, an inline keyboard to tick them off.
func Render(msg notification.Message) (string, *telebot.ReplyMarkup, error) {
	var buf bytes.Buffer
	if messageTemplates.Lookup(string(msg.Template)) == nil {
		return "", nil, fmt.Errorf("unknown message template %q", msg.Template)
	}
	if err := messageTemplates.ExecuteTemplate(&buf, string(msg.Template), msg.Variables); err != nil {
		return "", nil, fmt.Errorf("failed to render %s: %w", msg.Template, err)
	}

	var items []app.DigestItem
	for _, key := range []string{"today", "overdueTasks"} {
		if list, ok := msg.Variables[key].([]app.DigestItem); ok {
			items = append(items, list...)
		}
	}
	return strings.TrimSpace(buf.String()), doneKeyboard(items), nil
}

func doneKeyboard(items []app.DigestItem) *telebot.ReplyMarkup {
	var rows [][]telebot.InlineButton
	for _, item := range items {
		if !item.Completable {
			continue
		}
		rows = append(rows, []telebot.InlineButton{{
			Text: "Done: " + item.Title,
			Data: donePrefix + item.ID,
		}})
	}
	if len(rows) == 0 {
		return nil
	}
	return &telebot.ReplyMarkup{InlineKeyboard: rows}
}
