package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"time"
	"unicode"
)

// ReminderData feeds the appointment reminder templates.
type ReminderData struct {
	UserName    string
	Title       string
	Description string
	Category    string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	ManageURL   string
}

var reminderHTML = htmltemplate.Must(htmltemplate.New("reminder").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Appointment Reminder</title></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 30px;">
    <h1 style="color: #4f46e5; font-size: 24px;">Appointment Reminder</h1>
    <p>Hello {{.UserName}},</p>
    <p>This is a reminder about your upcoming appointment:</p>
    <p><strong>Title:</strong> {{.Title}}</p>
    <p><strong>Date:</strong> {{.StartsAt.Format "Monday, January 2, 2006"}}</p>
    <p><strong>Time:</strong> {{.StartsAt.Format "3:04 PM"}} - {{.EndsAt.Format "3:04 PM"}} (UTC)</p>
    <p><strong>Category:</strong> {{.Category}}</p>
    {{if .Location}}<p><strong>Location:</strong> {{.Location}}</p>{{end}}
    {{if .Description}}<p><strong>Description:</strong> {{.Description}}</p>{{end}}
    <p><a href="{{.ManageURL}}" style="background: #4f46e5; color: #fff; padding: 10px 20px; border-radius: 5px; text-decoration: none;">View Appointment</a></p>
    <p style="font-size: 12px; color: #666;">This is an automated message. Please do not reply to this email.</p>
  </div>
</body>
</html>`))

// RenderReminder builds the reminder email for one appointment.
func RenderReminder(to string, data ReminderData) (*Message, error) {
	if data.Category == "" {
		data.Category = "Uncategorized"
	}

	var html bytes.Buffer
	if err := reminderHTML.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render reminder: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hello %s,\n\n", data.UserName)
	fmt.Fprintf(&text, "This is a reminder about your upcoming appointment:\n\n")
	fmt.Fprintf(&text, "Title: %s\n", data.Title)
	fmt.Fprintf(&text, "When: %s - %s (UTC)\n", data.StartsAt.Format("Mon, Jan 2 2006 15:04"), data.EndsAt.Format("15:04"))
	fmt.Fprintf(&text, "Category: %s\n", data.Category)
	if data.Location != "" {
		fmt.Fprintf(&text, "Location: %s\n", data.Location)
	}
	if data.Description != "" {
		fmt.Fprintf(&text, "Description: %s\n", data.Description)
	}
	fmt.Fprintf(&text, "\nManage it at %s\n", data.ManageURL)

	return &Message{
		To:       to,
		Subject:  "Reminder: " + singleLine(data.Title),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

// singleLine folds every control character into a space.
func singleLine(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsControl), " ")
}
