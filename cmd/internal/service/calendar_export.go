package service

import (
	"appointease/cmd/internal/domain/entity"
	"fmt"
	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const icsTimeLayout = "20060102T150405Z"

var filenameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// exportEnd gives appointments without a proper duration one hour.
func exportEnd(appt *entity.Appointment) time.Time {
	start := time.UnixMilli(appt.BeginsAt).UTC()
	if appt.EndsAt <= appt.BeginsAt {
		return start.Add(time.Hour)
	}
	return time.UnixMilli(appt.EndsAt).UTC()
}

// GenerateICalendar renders appt as a single-event VCALENDAR. now is
// the DTSTAMP in epoch millis.
func GenerateICalendar(appt *entity.Appointment, now int64) []byte {
	cal := ics.NewCalendar()
	cal.SetProductId("-//AppointEase//Appointment//EN")
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)

	event := cal.AddEvent(uuid.NewString() + "@appointease")
	event.SetDtStampTime(time.UnixMilli(now).UTC())
	event.SetStartAt(time.UnixMilli(appt.BeginsAt).UTC())
	event.SetEndAt(exportEnd(appt))
	event.SetSummary(appt.Title)
	if appt.Description != nil && *appt.Description != "" {
		event.SetDescription(*appt.Description)
	}
	if appt.Location != nil && *appt.Location != "" {
		event.SetLocation(*appt.Location)
	}
	if appt.Category != nil {
		event.AddProperty(ics.ComponentPropertyCategories, appt.Category.Name)
	}
	event.SetStatus(icsStatus(appt.Status))

	return []byte(cal.Serialize())
}

func icsStatus(status entity.AppointmentStatus) ics.ObjectStatus {
	switch status {
	case entity.AppointmentCancelled:
		return ics.ObjectStatusCancelled
	case entity.AppointmentScheduled:
		return ics.ObjectStatusTentative
	}
	return ics.ObjectStatusConfirmed
}

func ICalendarFilename(appt *entity.Appointment) string {
	name := strings.Trim(filenameUnsafe.ReplaceAllString(appt.Title, "-"), "-")
	if name == "" {
		name = "appointment"
	}
	return fmt.Sprintf("%s.ics", strings.ToLower(name))
}

// GenerateGoogleCalendarURL builds a prefilled "add event" link.
func GenerateGoogleCalendarURL(appt *entity.Appointment) string {
	start := time.UnixMilli(appt.BeginsAt).UTC().Format(icsTimeLayout)
	end := exportEnd(appt).Format(icsTimeLayout)

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", appt.Title)
	q.Set("dates", start+"/"+end)
	if appt.Description != nil {
		q.Set("details", *appt.Description)
	}
	if appt.Location != nil {
		q.Set("location", *appt.Location)
	}
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}
