package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/metrics"
	"appointease/cmd/internal/utils"
	"fmt"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

// NotificationGenerator turns an appointment into its pending reminder
// rows. It is called after every appointment create or update.
type NotificationGenerator struct {
	NotificationRepo NotificationRepository
	PreferenceRepo   PreferenceRepository
	Clock            utils.Clock
	Metrics          *metrics.Metrics

	// Deliverable filters out channels nothing can send. Nil keeps all.
	Deliverable func(entity.Channel) bool
}

func NewNotificationGenerator(notifRepo NotificationRepository, prefRepo PreferenceRepository, clock utils.Clock, m *metrics.Metrics) *NotificationGenerator {
	return &NotificationGenerator{NotificationRepo: notifRepo, PreferenceRepo: prefRepo, Clock: clock, Metrics: m}
}

// GenerateNotifications replaces every pending notification of appt
// with one reminder per effective channel. Nothing new is created when
// reminders are disabled, the appointment is cancelled or the reminder
// moment already lies in the past. Sent and failed rows are kept.
func (g *NotificationGenerator) GenerateNotifications(appt *entity.Appointment) ([]*entity.Notification, error) {
	if !appt.NotificationsEnabled || appt.Status == entity.AppointmentCancelled {
		return nil, g.clearPending(appt)
	}

	pref, err := g.PreferenceRepo.GetOrCreate(appt.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences of user %d: %w", appt.UserID, err)
	}

	lead := pref.DefaultReminderMinutes
	if appt.ReminderMinutes != nil {
		lead = *appt.ReminderMinutes
	}

	fireAt := utils.MinutesBefore(appt.BeginsAt, lead)
	if fireAt < g.Clock.NowUTC() {
		log.Debugf("reminder for appointment %d would fire at %s, skipping", appt.ID, utils.FormatEpoch(fireAt))
		return nil, g.clearPending(appt)
	}

	channels, err := appt.ChannelOverride()
	if err != nil {
		return nil, fmt.Errorf("appointment %d has invalid channels: %w", appt.ID, err)
	}
	if len(channels) == 0 {
		channels = pref.ReminderChannels()
	}
	channels = g.deliverable(appt, channels)
	if len(channels) == 0 {
		return nil, g.clearPending(appt)
	}

	data := entity.NotificationData{
		Title:          appt.Title,
		StartTime:      utils.FormatEpoch(appt.BeginsAt),
		IsStartingSoon: false,
	}
	if appt.Location != nil {
		data.Location = *appt.Location
	}

	notifications := make([]*entity.Notification, len(channels))
	for i, ch := range channels {
		n := &entity.Notification{
			UserID:        appt.UserID,
			AppointmentID: appt.ID,
			Type:          entity.NotificationReminder,
			Channel:       ch,
			Status:        entity.NotificationPending,
			ScheduledAt:   fireAt,
			Data:          datatypes.NewJSONType(data),
		}
		notifications[i] = n
	}

	if err := g.NotificationRepo.ReplacePending(appt.ID, notifications); err != nil {
		return nil, fmt.Errorf("failed to store notifications of appointment %d: %w", appt.ID, err)
	}
	g.Metrics.Generated.Add(float64(len(notifications)))
	return notifications, nil
}

func (g *NotificationGenerator) clearPending(appt *entity.Appointment) error {
	if err := g.NotificationRepo.ReplacePending(appt.ID, nil); err != nil {
		return fmt.Errorf("failed to clear notifications of appointment %d: %w", appt.ID, err)
	}
	return nil
}

func (g *NotificationGenerator) deliverable(appt *entity.Appointment, channels []entity.Channel) []entity.Channel {
	if g.Deliverable == nil {
		return channels
	}
	out := channels[:0:0]
	for _, ch := range channels {
		if !g.Deliverable(ch) {
			log.Debugf("appointment %d: no sender for channel %s, dropping it", appt.ID, ch)
			continue
		}
		out = append(out, ch)
	}
	return out
}
