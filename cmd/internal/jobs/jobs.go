package jobs

import (
	"appointease/cmd/internal/utils"
	"context"
	"github.com/labstack/gommon/log"
	"time"
)

// completionGrace is how long after its end an appointment is
// considered over.
const completionGrace = time.Hour

type DueNotificationProcessor interface {
	ProcessDueNotifications(ctx context.Context) (int, error)
}

type AppointmentCompleter interface {
	CompleteEndedBefore(cutoff int64) (int64, error)
}

// NotificationScan dispatches due reminders every interval.
func NotificationScan(processor DueNotificationProcessor, interval time.Duration) Job {
	return Job{
		Name:     "notification-scan",
		Interval: interval,
		Run: func(ctx context.Context) error {
			sent, err := processor.ProcessDueNotifications(ctx)
			if err != nil {
				return err
			}
			if sent > 0 {
				log.Infof("dispatched %d notifications", sent)
			}
			return nil
		},
	}
}

// AppointmentStatusUpdate marks scheduled and confirmed appointments
// that ended more than an hour ago as completed.
func AppointmentStatusUpdate(completer AppointmentCompleter, clock utils.Clock, interval time.Duration) Job {
	return Job{
		Name:     "appointment-status-update",
		Interval: interval,
		Run: func(context.Context) error {
			cutoff := clock.NowUTC() - completionGrace.Milliseconds()
			updated, err := completer.CompleteEndedBefore(cutoff)
			if err != nil {
				return err
			}
			if updated > 0 {
				log.Infof("marked %d appointments as completed", updated)
			}
			return nil
		},
	}
}
