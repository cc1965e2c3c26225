package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/metrics"
	"appointease/cmd/internal/utils"
	"context"
	"errors"
	"fmt"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"sync/atomic"
	"time"
)

type NotificationSender interface {
	SendNotification(ctx context.Context, n *entity.Notification) error
}

// NotificationScanner picks up due notifications and hands them to the
// dispatcher, at most Workers at a time.
type NotificationScanner struct {
	NotificationRepo NotificationRepository
	Sender           NotificationSender
	Clock            utils.Clock
	Workers          int
	BatchLimit       int
	Metrics          *metrics.Metrics
}

func NewNotificationScanner(notifRepo NotificationRepository, sender NotificationSender, clock utils.Clock, workers, batchLimit int, m *metrics.Metrics) *NotificationScanner {
	if workers < 1 {
		workers = 1
	}
	return &NotificationScanner{
		NotificationRepo: notifRepo,
		Sender:           sender,
		Clock:            clock,
		Workers:          workers,
		BatchLimit:       batchLimit,
		Metrics:          m,
	}
}

// ProcessDueNotifications dispatches every pending notification due at
// the current time and returns how many of them were sent. A failing
// notification never stops the rest of the batch.
func (s *NotificationScanner) ProcessDueNotifications(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { s.Metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	due, err := s.NotificationRepo.FindDue(s.Clock.NowUTC(), s.BatchLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch due notifications: %w", err)
	}
	s.Metrics.ScanBatch.Set(float64(len(due)))
	if len(due) == 0 {
		return 0, nil
	}

	var sent atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.Workers)

	for _, n := range due {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if s.dispatch(ctx, n) {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Infof("processed %d due notifications, %d sent", len(due), sent.Load())
	return int(sent.Load()), nil
}

func (s *NotificationScanner) dispatch(ctx context.Context, n *entity.Notification) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic while dispatching notification %d: %v", n.ID, r)
			ok = false
		}
	}()

	err := s.Sender.SendNotification(ctx, n)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNotPending):
		log.Debugf("notification %d already claimed, skipping", n.ID)
	default:
		log.Errorf("notification %d: %v", n.ID, err)
	}
	return false
}
