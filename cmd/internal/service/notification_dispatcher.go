package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/metrics"
	"appointease/cmd/internal/utils"
	"context"
	"errors"
	"fmt"
	"github.com/labstack/gommon/log"
	"time"
)

var (
	ErrNotPending         = errors.New("notification is not pending")
	ErrUnsupportedChannel = errors.New("unsupported notification channel")
	ErrRecipientMissing   = errors.New("notification recipient no longer exists")
)

// ChannelSender delivers one notification over one channel.
type ChannelSender interface {
	Send(ctx context.Context, notification *entity.Notification) error
}

type NotificationDispatcher struct {
	NotificationRepo NotificationRepository
	Senders          map[entity.Channel]ChannelSender
	Clock            utils.Clock
	Timeout          time.Duration
	Retry            RetryPolicy
	Metrics          *metrics.Metrics
}

func NewNotificationDispatcher(notifRepo NotificationRepository, senders map[entity.Channel]ChannelSender, clock utils.Clock, timeout time.Duration, retry RetryPolicy, m *metrics.Metrics) *NotificationDispatcher {
	if retry == nil {
		retry = NoRetry{}
	}
	return &NotificationDispatcher{
		NotificationRepo: notifRepo,
		Senders:          senders,
		Clock:            clock,
		Timeout:          timeout,
		Retry:            retry,
		Metrics:          m,
	}
}

// SendNotification claims a pending notification and delivers it. The
// row ends up sent or failed. ErrNotPending is returned when another
// worker got to the notification first or it was already finished.
func (d *NotificationDispatcher) SendNotification(ctx context.Context, n *entity.Notification) error {
	if n.Status != entity.NotificationPending {
		d.Metrics.Dispatched.WithLabelValues(n.Channel.String(), metrics.ResultSkipped).Inc()
		return ErrNotPending
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notification %d left pending: %w", n.ID, err)
	}

	claimed, err := d.NotificationRepo.Claim(n.ID)
	if err != nil {
		return fmt.Errorf("failed to claim notification %d: %w", n.ID, err)
	}
	if !claimed {
		d.Metrics.Dispatched.WithLabelValues(n.Channel.String(), metrics.ResultSkipped).Inc()
		return ErrNotPending
	}
	n.Status = entity.NotificationProcessing

	if sendErr := d.deliver(ctx, n); sendErr != nil {
		d.fail(n, sendErr)
		return fmt.Errorf("failed to dispatch notification %d: %w", n.ID, sendErr)
	}

	sentAt := d.Clock.NowUTC()
	if err := d.NotificationRepo.MarkSent(n.ID, sentAt); err != nil {
		return fmt.Errorf("failed to mark notification %d as sent: %w", n.ID, err)
	}
	n.Status = entity.NotificationSent
	n.SentAt = &sentAt
	d.Metrics.Dispatched.WithLabelValues(n.Channel.String(), metrics.ResultSent).Inc()
	return nil
}

// Supports reports whether a sender is registered for ch.
func (d *NotificationDispatcher) Supports(ch entity.Channel) bool {
	_, ok := d.Senders[ch]
	return ok
}

// deliver runs the channel sender under the dispatch timeout. A claimed
// notification is not aborted when the caller's context is cancelled;
// only the timeout ends it. A sender that ignores its context is
// abandoned once the deadline passes.
func (d *NotificationDispatcher) deliver(ctx context.Context, n *entity.Notification) error {
	sender, ok := d.Senders[n.Channel]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedChannel, n.Channel)
	}

	ctx = context.WithoutCancel(ctx)
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("sender panicked: %v", r)
			}
		}()
		done <- sender.Send(ctx, n)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("delivery aborted: %w", ctx.Err())
	}
}

func (d *NotificationDispatcher) fail(n *entity.Notification, sendErr error) {
	msg := sendErr.Error()
	if err := d.NotificationRepo.MarkFailed(n.ID, msg); err != nil {
		log.Errorf("failed to mark notification %d as failed: %v", n.ID, err)
		return
	}
	n.Status = entity.NotificationFailed
	n.Error = &msg
	d.Metrics.Dispatched.WithLabelValues(n.Channel.String(), metrics.ResultFailed).Inc()

	if errors.Is(sendErr, ErrUnsupportedChannel) || errors.Is(sendErr, ErrRecipientMissing) {
		return
	}

	retryAt, ok := d.Retry.Next(n, d.Clock.NowUTC())
	if !ok {
		return
	}
	retry := &entity.Notification{
		UserID:        n.UserID,
		AppointmentID: n.AppointmentID,
		Type:          n.Type,
		Channel:       n.Channel,
		Status:        entity.NotificationPending,
		ScheduledAt:   retryAt,
		Attempt:       n.Attempt + 1,
		Data:          n.Data,
	}
	if err := d.NotificationRepo.Create(retry); err != nil {
		log.Errorf("failed to schedule retry of notification %d: %v", n.ID, err)
		return
	}
	log.Infof("notification %d will be retried as %d at %s", n.ID, retry.ID, utils.FormatEpoch(retryAt))
}
