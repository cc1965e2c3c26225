package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/integration/mail"
	"context"
	"fmt"
	"github.com/labstack/gommon/log"
	"time"
)

// EmailSender renders the reminder template and mails it to the
// appointment owner.
type EmailSender struct {
	AppointmentRepo AppointmentRepository
	UserRepo        UserRepository
	Mailer          mail.Mailer
	FrontendURL     string

	// TreatTransportErrorsAsSent reports mailer failures as delivered.
	// Only meant for development setups without a working relay.
	TreatTransportErrorsAsSent bool
}

func NewEmailSender(apptRepo AppointmentRepository, userRepo UserRepository, mailer mail.Mailer, frontendURL string, treatErrorsAsSent bool) *EmailSender {
	return &EmailSender{
		AppointmentRepo:            apptRepo,
		UserRepo:                   userRepo,
		Mailer:                     mailer,
		FrontendURL:                frontendURL,
		TreatTransportErrorsAsSent: treatErrorsAsSent,
	}
}

func (e *EmailSender) Send(ctx context.Context, n *entity.Notification) error {
	appt, err := e.AppointmentRepo.FindByID(n.AppointmentID)
	if err != nil {
		return fmt.Errorf("failed to fetch appointment %d: %w", n.AppointmentID, err)
	}
	if appt == nil {
		return fmt.Errorf("%w: appointment %d", ErrRecipientMissing, n.AppointmentID)
	}

	user, err := e.UserRepo.FindByID(appt.UserID)
	if err != nil {
		return fmt.Errorf("failed to fetch user %d: %w", appt.UserID, err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %d", ErrRecipientMissing, appt.UserID)
	}

	data := mail.ReminderData{
		UserName:  user.Name,
		Title:     appt.Title,
		StartsAt:  time.UnixMilli(appt.BeginsAt).UTC(),
		EndsAt:    time.UnixMilli(appt.EndsAt).UTC(),
		ManageURL: fmt.Sprintf("%s/appointments/%d", e.FrontendURL, appt.ID),
	}
	if appt.Description != nil {
		data.Description = *appt.Description
	}
	if appt.Location != nil {
		data.Location = *appt.Location
	}
	if appt.Category != nil {
		data.Category = appt.Category.Name
	}

	msg, err := mail.RenderReminder(user.Email, data)
	if err != nil {
		return fmt.Errorf("failed to render reminder: %w", err)
	}

	if err := e.Mailer.Send(ctx, msg); err != nil {
		if e.TreatTransportErrorsAsSent {
			log.Warnf("mail transport failed for notification %d, treating as sent: %v", n.ID, err)
			return nil
		}
		return err
	}
	log.Infof("reminder email for appointment %d sent to user %d", appt.ID, user.ID)
	return nil
}

// BrowserSender has no push transport yet. Browser notifications are
// read by the client from the notification center.
type BrowserSender struct{}

func (BrowserSender) Send(_ context.Context, n *entity.Notification) error {
	log.Infof("browser notification %d ready for user %d", n.ID, n.UserID)
	return nil
}
