package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/metrics"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"crypto/rand"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"time"
)

const (
	ShareTokenLength   = 32
	maxTokenAttempts   = 8
	shareTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	ErrShareNotFound  = errors.New("share not found")
	ErrTokenExhausted = errors.New("could not generate a unique share token")
)

type CreateShareRequest struct {
	ExpiresInDays *int `json:"expires_in_days" validate:"omitnil,min=0,max=3650"`
}

type ShareResponse struct {
	ID            int     `json:"id"`
	AppointmentID int     `json:"appointment_id"`
	Token         string  `json:"token"`
	URL           string  `json:"share_url"`
	ExpiresAt     *string `json:"expires_at"`
	Active        bool    `json:"active"`
	Views         int64   `json:"views"`
	CreatedAt     string  `json:"created_at"`
}

type PublicAppointmentResponse struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	Category    *string `json:"category,omitempty"`
	BeginsAt    string  `json:"start_time"`
	EndsAt      string  `json:"end_time"`
	Status      string  `json:"status"`
	OwnerName   string  `json:"owner_name"`
	Views       int64   `json:"views"`
}

type DefaultShareService struct {
	ShareRepo         ShareRepository
	AppointmentRepo   AppointmentRepository
	UserRepo          UserRepository
	Validate          *validator.Validate
	Clock             utils.Clock
	Metrics           *metrics.Metrics
	FrontendURL       string
	DefaultExpiryDays int

	// NewToken produces candidate share tokens.
	NewToken func() (string, error)
}

func NewShareService(shareRepo ShareRepository, apptRepo AppointmentRepository, userRepo UserRepository, validate *validator.Validate, clock utils.Clock, m *metrics.Metrics, frontendURL string, defaultExpiryDays int) *DefaultShareService {
	return &DefaultShareService{
		ShareRepo:         shareRepo,
		AppointmentRepo:   apptRepo,
		UserRepo:          userRepo,
		Validate:          validate,
		Clock:             clock,
		Metrics:           m,
		FrontendURL:       frontendURL,
		DefaultExpiryDays: defaultExpiryDays,
		NewToken:          GenerateShareToken,
	}
}

// GenerateShareToken returns a random alphanumeric token read from
// crypto/rand. Bytes outside the largest multiple of the alphabet size
// are rejected so every symbol is equally likely.
func GenerateShareToken() (string, error) {
	const limit = 256 - 256%len(shareTokenAlphabet)

	out := make([]byte, 0, ShareTokenLength)
	buf := make([]byte, ShareTokenLength)
	for len(out) < ShareTokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, shareTokenAlphabet[int(b)%len(shareTokenAlphabet)])
			if len(out) == ShareTokenLength {
				break
			}
		}
	}
	return string(out), nil
}

// CreateShare issues a share for appt. A nil expiresInDays yields a
// share that never expires.
func (s *DefaultShareService) CreateShare(appt *entity.Appointment, expiresInDays *int) (*entity.AppointmentShare, error) {
	token, err := s.uniqueToken()
	if err != nil {
		return nil, err
	}

	share := &entity.AppointmentShare{
		AppointmentID: appt.ID,
		Token:         token,
	}
	if expiresInDays != nil {
		expiresAt := s.Clock.NowUTC() + (time.Duration(*expiresInDays) * 24 * time.Hour).Milliseconds()
		share.ExpiresAt = &expiresAt
	}

	if err := s.ShareRepo.Create(share); err != nil {
		return nil, fmt.Errorf("failed to store share of appointment %d: %w", appt.ID, err)
	}
	return share, nil
}

func (s *DefaultShareService) uniqueToken() (string, error) {
	for range maxTokenAttempts {
		token, err := s.NewToken()
		if err != nil {
			return "", fmt.Errorf("failed to generate share token: %w", err)
		}
		exists, err := s.ShareRepo.ExistsByToken(token)
		if err != nil {
			return "", fmt.Errorf("failed to check share token: %w", err)
		}
		if !exists {
			return token, nil
		}
		log.Warnf("share token collision, regenerating")
	}
	return "", ErrTokenExhausted
}

// FindValidShareByToken returns ErrShareNotFound both for unknown and
// for expired tokens.
func (s *DefaultShareService) FindValidShareByToken(token string) (*entity.AppointmentShare, error) {
	if token == "" {
		return nil, ErrShareNotFound
	}
	share, err := s.ShareRepo.FindValidByToken(token, s.Clock.NowUTC())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch share: %w", err)
	}
	if share == nil {
		return nil, ErrShareNotFound
	}
	return share, nil
}

func (s *DefaultShareService) TrackView(share *entity.AppointmentShare) (int64, error) {
	views, err := s.ShareRepo.IncrementViews(share.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to track view of share %d: %w", share.ID, err)
	}
	share.Views = views
	s.Metrics.ShareViews.Inc()
	return views, nil
}

func (s *DefaultShareService) RevokeShare(share *entity.AppointmentShare) error {
	now := s.Clock.NowUTC()
	if err := s.ShareRepo.Expire(share.ID, now); err != nil {
		return fmt.Errorf("failed to revoke share %d: %w", share.ID, err)
	}
	share.ExpiresAt = &now
	return nil
}

// CreateShareForUser creates a share of one of the caller's own
// appointments. An absent expiry falls back to the configured default
// and zero days means the link never expires.
func (s *DefaultShareService) CreateShareForUser(apptID int, req *CreateShareRequest, sub string) (*ShareResponse, apierror.ErrorResponse) {
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	appt, apierr := s.ownedAppointment(apptID, sub)
	if apierr != nil {
		return nil, apierr
	}

	days := req.ExpiresInDays
	if days == nil {
		def := s.DefaultExpiryDays
		days = &def
	}
	if *days == 0 {
		days = nil
	}

	share, err := s.CreateShare(appt, days)
	if err != nil {
		log.Errorf("failed to create share for appointment %d: %v", apptID, err)
		return nil, apierror.InternalServerError
	}
	return s.toShareResponse(share), nil
}

// ListSharesForUser lists every share of one of the caller's
// appointments, revoked ones included.
func (s *DefaultShareService) ListSharesForUser(apptID int, sub string) ([]*ShareResponse, apierror.ErrorResponse) {
	if _, apierr := s.ownedAppointment(apptID, sub); apierr != nil {
		return nil, apierr
	}

	shares, err := s.ShareRepo.FindByAppointmentID(apptID)
	if err != nil {
		log.Errorf("failed to fetch shares of appointment %d: %v", apptID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*ShareResponse, len(shares))
	for i, share := range shares {
		resp[i] = s.toShareResponse(share)
	}
	return resp, nil
}

// RevokeShareForUser expires a share of one of the caller's appointments.
func (s *DefaultShareService) RevokeShareForUser(shareID int, sub string) apierror.ErrorResponse {
	share, err := s.ShareRepo.FindByID(shareID)
	if err != nil {
		log.Errorf("failed to fetch share %d: %v", shareID, err)
		return apierror.InternalServerError
	}
	if share == nil {
		return apierror.NotFoundError
	}

	if _, apierr := s.ownedAppointment(share.AppointmentID, sub); apierr != nil {
		return apierr
	}

	if err := s.RevokeShare(share); err != nil {
		log.Errorf("%v", err)
		return apierror.InternalServerError
	}
	return nil
}

// ViewPublicAppointment resolves a public token and counts the view.
func (s *DefaultShareService) ViewPublicAppointment(token string) (*PublicAppointmentResponse, apierror.ErrorResponse) {
	share, appt, apierr := s.sharedAppointment(token)
	if apierr != nil {
		return nil, apierr
	}

	if _, err := s.TrackView(share); err != nil {
		log.Errorf("%v", err)
	}

	resp := &PublicAppointmentResponse{
		Title:       appt.Title,
		Description: appt.Description,
		Location:    appt.Location,
		BeginsAt:    utils.FormatEpoch(appt.BeginsAt),
		EndsAt:      utils.FormatEpoch(appt.EndsAt),
		Status:      string(appt.Status),
		Views:       share.Views,
	}
	if appt.Category != nil {
		resp.Category = &appt.Category.Name
	}

	owner, err := s.UserRepo.FindByID(appt.UserID)
	if err != nil {
		log.Errorf("failed to fetch owner of appointment %d: %v", appt.ID, err)
	} else if owner != nil {
		resp.OwnerName = owner.Name
	}
	return resp, nil
}

// ExportICalendar renders the shared appointment as an .ics file.
func (s *DefaultShareService) ExportICalendar(token string) (string, []byte, apierror.ErrorResponse) {
	_, appt, apierr := s.sharedAppointment(token)
	if apierr != nil {
		return "", nil, apierr
	}
	return ICalendarFilename(appt), GenerateICalendar(appt, s.Clock.NowUTC()), nil
}

func (s *DefaultShareService) GoogleCalendarURL(token string) (string, apierror.ErrorResponse) {
	_, appt, apierr := s.sharedAppointment(token)
	if apierr != nil {
		return "", apierr
	}
	return GenerateGoogleCalendarURL(appt), nil
}

func (s *DefaultShareService) sharedAppointment(token string) (*entity.AppointmentShare, *entity.Appointment, apierror.ErrorResponse) {
	share, err := s.FindValidShareByToken(token)
	if errors.Is(err, ErrShareNotFound) {
		return nil, nil, apierror.InvalidShareError
	}
	if err != nil {
		log.Errorf("%v", err)
		return nil, nil, apierror.InternalServerError
	}

	appt, err := s.AppointmentRepo.FindByID(share.AppointmentID)
	if err != nil {
		log.Errorf("failed to fetch shared appointment %d: %v", share.AppointmentID, err)
		return nil, nil, apierror.InternalServerError
	}
	if appt == nil {
		return nil, nil, apierror.InvalidShareError
	}
	return share, appt, nil
}

func (s *DefaultShareService) ownedAppointment(apptID int, sub string) (*entity.Appointment, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, sub)
	if apierr != nil {
		return nil, apierr
	}

	appt, err := s.AppointmentRepo.FindByID(apptID)
	if err != nil {
		log.Errorf("failed to fetch appointment by id %d: %v", apptID, err)
		return nil, apierror.InternalServerError
	}
	if appt == nil {
		return nil, apierror.NotFoundError
	}
	if appt.UserID != caller.ID {
		return nil, apierror.ForbiddenError
	}
	return appt, nil
}

func (s *DefaultShareService) toShareResponse(share *entity.AppointmentShare) *ShareResponse {
	return &ShareResponse{
		ID:            share.ID,
		AppointmentID: share.AppointmentID,
		Token:         share.Token,
		URL:           fmt.Sprintf("%s/appointments/share/%s", s.FrontendURL, share.Token),
		ExpiresAt:     utils.FormatEpochPtr(share.ExpiresAt),
		Active:        share.IsValidAt(s.Clock.NowUTC()),
		Views:         share.Views,
		CreatedAt:     utils.FormatEpoch(share.CreatedAt),
	}
}
