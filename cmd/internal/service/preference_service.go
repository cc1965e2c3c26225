package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"encoding/json"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

type UpdatePreferenceRequest struct {
	EmailEnabled           *bool           `json:"email_enabled"`
	BrowserEnabled         *bool           `json:"browser_enabled"`
	SMSEnabled             *bool           `json:"sms_enabled"`
	DefaultReminderMinutes *int            `json:"default_reminder_minutes" validate:"omitnil,min=1,max=10080"`
	Settings               json.RawMessage `json:"notification_settings"`
}

type PreferenceResponse struct {
	EmailEnabled           bool            `json:"email_enabled"`
	BrowserEnabled         bool            `json:"browser_enabled"`
	SMSEnabled             bool            `json:"sms_enabled"`
	DefaultReminderMinutes int             `json:"default_reminder_minutes"`
	Settings               json.RawMessage `json:"notification_settings,omitempty"`
	UpdatedAt              string          `json:"updated_at"`
}

type DefaultPreferenceService struct {
	PreferenceRepo PreferenceRepository
	UserRepo       UserRepository
	Validate       *validator.Validate
}

func NewPreferenceService(prefRepo PreferenceRepository, userRepo UserRepository, validate *validator.Validate) *DefaultPreferenceService {
	return &DefaultPreferenceService{PreferenceRepo: prefRepo, UserRepo: userRepo, Validate: validate}
}

func (p *DefaultPreferenceService) GetPreferences(sub string) (*PreferenceResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(p.UserRepo, sub)
	if apierr != nil {
		return nil, apierr
	}

	pref, err := p.PreferenceRepo.GetOrCreate(caller.ID)
	if err != nil {
		log.Errorf("failed to load preferences of user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}
	return toPreferenceResponse(pref), nil
}

// UpdatePreferences applies only the fields present in the request.
func (p *DefaultPreferenceService) UpdatePreferences(req *UpdatePreferenceRequest, sub string) (*PreferenceResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(p.UserRepo, sub)
	if apierr != nil {
		return nil, apierr
	}

	if err := p.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	if len(req.Settings) > 0 && !json.Valid(req.Settings) {
		return nil, apierror.MalformedBodyError
	}

	pref, err := p.PreferenceRepo.GetOrCreate(caller.ID)
	if err != nil {
		log.Errorf("failed to load preferences of user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	if req.EmailEnabled != nil {
		pref.EmailEnabled = *req.EmailEnabled
	}
	if req.BrowserEnabled != nil {
		pref.BrowserEnabled = *req.BrowserEnabled
	}
	if req.SMSEnabled != nil {
		pref.SMSEnabled = *req.SMSEnabled
	}
	if req.DefaultReminderMinutes != nil {
		pref.DefaultReminderMinutes = *req.DefaultReminderMinutes
	}
	if len(req.Settings) > 0 {
		pref.Settings = datatypes.JSON(req.Settings)
	}

	if err := p.PreferenceRepo.Save(pref); err != nil {
		log.Errorf("failed to save preferences of user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}
	return toPreferenceResponse(pref), nil
}

func toPreferenceResponse(pref *entity.NotificationPreference) *PreferenceResponse {
	resp := &PreferenceResponse{
		EmailEnabled:           pref.EmailEnabled,
		BrowserEnabled:         pref.BrowserEnabled,
		SMSEnabled:             pref.SMSEnabled,
		DefaultReminderMinutes: pref.DefaultReminderMinutes,
		UpdatedAt:              utils.FormatEpoch(pref.UpdatedAt),
	}
	if len(pref.Settings) > 0 {
		resp.Settings = json.RawMessage(pref.Settings)
	}
	return resp
}
