package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

type NotificationPlanner interface {
	GenerateNotifications(appt *entity.Appointment) ([]*entity.Notification, error)
}

type AppointmentRequest struct {
	Title                string   `json:"title" validate:"required,max=255,singleline"`
	Description          *string  `json:"description" validate:"omitnil,max=5000"`
	Location             *string  `json:"location" validate:"omitnil,max=255,singleline"`
	CategoryID           *int     `json:"category_id"`
	BeginsAt             string   `json:"start_time" validate:"required,iso8601"`
	EndsAt               string   `json:"end_time" validate:"required,iso8601"`
	Status               string   `json:"status" validate:"omitempty,apptstatus"`
	NotificationsEnabled *bool    `json:"notifications_enabled"`
	ReminderMinutes      *int     `json:"reminder_minutes" validate:"omitnil,min=1,max=10080"`
	NotificationChannels []string `json:"notification_channels" validate:"omitempty,max=3,dive,channel"`
}

type CategorySummary struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type AppointmentResponse struct {
	ID                   int              `json:"id"`
	Title                string           `json:"title"`
	Description          *string          `json:"description"`
	Location             *string          `json:"location"`
	UserID               int              `json:"user_id"`
	Category             *CategorySummary `json:"category"`
	BeginsAt             string           `json:"start_time"`
	EndsAt               string           `json:"end_time"`
	Status               string           `json:"status"`
	NotificationsEnabled bool             `json:"notifications_enabled"`
	ReminderMinutes      *int             `json:"reminder_minutes"`
	NotificationChannels []string         `json:"notification_channels"`
	CreatedAt            string           `json:"created_at"`
	UpdatedAt            string           `json:"updated_at"`
}

type ScheduledDay struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	BeginsAt string `json:"start_time"`
	EndsAt   string `json:"end_time"`
	Status   string `json:"status"`
}

type CalendarResponse struct {
	ScheduledDays []*ScheduledDay `json:"scheduled_days"`
}

type DefaultAppointmentService struct {
	AppointmentRepo AppointmentRepository
	UserRepo        UserRepository
	CategoryRepo    CategoryRepository
	Planner         NotificationPlanner
	Validate        *validator.Validate
}

func NewAppointmentService(apptRepo AppointmentRepository, userRepo UserRepository, categoryRepo CategoryRepository, planner NotificationPlanner, validate *validator.Validate) *DefaultAppointmentService {
	return &DefaultAppointmentService{
		AppointmentRepo: apptRepo,
		UserRepo:        userRepo,
		CategoryRepo:    categoryRepo,
		Planner:         planner,
		Validate:        validate,
	}
}

func (a *DefaultAppointmentService) GetAppointments(subId string) ([]*AppointmentResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(a.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	appts, err := a.AppointmentRepo.FindByUserID(caller.ID)
	if err != nil {
		log.Errorf("failed to find appointments for user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	response := make([]*AppointmentResponse, len(appts))
	for i, appt := range appts {
		response[i] = toAppointmentResponse(appt)
	}
	return response, nil
}

func (a *DefaultAppointmentService) GetAppointment(id int, subId string) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, apierr := a.ownedAppointment(id, subId)
	if apierr != nil {
		return nil, apierr
	}
	return toAppointmentResponse(appt), nil
}

func (a *DefaultAppointmentService) CreateAppointment(req *AppointmentRequest, subId string) (*AppointmentResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(a.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	appointment := &entity.Appointment{
		UserID:               caller.ID,
		Status:               entity.AppointmentScheduled,
		NotificationsEnabled: true,
	}
	if apierr := a.apply(appointment, req); apierr != nil {
		return nil, apierr
	}

	if err := a.AppointmentRepo.Save(appointment); err != nil {
		log.Errorf("failed to save appointment: %v", err)
		return nil, apierror.InternalServerError
	}
	return a.planAndRespond(appointment)
}

// UpdateAppointment replaces the editable fields of an appointment and
// regenerates its pending reminders.
func (a *DefaultAppointmentService) UpdateAppointment(id int, req *AppointmentRequest, subId string) (*AppointmentResponse, apierror.ErrorResponse) {
	appointment, apierr := a.ownedAppointment(id, subId)
	if apierr != nil {
		return nil, apierr
	}

	if apierr := a.apply(appointment, req); apierr != nil {
		return nil, apierr
	}

	if err := a.AppointmentRepo.Save(appointment); err != nil {
		log.Errorf("failed to update appointment %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	return a.planAndRespond(appointment)
}

func (a *DefaultAppointmentService) DeleteAppointment(id int, issuerSub string) apierror.ErrorResponse {
	appt, apierr := a.ownedAppointment(id, issuerSub)
	if apierr != nil {
		return apierr
	}

	if err := a.AppointmentRepo.Delete(appt); err != nil {
		log.Errorf("failed to delete appointment by id %d: %v", id, err)
		return apierror.InternalServerError
	}
	return nil
}

func (a *DefaultAppointmentService) GetCalendar(monthStart, monthEnd int64, subId string) (*CalendarResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(a.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	appts, err := a.AppointmentRepo.FindMonthAppointments(caller.ID, monthStart, monthEnd)
	if err != nil {
		log.Errorf("failed to fetch appointments of user %d in [%d - %d]: %v", caller.ID, monthStart, monthEnd, err)
		return nil, apierror.InternalServerError
	}

	schedDays := make([]*ScheduledDay, len(appts))
	for i, appt := range appts {
		schedDays[i] = toScheduledDay(appt)
	}
	return &CalendarResponse{ScheduledDays: schedDays}, nil
}

// apply validates req and copies it onto appointment.
func (a *DefaultAppointmentService) apply(appointment *entity.Appointment, req *AppointmentRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return apierror.FromValidationError(valerr)
	}

	begin, err := utils.FromEpoch(req.BeginsAt)
	if err != nil {
		return apierror.MalformedBodyError
	}
	end, err := utils.FromEpoch(req.EndsAt)
	if err != nil {
		return apierror.MalformedBodyError
	}
	if end < begin {
		return apierror.AppointmentEndBeforeStartError
	}

	var category *entity.Category
	if req.CategoryID != nil {
		category, err = a.CategoryRepo.FindByID(*req.CategoryID)
		if err != nil {
			log.Errorf("failed to fetch category %d: %v", *req.CategoryID, err)
			return apierror.InternalServerError
		}
		if category == nil || category.UserID != appointment.UserID {
			return apierror.UnknownCategoryError
		}
	}

	channels := make(datatypes.JSONSlice[entity.Channel], len(req.NotificationChannels))
	for i, raw := range req.NotificationChannels {
		channels[i] = entity.Channel(raw)
	}

	appointment.Title = req.Title
	appointment.Description = req.Description
	appointment.Location = req.Location
	appointment.CategoryID = req.CategoryID
	appointment.Category = category
	appointment.BeginsAt = begin
	appointment.EndsAt = end
	appointment.ReminderMinutes = req.ReminderMinutes
	appointment.NotificationChannels = channels
	if req.Status != "" {
		appointment.Status = entity.AppointmentStatus(req.Status)
	}
	if req.NotificationsEnabled != nil {
		appointment.NotificationsEnabled = *req.NotificationsEnabled
	}
	return nil
}

// planAndRespond regenerates reminders. A generation failure is logged
// and does not undo the stored appointment.
func (a *DefaultAppointmentService) planAndRespond(appointment *entity.Appointment) (*AppointmentResponse, apierror.ErrorResponse) {
	if _, err := a.Planner.GenerateNotifications(appointment); err != nil {
		log.Errorf("failed to generate notifications for appointment %d: %v", appointment.ID, err)
	}
	return toAppointmentResponse(appointment), nil
}

func (a *DefaultAppointmentService) ownedAppointment(id int, subId string) (*entity.Appointment, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(a.UserRepo, subId)
	if apierr != nil {
		return nil, apierr
	}

	appt, err := a.AppointmentRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch appointment by id %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	if appt == nil || appt.UserID != caller.ID {
		return nil, apierror.NotFoundError
	}
	return appt, nil
}

func toScheduledDay(appt *entity.Appointment) *ScheduledDay {
	return &ScheduledDay{
		ID:       appt.ID,
		Title:    appt.Title,
		BeginsAt: utils.FormatEpoch(appt.BeginsAt),
		EndsAt:   utils.FormatEpoch(appt.EndsAt),
		Status:   string(appt.Status),
	}
}

func toAppointmentResponse(appt *entity.Appointment) *AppointmentResponse {
	channels := make([]string, len(appt.NotificationChannels))
	for i, ch := range appt.NotificationChannels {
		channels[i] = ch.String()
	}

	resp := &AppointmentResponse{
		ID:                   appt.ID,
		Title:                appt.Title,
		Description:          appt.Description,
		Location:             appt.Location,
		UserID:               appt.UserID,
		BeginsAt:             utils.FormatEpoch(appt.BeginsAt),
		EndsAt:               utils.FormatEpoch(appt.EndsAt),
		Status:               string(appt.Status),
		NotificationsEnabled: appt.NotificationsEnabled,
		ReminderMinutes:      appt.ReminderMinutes,
		NotificationChannels: channels,
		CreatedAt:            utils.FormatEpoch(appt.CreatedAt),
		UpdatedAt:            utils.FormatEpoch(appt.UpdatedAt),
	}
	if appt.Category != nil {
		resp.Category = &CategorySummary{ID: appt.Category.ID, Name: appt.Category.Name, Color: appt.Category.Color}
	}
	return resp
}
