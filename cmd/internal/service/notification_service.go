package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"github.com/labstack/gommon/log"
)

const (
	recentNotificationsLimit = 20
	defaultHistoryPageSize   = 20
	maxHistoryPageSize       = 100
)

type NotificationResponse struct {
	ID            int                     `json:"id"`
	AppointmentID int                     `json:"appointment_id"`
	Type          string                  `json:"type"`
	Channel       string                  `json:"channel"`
	Status        string                  `json:"status"`
	ScheduledAt   string                  `json:"scheduled_at"`
	SentAt        *string                 `json:"sent_at"`
	ReadAt        *string                 `json:"read_at"`
	Error         *string                 `json:"error,omitempty"`
	Data          entity.NotificationData `json:"data"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int64                   `json:"unread_count"`
}

type NotificationHistoryResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Page          int                     `json:"page"`
	PerPage       int                     `json:"per_page"`
	Total         int64                   `json:"total"`
}

// DefaultNotificationService backs the user's notification center.
type DefaultNotificationService struct {
	NotificationRepo NotificationRepository
	UserRepo         UserRepository
	Clock            utils.Clock
}

func NewNotificationService(notifRepo NotificationRepository, userRepo UserRepository, clock utils.Clock) *DefaultNotificationService {
	return &DefaultNotificationService{NotificationRepo: notifRepo, UserRepo: userRepo, Clock: clock}
}

// GetNotifications lists the most recent delivered notifications.
func (n *DefaultNotificationService) GetNotifications(sub string) (*NotificationListResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(n.UserRepo, sub)
	if apierr != nil {
		return nil, apierr
	}

	notifs, _, err := n.NotificationRepo.FindByUserID(caller.ID, entity.NotificationSent, 0, recentNotificationsLimit)
	if err != nil {
		log.Errorf("failed to fetch notifications of user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	unread, err := n.NotificationRepo.CountUnread(caller.ID)
	if err != nil {
		log.Errorf("failed to count unread notifications of user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	return &NotificationListResponse{
		Notifications: toNotificationResponses(notifs),
		UnreadCount:   unread,
	}, nil
}

// GetHistory pages through every notification of the caller.
func (n *DefaultNotificationService) GetHistory(page, perPage int, sub string) (*NotificationHistoryResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(n.UserRepo, sub)
	if apierr != nil {
		return nil, apierr
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultHistoryPageSize
	}
	perPage = min(perPage, maxHistoryPageSize)

	notifs, total, err := n.NotificationRepo.FindByUserID(caller.ID, "", (page-1)*perPage, perPage)
	if err != nil {
		log.Errorf("failed to fetch notification history of user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	return &NotificationHistoryResponse{
		Notifications: toNotificationResponses(notifs),
		Page:          page,
		PerPage:       perPage,
		Total:         total,
	}, nil
}

func (n *DefaultNotificationService) MarkAsRead(id int, sub string) apierror.ErrorResponse {
	caller, apierr := resolveCaller(n.UserRepo, sub)
	if apierr != nil {
		return apierr
	}

	found, err := n.NotificationRepo.MarkRead(caller.ID, id, n.Clock.NowUTC())
	if err != nil {
		log.Errorf("failed to mark notification %d as read: %v", id, err)
		return apierror.InternalServerError
	}
	if !found {
		return apierror.NotFoundError
	}
	return nil
}

func (n *DefaultNotificationService) MarkAllAsRead(sub string) (int64, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(n.UserRepo, sub)
	if apierr != nil {
		return 0, apierr
	}

	count, err := n.NotificationRepo.MarkAllRead(caller.ID, n.Clock.NowUTC())
	if err != nil {
		log.Errorf("failed to mark notifications of user %d as read: %v", caller.ID, err)
		return 0, apierror.InternalServerError
	}
	return count, nil
}

func toNotificationResponses(notifs []*entity.Notification) []*NotificationResponse {
	resp := make([]*NotificationResponse, len(notifs))
	for i, notif := range notifs {
		resp[i] = &NotificationResponse{
			ID:            notif.ID,
			AppointmentID: notif.AppointmentID,
			Type:          string(notif.Type),
			Channel:       notif.Channel.String(),
			Status:        string(notif.Status),
			ScheduledAt:   utils.FormatEpoch(notif.ScheduledAt),
			SentAt:        utils.FormatEpochPtr(notif.SentAt),
			ReadAt:        utils.FormatEpochPtr(notif.ReadAt),
			Error:         notif.Error,
			Data:          notif.Data.Data(),
		}
	}
	return resp
}
