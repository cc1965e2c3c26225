package service

import "appointease/cmd/internal/domain/entity"

type AppointmentRepository interface {
	Save(appointment *entity.Appointment) error
	FindByID(id int) (*entity.Appointment, error)
	FindByUserID(id int) ([]*entity.Appointment, error)
	FindMonthAppointments(userID int, monthStart, monthEnd int64) ([]*entity.Appointment, error)
	Delete(appointment *entity.Appointment) error
	CompleteEndedBefore(cutoff int64) (int64, error)
}

type UserRepository interface {
	FindByID(id int) (*entity.User, error)
	FindBySub(sub string) (*entity.User, error)
	Save(user *entity.User) error
}

type CategoryRepository interface {
	FindByID(id int) (*entity.Category, error)
	FindByUserID(id int) ([]*entity.Category, error)
	Save(category *entity.Category) error
	Delete(category *entity.Category) error
}

type PreferenceRepository interface {
	GetOrCreate(userID int) (*entity.NotificationPreference, error)
	Save(pref *entity.NotificationPreference) error
}

type NotificationRepository interface {
	FindByID(id int) (*entity.Notification, error)
	Create(notification *entity.Notification) error
	ReplacePending(appointmentID int, notifications []*entity.Notification) error
	FindDue(now int64, limit int) ([]*entity.Notification, error)
	Claim(id int) (bool, error)
	MarkSent(id int, sentAt int64) error
	MarkFailed(id int, message string) error
	FindByUserID(userID int, status entity.NotificationStatus, offset, limit int) ([]*entity.Notification, int64, error)
	CountUnread(userID int) (int64, error)
	MarkRead(userID, id int, at int64) (bool, error)
	MarkAllRead(userID int, at int64) (int64, error)
}

type ShareRepository interface {
	Create(share *entity.AppointmentShare) error
	FindByID(id int) (*entity.AppointmentShare, error)
	FindValidByToken(token string, now int64) (*entity.AppointmentShare, error)
	ExistsByToken(token string) (bool, error)
	IncrementViews(id int) (int64, error)
	Expire(id int, at int64) error
	FindByAppointmentID(appointmentID int) ([]*entity.AppointmentShare, error)
}
