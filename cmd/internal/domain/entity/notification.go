package entity

import "gorm.io/datatypes"

type NotificationStatus string

const (
	NotificationPending    NotificationStatus = "pending"
	NotificationProcessing NotificationStatus = "processing"
	NotificationSent       NotificationStatus = "sent"
	NotificationFailed     NotificationStatus = "failed"
)

type NotificationType string

const (
	NotificationReminder     NotificationType = "reminder"
	NotificationStartingSoon NotificationType = "starting_soon"
)

// NotificationData is the appointment snapshot taken when the
// notification is generated.
type NotificationData struct {
	Title          string `json:"title"`
	StartTime      string `json:"start_time"`
	Location       string `json:"location,omitempty"`
	IsStartingSoon bool   `json:"is_starting_soon"`
}

type Notification struct {
	ID            int                `gorm:"primaryKey"`
	UserID        int                `gorm:"not null;index"`
	AppointmentID int                `gorm:"not null;index"`
	Type          NotificationType   `gorm:"not null;size:32"`
	Channel       Channel            `gorm:"not null;size:16"`
	Status        NotificationStatus `gorm:"not null;size:16;index:idx_notifications_status_scheduled,priority:1"`
	ScheduledAt   int64              `gorm:"not null;index:idx_notifications_status_scheduled,priority:2"`
	SentAt        *int64
	ReadAt        *int64
	Error         *string `gorm:"type:text"`
	Attempt       int     `gorm:"not null"`
	Data          datatypes.JSONType[NotificationData]
	CreatedAt     int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt     int64 `gorm:"not null;autoUpdateTime:milli"`
}
