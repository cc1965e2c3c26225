package entity

import "gorm.io/datatypes"

const DefaultReminderMinutes = 30

type NotificationPreference struct {
	ID                     int  `gorm:"primaryKey"`
	UserID                 int  `gorm:"not null;uniqueIndex"` // References: users(id)
	EmailEnabled           bool `gorm:"not null"`
	BrowserEnabled         bool `gorm:"not null"`
	SMSEnabled             bool `gorm:"not null"`
	DefaultReminderMinutes int  `gorm:"not null"`
	Settings               datatypes.JSON
	CreatedAt              int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt              int64 `gorm:"not null;autoUpdateTime:milli"`
}

func DefaultNotificationPreference(userID int) *NotificationPreference {
	return &NotificationPreference{
		UserID:                 userID,
		EmailEnabled:           true,
		BrowserEnabled:         true,
		SMSEnabled:             false,
		DefaultReminderMinutes: DefaultReminderMinutes,
	}
}

// ReminderChannels lists the channels reminders fan out to, in fixed
// order. SMS is stored but never used for reminders.
func (p *NotificationPreference) ReminderChannels() []Channel {
	var channels []Channel
	if p.EmailEnabled {
		channels = append(channels, ChannelEmail)
	}
	if p.BrowserEnabled {
		channels = append(channels, ChannelBrowser)
	}
	return channels
}
