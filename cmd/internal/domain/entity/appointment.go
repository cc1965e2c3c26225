package entity

import (
	"fmt"
	"gorm.io/datatypes"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(s); st {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

type Appointment struct {
	ID                   int               `gorm:"primaryKey"`
	Title                string            `gorm:"not null"`
	Description          *string
	Location             *string
	UserID               int               `gorm:"not null;index"` // References: users(id)
	CategoryID           *int              `gorm:"index"`          // References: categories(id)
	BeginsAt             int64             `gorm:"not null"`
	EndsAt               int64             `gorm:"not null"`
	Status               AppointmentStatus `gorm:"not null;size:16"`
	NotificationsEnabled bool              `gorm:"not null"`
	ReminderMinutes      *int
	NotificationChannels datatypes.JSONSlice[Channel]
	CreatedAt            int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt            int64 `gorm:"not null;autoUpdateTime:milli"`

	// Relations
	CreatedBy User      `gorm:"foreignKey:UserID;references:ID"`
	Category  *Category `gorm:"foreignKey:CategoryID;references:ID"`
}

// ChannelOverride returns the per-appointment channel list, validated.
// An empty result means "use the owner's preferences".
func (a *Appointment) ChannelOverride() ([]Channel, error) {
	if len(a.NotificationChannels) == 0 {
		return nil, nil
	}
	out := make([]Channel, 0, len(a.NotificationChannels))
	seen := make(map[Channel]bool, len(a.NotificationChannels))
	for _, raw := range a.NotificationChannels {
		ch, err := ParseChannel(string(raw))
		if err != nil {
			return nil, err
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out, nil
}
