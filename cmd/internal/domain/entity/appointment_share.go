package entity

type AppointmentShare struct {
	ID            int    `gorm:"primaryKey"`
	AppointmentID int    `gorm:"not null;index"` // References: appointments(id)
	Token         string `gorm:"not null;size:64;uniqueIndex"`
	ExpiresAt     *int64 `gorm:"index"` // nil never expires
	Views         int64  `gorm:"not null"`
	CreatedAt     int64  `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt     int64  `gorm:"not null;autoUpdateTime:milli"`

	// Relations
	Appointment Appointment `gorm:"foreignKey:AppointmentID;references:ID"`
}

// IsValidAt reports whether the share still grants access at now.
func (s *AppointmentShare) IsValidAt(now int64) bool {
	return s.ExpiresAt == nil || *s.ExpiresAt > now
}
