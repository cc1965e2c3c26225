package entity

type User struct {
	ID        int    `gorm:"primaryKey"`
	SubUUID   string `gorm:"not null;uniqueIndex"` // Google account subject
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null;index"`
	AvatarURL *string
	CreatedAt int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:milli"`
}
