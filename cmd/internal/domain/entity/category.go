package entity

type Category struct {
	ID        int    `gorm:"primaryKey"`
	UserID    int    `gorm:"not null;index"` // References: users(id)
	Name      string `gorm:"not null"`
	Color     *string
	CreatedAt int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:milli"`
}
