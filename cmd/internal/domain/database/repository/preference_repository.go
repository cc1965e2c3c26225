package repository

import (
	"appointease/cmd/internal/domain/entity"
	"errors"
	"gorm.io/gorm"
)

type DefaultPreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *DefaultPreferenceRepository {
	return &DefaultPreferenceRepository{db: db}
}

// GetOrCreate returns the user's preference row, inserting the defaults
// when none exists yet.
func (p *DefaultPreferenceRepository) GetOrCreate(userID int) (*entity.NotificationPreference, error) {
	pref, err := p.findByUserID(userID)
	if err != nil || pref != nil {
		return pref, err
	}

	pref = entity.DefaultNotificationPreference(userID)
	if err := p.db.Create(pref).Error; err != nil {
		// A concurrent request may have won the unique(user_id) race.
		existing, findErr := p.findByUserID(userID)
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return pref, nil
}

func (p *DefaultPreferenceRepository) Save(pref *entity.NotificationPreference) error {
	return p.db.Save(pref).Error
}

func (p *DefaultPreferenceRepository) findByUserID(userID int) (*entity.NotificationPreference, error) {
	var pref entity.NotificationPreference
	err := p.db.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}
