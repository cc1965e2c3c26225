package repository

import (
	"appointease/cmd/internal/domain/entity"
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultShareRepository struct {
	db *gorm.DB
}

func NewShareRepository(db *gorm.DB) *DefaultShareRepository {
	return &DefaultShareRepository{db: db}
}

func (s *DefaultShareRepository) Create(share *entity.AppointmentShare) error {
	return s.db.Omit(clause.Associations).Create(share).Error
}

func (s *DefaultShareRepository) FindByID(id int) (*entity.AppointmentShare, error) {
	var share entity.AppointmentShare
	err := s.db.First(&share, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &share, err
}

// FindValidByToken matches the token exactly and only returns shares that
// never expire or expire after now.
func (s *DefaultShareRepository) FindValidByToken(token string, now int64) (*entity.AppointmentShare, error) {
	var share entity.AppointmentShare
	err := s.db.Where("token = ?", token).
		Where("expires_at IS NULL OR expires_at > ?", now).
		First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &share, err
}

func (s *DefaultShareRepository) ExistsByToken(token string) (bool, error) {
	var count int64
	err := s.db.Model(&entity.AppointmentShare{}).Where("token = ?", token).Count(&count).Error
	return count > 0, err
}

// IncrementViews bumps the counter in SQL so concurrent views never lose updates.
func (s *DefaultShareRepository) IncrementViews(id int) (int64, error) {
	err := s.db.Model(&entity.AppointmentShare{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return 0, err
	}

	var views int64
	err = s.db.Model(&entity.AppointmentShare{}).Select("views").Where("id = ?", id).Scan(&views).Error
	return views, err
}

func (s *DefaultShareRepository) Expire(id int, at int64) error {
	return s.db.Model(&entity.AppointmentShare{}).
		Where("id = ?", id).
		Update("expires_at", at).Error
}

func (s *DefaultShareRepository) FindByAppointmentID(appointmentID int) ([]*entity.AppointmentShare, error) {
	var shares []*entity.AppointmentShare
	err := s.db.Where("appointment_id = ?", appointmentID).Order("id desc").Find(&shares).Error
	return shares, err
}
