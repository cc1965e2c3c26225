package repository

import (
	"appointease/cmd/internal/domain/entity"
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultAppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{db: db}
}

func (a *DefaultAppointmentRepository) FindByID(id int) (*entity.Appointment, error) {
	var appt entity.Appointment
	err := a.db.Preload("Category").First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &appt, err
}

func (a *DefaultAppointmentRepository) FindByUserID(id int) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := a.db.Preload("Category").
		Where("user_id = ?", id).
		Order("begins_at asc").
		Find(&appts).Error
	return appts, err
}

// FindMonthAppointments returns the user's appointments overlapping
// [monthStart, monthEnd).
func (a *DefaultAppointmentRepository) FindMonthAppointments(userID int, monthStart, monthEnd int64) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := a.db.Where("user_id = ?", userID).
		Where("begins_at < ? AND ends_at >= ?", monthEnd, monthStart).
		Order("begins_at asc").
		Find(&appts).Error
	return appts, err
}

func (a *DefaultAppointmentRepository) Save(appointment *entity.Appointment) error {
	return a.db.Omit(clause.Associations).Save(appointment).Error
}

// Delete removes the appointment together with its notifications and shares.
func (a *DefaultAppointmentRepository) Delete(appointment *entity.Appointment) error {
	return a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("appointment_id = ?", appointment.ID).Delete(&entity.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("appointment_id = ?", appointment.ID).Delete(&entity.AppointmentShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Appointment{}, appointment.ID).Error
	})
}

// CompleteEndedBefore marks every scheduled or confirmed appointment that
// ended before cutoff as completed and reports how many rows changed.
func (a *DefaultAppointmentRepository) CompleteEndedBefore(cutoff int64) (int64, error) {
	res := a.db.Model(&entity.Appointment{}).
		Where("status IN ?", []entity.AppointmentStatus{entity.AppointmentScheduled, entity.AppointmentConfirmed}).
		Where("ends_at < ?", cutoff).
		Update("status", entity.AppointmentCompleted)
	return res.RowsAffected, res.Error
}
