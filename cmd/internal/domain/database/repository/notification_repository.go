package repository

import (
	"appointease/cmd/internal/domain/entity"
	"errors"
	"gorm.io/gorm"
)

type DefaultNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *DefaultNotificationRepository {
	return &DefaultNotificationRepository{db: db}
}

func (n *DefaultNotificationRepository) FindByID(id int) (*entity.Notification, error) {
	var notification entity.Notification
	err := n.db.First(&notification, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &notification, err
}

func (n *DefaultNotificationRepository) Create(notification *entity.Notification) error {
	return n.db.Create(notification).Error
}

// ReplacePending deletes every pending notification of the appointment and
// inserts the given ones in the same transaction. Rows that already left
// the pending state are kept.
func (n *DefaultNotificationRepository) ReplacePending(appointmentID int, notifications []*entity.Notification) error {
	return n.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("appointment_id = ? AND status = ?", appointmentID, entity.NotificationPending).
			Delete(&entity.Notification{}).Error
		if err != nil {
			return err
		}
		if len(notifications) == 0 {
			return nil
		}
		return tx.Create(notifications).Error
	})
}

func (n *DefaultNotificationRepository) FindPendingByAppointment(appointmentID int) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	err := n.db.Where("appointment_id = ? AND status = ?", appointmentID, entity.NotificationPending).
		Order("id asc").
		Find(&notifications).Error
	return notifications, err
}

// FindDue returns pending notifications scheduled at or before now,
// oldest first.
func (n *DefaultNotificationRepository) FindDue(now int64, limit int) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	q := n.db.Where("status = ? AND scheduled_at <= ?", entity.NotificationPending, now).
		Order("scheduled_at asc").
		Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&notifications).Error
	return notifications, err
}

// Claim atomically moves a notification from pending to processing.
// It reports false when another caller already claimed it.
func (n *DefaultNotificationRepository) Claim(id int) (bool, error) {
	res := n.db.Model(&entity.Notification{}).
		Where("id = ? AND status = ?", id, entity.NotificationPending).
		Update("status", entity.NotificationProcessing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (n *DefaultNotificationRepository) MarkSent(id int, sentAt int64) error {
	return n.finish(id, map[string]interface{}{
		"status":  entity.NotificationSent,
		"sent_at": sentAt,
		"error":   nil,
	})
}

func (n *DefaultNotificationRepository) MarkFailed(id int, message string) error {
	return n.finish(id, map[string]interface{}{
		"status": entity.NotificationFailed,
		"error":  message,
	})
}

// FindByUserID pages through a user's notifications, newest first.
// An empty status matches every status.
func (n *DefaultNotificationRepository) FindByUserID(userID int, status entity.NotificationStatus, offset, limit int) ([]*entity.Notification, int64, error) {
	scope := func() *gorm.DB {
		q := n.db.Model(&entity.Notification{}).Where("user_id = ?", userID)
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []*entity.Notification
	err := scope().Order("created_at desc").Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

func (n *DefaultNotificationRepository) CountUnread(userID int) (int64, error) {
	var count int64
	err := n.db.Model(&entity.Notification{}).
		Where("user_id = ? AND status = ? AND read_at IS NULL", userID, entity.NotificationSent).
		Count(&count).Error
	return count, err
}

func (n *DefaultNotificationRepository) MarkRead(userID, id int, at int64) (bool, error) {
	res := n.db.Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Where("read_at IS NULL").
		Update("read_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	// Already read counts as found.
	existing, err := n.FindByID(id)
	if err != nil {
		return false, err
	}
	return existing != nil && existing.UserID == userID, nil
}

func (n *DefaultNotificationRepository) MarkAllRead(userID int, at int64) (int64, error) {
	res := n.db.Model(&entity.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

// finish applies a terminal transition. Only processing rows may finish,
// so sent and failed rows never change again.
func (n *DefaultNotificationRepository) finish(id int, updates map[string]interface{}) error {
	res := n.db.Model(&entity.Notification{}).
		Where("id = ? AND status = ?", id, entity.NotificationProcessing).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotProcessing
	}
	return nil
}
