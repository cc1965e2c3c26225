package repository

import (
	"appointease/cmd/internal/domain/entity"
	"errors"
	"gorm.io/gorm"
)

type DefaultCategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *DefaultCategoryRepository {
	return &DefaultCategoryRepository{db: db}
}

func (c *DefaultCategoryRepository) FindByID(id int) (*entity.Category, error) {
	var category entity.Category
	err := c.db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &category, err
}

func (c *DefaultCategoryRepository) FindByUserID(id int) ([]*entity.Category, error) {
	var categories []*entity.Category
	err := c.db.Where("user_id = ?", id).Order("name asc").Find(&categories).Error
	return categories, err
}

func (c *DefaultCategoryRepository) Save(category *entity.Category) error {
	return c.db.Save(category).Error
}

// Delete removes the category and detaches it from its appointments.
func (c *DefaultCategoryRepository) Delete(category *entity.Category) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Appointment{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Category{}, category.ID).Error
	})
}
