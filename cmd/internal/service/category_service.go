package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type CategoryRequest struct {
	Name  string  `json:"name" validate:"required,max=64,singleline"`
	Color *string `json:"color" validate:"omitnil,hexcolor"`
}

type CategoryResponse struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Color     *string `json:"color"`
	CreatedAt string  `json:"created_at"`
}

type DefaultCategoryService struct {
	CategoryRepo CategoryRepository
	UserRepo     UserRepository
	Validate     *validator.Validate
}

func NewCategoryService(categoryRepo CategoryRepository, userRepo UserRepository, validate *validator.Validate) *DefaultCategoryService {
	return &DefaultCategoryService{CategoryRepo: categoryRepo, UserRepo: userRepo, Validate: validate}
}

func (s *DefaultCategoryService) GetCategories(sub string) ([]*CategoryResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, sub)
	if apierr != nil {
		return nil, apierr
	}

	categories, err := s.CategoryRepo.FindByUserID(caller.ID)
	if err != nil {
		log.Errorf("failed to fetch categories of user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*CategoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = toCategoryResponse(c)
	}
	return resp, nil
}

func (s *DefaultCategoryService) CreateCategory(req *CategoryRequest, sub string) (*CategoryResponse, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, sub)
	if apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	category := &entity.Category{UserID: caller.ID, Name: req.Name, Color: req.Color}
	if err := s.CategoryRepo.Save(category); err != nil {
		log.Errorf("failed to save category: %v", err)
		return nil, apierror.InternalServerError
	}
	return toCategoryResponse(category), nil
}

func (s *DefaultCategoryService) UpdateCategory(id int, req *CategoryRequest, sub string) (*CategoryResponse, apierror.ErrorResponse) {
	category, apierr := s.ownedCategory(id, sub)
	if apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if err := s.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	category.Name = req.Name
	category.Color = req.Color
	if err := s.CategoryRepo.Save(category); err != nil {
		log.Errorf("failed to update category %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	return toCategoryResponse(category), nil
}

func (s *DefaultCategoryService) DeleteCategory(id int, sub string) apierror.ErrorResponse {
	category, apierr := s.ownedCategory(id, sub)
	if apierr != nil {
		return apierr
	}

	if err := s.CategoryRepo.Delete(category); err != nil {
		log.Errorf("failed to delete category %d: %v", id, err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *DefaultCategoryService) ownedCategory(id int, sub string) (*entity.Category, apierror.ErrorResponse) {
	caller, apierr := resolveCaller(s.UserRepo, sub)
	if apierr != nil {
		return nil, apierr
	}

	category, err := s.CategoryRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch category %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if category == nil || category.UserID != caller.ID {
		return nil, apierror.NotFoundError
	}
	return category, nil
}

func toCategoryResponse(c *entity.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		CreatedAt: utils.FormatEpoch(c.CreatedAt),
	}
}
