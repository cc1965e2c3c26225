package routes

import (
	"appointease/cmd/internal/service"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
	"net/http"
)

type CategoryService interface {
	GetCategories(sub string) ([]*service.CategoryResponse, apierror.ErrorResponse)
	CreateCategory(req *service.CategoryRequest, sub string) (*service.CategoryResponse, apierror.ErrorResponse)
	UpdateCategory(id int, req *service.CategoryRequest, sub string) (*service.CategoryResponse, apierror.ErrorResponse)
	DeleteCategory(id int, sub string) apierror.ErrorResponse
}

type DefaultCategoryRoute struct {
	CategoryService CategoryService
}

func NewCategoryDefault(categoryService CategoryService) *DefaultCategoryRoute {
	return &DefaultCategoryRoute{CategoryService: categoryService}
}

func (r *DefaultCategoryRoute) GetCategories(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	categories, apierr := r.CategoryService.GetCategories(data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": categories})
}

func (r *DefaultCategoryRoute) CreateCategory(c echo.Context) error {
	var req service.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	category, apierr := r.CategoryService.CreateCategory(&req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, category)
}

func (r *DefaultCategoryRoute) UpdateCategory(c echo.Context) error {
	id, apierr := parseIDParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	category, apierr := r.CategoryService.UpdateCategory(id, &req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, category)
}

func (r *DefaultCategoryRoute) DeleteCategory(c echo.Context) error {
	id, apierr := parseIDParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	if apierr := r.CategoryService.DeleteCategory(id, data.Sub); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
