package routes

import (
	"appointease/cmd/internal/service"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"context"
	"github.com/labstack/echo/v4"
	"net/http"
	"strings"
)

type UserService interface {
	GetUser(rawId, subId string) (*service.UserResponse, apierror.ErrorResponse)
	BeginLogin() (*service.LoginURLResponse, apierror.ErrorResponse)
	CompleteLogin(ctx context.Context, req *service.GoogleCallbackRequest) (*service.UserLoginResponse, apierror.ErrorResponse)
}

type DefaultUserRoute struct {
	UserService UserService
}

func NewUserDefault(userService UserService) *DefaultUserRoute {
	return &DefaultUserRoute{UserService: userService}
}

func (u *DefaultUserRoute) GetUser(c echo.Context) error {
	rawId := strings.TrimSpace(c.Param("id"))
	if rawId == "" {
		rawId = "@me"
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	user, apierr := u.UserService.GetUser(rawId, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, user)
}

func (u *DefaultUserRoute) GoogleLogin(c echo.Context) error {
	resp, apierr := u.UserService.BeginLogin()
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (u *DefaultUserRoute) GoogleCallback(c echo.Context) error {
	var req service.GoogleCallbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := u.UserService.CompleteLogin(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
