package routes

import (
	"appointease/cmd/internal/service"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
	"net/http"
	"strconv"
)

type NotificationService interface {
	GetNotifications(sub string) (*service.NotificationListResponse, apierror.ErrorResponse)
	GetHistory(page, perPage int, sub string) (*service.NotificationHistoryResponse, apierror.ErrorResponse)
	MarkAsRead(id int, sub string) apierror.ErrorResponse
	MarkAllAsRead(sub string) (int64, apierror.ErrorResponse)
}

type PreferenceService interface {
	GetPreferences(sub string) (*service.PreferenceResponse, apierror.ErrorResponse)
	UpdatePreferences(req *service.UpdatePreferenceRequest, sub string) (*service.PreferenceResponse, apierror.ErrorResponse)
}

type DefaultNotificationRoute struct {
	NotificationService NotificationService
	PreferenceService   PreferenceService
}

func NewNotificationDefault(notifService NotificationService, prefService PreferenceService) *DefaultNotificationRoute {
	return &DefaultNotificationRoute{NotificationService: notifService, PreferenceService: prefService}
}

func (n *DefaultNotificationRoute) GetNotifications(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	resp, apierr := n.NotificationService.GetNotifications(data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (n *DefaultNotificationRoute) GetHistory(c echo.Context) error {
	page, apierr := optionalIntQuery(c, "page")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	perPage, apierr := optionalIntQuery(c, "per_page")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	resp, apierr := n.NotificationService.GetHistory(page, perPage, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (n *DefaultNotificationRoute) MarkAsRead(c echo.Context) error {
	id, apierr := parseIDParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	if apierr := n.NotificationService.MarkAsRead(id, data.Sub); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (n *DefaultNotificationRoute) MarkAllAsRead(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	count, apierr := n.NotificationService.MarkAllAsRead(data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": count})
}

func (n *DefaultNotificationRoute) GetPreferences(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	pref, apierr := n.PreferenceService.GetPreferences(data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, pref)
}

func (n *DefaultNotificationRoute) UpdatePreferences(c echo.Context) error {
	var req service.UpdatePreferenceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	pref, apierr := n.PreferenceService.UpdatePreferences(&req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, pref)
}

func optionalIntQuery(c echo.Context, name string) (int, apierror.ErrorResponse) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.NewInvalidParamTypeError(name, "int32")
	}
	return v, nil
}
