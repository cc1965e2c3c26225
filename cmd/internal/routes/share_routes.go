package routes

import (
	"appointease/cmd/internal/service"
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"fmt"
	"github.com/labstack/echo/v4"
	"net/http"
)

type ShareService interface {
	CreateShareForUser(apptID int, req *service.CreateShareRequest, sub string) (*service.ShareResponse, apierror.ErrorResponse)
	ListSharesForUser(apptID int, sub string) ([]*service.ShareResponse, apierror.ErrorResponse)
	RevokeShareForUser(shareID int, sub string) apierror.ErrorResponse
	ViewPublicAppointment(token string) (*service.PublicAppointmentResponse, apierror.ErrorResponse)
	ExportICalendar(token string) (string, []byte, apierror.ErrorResponse)
	GoogleCalendarURL(token string) (string, apierror.ErrorResponse)
}

type DefaultShareRoute struct {
	ShareService ShareService
}

func NewShareDefault(shareService ShareService) *DefaultShareRoute {
	return &DefaultShareRoute{ShareService: shareService}
}

func (s *DefaultShareRoute) CreateShare(c echo.Context) error {
	id, apierr := parseIDParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.CreateShareRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(400, apierror.MalformedBodyError)
		}
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	share, apierr := s.ShareService.CreateShareForUser(id, &req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, share)
}

func (s *DefaultShareRoute) ListShares(c echo.Context) error {
	id, apierr := parseIDParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	shares, apierr := s.ShareService.ListSharesForUser(id, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, echo.Map{"shares": shares})
}

func (s *DefaultShareRoute) RevokeShare(c echo.Context) error {
	id, apierr := parseIDParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	if apierr := s.ShareService.RevokeShareForUser(id, data.Sub); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *DefaultShareRoute) ViewPublic(c echo.Context) error {
	appt, apierr := s.ShareService.ViewPublicAppointment(c.Param("token"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, echo.Map{"appointment": appt})
}

func (s *DefaultShareRoute) DownloadICalendar(c echo.Context) error {
	filename, body, apierr := s.ShareService.ExportICalendar(c.Param("token"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", body)
}

func (s *DefaultShareRoute) GoogleCalendar(c echo.Context) error {
	link, apierr := s.ShareService.GoogleCalendarURL(c.Param("token"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, echo.Map{"google_calendar_url": link})
}
