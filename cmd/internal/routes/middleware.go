package routes

import (
	"appointease/cmd/internal/utils"
	"appointease/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
	"net/http"
	"strconv"
	"strings"
)

type Authenticator interface {
	Authenticate(raw string) (*utils.TokenData, error)
}

// RequireAuth rejects requests without a valid bearer session token
// and stores the token data on the context.
func RequireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
			}

			data, err := auth.Authenticate(strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
			}

			utils.SetTokenDataCtx(c, data)
			return next(c)
		}
	}
}

func parseIDParam(c echo.Context, name string) (int, apierror.ErrorResponse) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, apierror.NewMissingParamError(name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.NewSimple(http.StatusBadRequest, "ID is not a number")
	}
	return id, nil
}
