package service

import (
	"appointease/cmd/internal/domain/entity"
	"appointease/cmd/internal/utils/apierror"
	"github.com/labstack/gommon/log"
)

// resolveCaller maps the authenticated subject onto a stored user.
func resolveCaller(users UserRepository, sub string) (*entity.User, apierror.ErrorResponse) {
	caller, err := users.FindBySub(sub)
	if err != nil {
		log.Errorf("failed to fetch user %s: %v", sub, err)
		return nil, apierror.InternalServerError
	}
	if caller == nil {
		return nil, apierror.InvalidAuthTokenError
	}
	return caller, nil
}
