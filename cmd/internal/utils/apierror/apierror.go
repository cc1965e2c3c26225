package apierror

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"net/http"
)

// ErrorResponse is the error shape every service hands back to the routes.
// It is serialized as-is in the response body.
type ErrorResponse interface {
	Code() int
	Error() string
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

type apiError struct {
	Status  int          `json:"status"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *apiError) Code() int {
	return e.Status
}

func (e *apiError) Error() string {
	return e.Message
}

func NewSimple(status int, message string) ErrorResponse {
	return &apiError{Status: status, Message: message}
}

func NewMissingParamError(param string) ErrorResponse {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Missing required parameter '%s'", param))
}

func NewInvalidParamTypeError(param, expected string) ErrorResponse {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Parameter '%s' must be of type %s", param, expected))
}

func FromValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MalformedBodyError
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
	}
	return &apiError{
		Status:  http.StatusBadRequest,
		Message: "Request validation failed",
		Fields:  fields,
	}
}

var (
	InternalServerError   = NewSimple(http.StatusInternalServerError, "Internal server error")
	NotFoundError         = NewSimple(http.StatusNotFound, "Resource not found")
	ForbiddenError        = NewSimple(http.StatusForbidden, "Unauthorized")
	MalformedBodyError    = NewSimple(http.StatusBadRequest, "Malformed request body")
	InvalidAuthTokenError = NewSimple(http.StatusUnauthorized, "Invalid or missing authentication token")

	AppointmentEndBeforeStartError = NewSimple(http.StatusBadRequest, "Appointment end time must not be before its start time")
	UnknownCategoryError           = NewSimple(http.StatusBadRequest, "Category does not exist")
	InvalidShareError              = NewSimple(http.StatusNotFound, "Share link is invalid or expired")
	OAuthNotConfiguredError        = NewSimple(http.StatusServiceUnavailable, "Google login is not configured")
	OAuthStateMismatchError        = NewSimple(http.StatusBadRequest, "OAuth state is invalid or expired")
	OAuthExchangeError             = NewSimple(http.StatusBadGateway, "Failed to complete Google login")
)
