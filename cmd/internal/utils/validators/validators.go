package validators

import (
	"appointease/cmd/internal/domain/entity"
	"github.com/go-playground/validator/v10"
	"strings"
	"time"
	"unicode"
)

func IsIso8601(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

// IsChannel accepts only the delivery channels the notification
// subsystem knows about.
func IsChannel(fl validator.FieldLevel) bool {
	_, err := entity.ParseChannel(fl.Field().String())
	return err == nil
}

func IsAppointmentStatus(fl validator.FieldLevel) bool {
	_, err := entity.ParseAppointmentStatus(fl.Field().String())
	return err == nil
}

// IsSingleLine rejects control characters such as CR, LF and NUL.
func IsSingleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
}

func Register(validate *validator.Validate) {
	_ = validate.RegisterValidation("iso8601", IsIso8601)
	_ = validate.RegisterValidation("channel", IsChannel)
	_ = validate.RegisterValidation("apptstatus", IsAppointmentStatus)
	_ = validate.RegisterValidation("singleline", IsSingleLine)
}
