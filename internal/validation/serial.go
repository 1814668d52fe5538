// Package validation holds the input rules shared by the HTTP front, the CLI
// and the service layer.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/Adolanium/SWLic/internal/errors"
)

// Serial numbers are 4-64 characters of letters, digits, spaces and dashes.
const (
	SerialMinLength = 4
	SerialMaxLength = 64
)

var serialPattern = regexp.MustCompile(`^[A-Za-z0-9 -]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// SerialRequest is the validated form of a serial number input
type SerialRequest struct {
	Serial string `json:"serial" validate:"required,min=4,max=64,serial"`
}

// ResolveRequest is the validated form of an offline resolve query
type ResolveRequest struct {
	Version        string `json:"version" validate:"required,max=64"`
	MaintenanceEnd string `json:"maintEnd" validate:"required,max=64"`
}

// Validator returns the shared validator with the custom rules registered.
// The returned value is safe for concurrent use.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("serial", isSerial)

		// Use JSON tag names in error messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

func isSerial(fl validator.FieldLevel) bool {
	return serialPattern.MatchString(fl.Field().String())
}

// NormalizeSerial trims surrounding whitespace from a serial number
func NormalizeSerial(serial string) string {
	return strings.TrimSpace(serial)
}

// ValidateSerial checks a serial number and returns it normalized. Failures
// wrap ErrInvalidSerial.
func ValidateSerial(serial string) (string, error) {
	req := SerialRequest{Serial: NormalizeSerial(serial)}
	if err := Validator().Struct(req); err != nil {
		return "", fmt.Errorf("%w: %s", apierrors.ErrInvalidSerial, describe(err))
	}
	return req.Serial, nil
}

// ValidateResolve checks the inputs of an offline resolve. Failures are
// validation errors naming the offending field.
func ValidateResolve(req ResolveRequest) error {
	if err := Validator().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apierrors.ErrValidation(verrs[0].Field(), message(verrs[0]))
		}
		return apierrors.InvalidRequestWithError(err)
	}
	return nil
}

// describe turns validator output into a single human readable sentence
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	return message(verrs[0])
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "serial":
		return fmt.Sprintf("%s may only contain letters, digits, spaces and dashes", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// MaskSerial keeps the last four characters of a serial number for logs
func MaskSerial(serial string) string {
	if len(serial) <= 4 {
		return "****"
	}
	return "****" + serial[len(serial)-4:]
}
