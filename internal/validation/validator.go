package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var otpPattern = regexp.MustCompile(`^[0-9]{6}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("otp", validateOTP)
	_ = v.RegisterValidation("mailbox", validateMailbox)

	// Report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	return v
}

// SendOTPRequest is the body of POST /send-otp
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,mailbox"`
}

// VerifyOTPRequest is the body of POST /verify-otp
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,mailbox"`
	OTP   string `json:"otp" validate:"required,otp"`
}

// CheckoutRequest is the body of POST /billing/checkout
type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// Struct validates s and returns the first failure as a readable error
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "mailbox":
		return fmt.Errorf("%s must be a valid email address", fe.Field())
	case "otp":
		return fmt.Errorf("%s must be exactly 6 digits", fe.Field())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}

// ValidOTP reports whether code is a six digit one-time password
func ValidOTP(code string) bool {
	return otpPattern.MatchString(code)
}

func validateOTP(fl validator.FieldLevel) bool {
	return ValidOTP(fl.Field().String())
}

func validateMailbox(fl validator.FieldLevel) bool {
	return ValidateEmail(strings.TrimSpace(fl.Field().String())) == nil
}
