package auth

import (
	"regexp"
	"strings"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Validator checks credentials before any request is sent. Every failure is
// reported per field in a *errors.ValidationError.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogin validates login credentials
func (v *Validator) ValidateLogin(req model.LoginRequest) error {
	fields := map[string]string{}
	v.email(fields, req.Email)
	if req.Password == "" {
		fields["password"] = "Password is required"
	}
	return taskerrors.NewValidationError(fields)
}

// ValidateRegistration validates the registration form
func (v *Validator) ValidateRegistration(req model.RegisterRequest) error {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	}
	v.email(fields, req.Email)
	switch {
	case req.Password == "":
		fields["password"] = "Password is required"
	case len(req.Password) < minPasswordLength:
		fields["password"] = "Password must be at least 8 characters"
	}
	switch {
	case req.PasswordConfirmation == "":
		fields["passwordConfirmation"] = "Please confirm your password"
	case req.PasswordConfirmation != req.Password:
		fields["passwordConfirmation"] = "Passwords do not match"
	}
	return taskerrors.NewValidationError(fields)
}

func (v *Validator) email(fields map[string]string, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		fields["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		fields["email"] = "Email is invalid"
	}
}
