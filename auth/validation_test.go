package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-taskboard/auth"
	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.ErrorIs(t, err, taskerrors.ErrValidation)
	var verr *taskerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestValidator_ValidateLogin(t *testing.T) {
	v := auth.NewValidator()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, v.ValidateLogin(model.LoginRequest{Email: "ann@example.com", Password: "x"}))
	})

	t.Run("missing both", func(t *testing.T) {
		fields := fieldErrors(t, v.ValidateLogin(model.LoginRequest{}))
		require.Equal(t, "Email is required", fields["email"])
		require.Equal(t, "Password is required", fields["password"])
	})

	t.Run("malformed email", func(t *testing.T) {
		fields := fieldErrors(t, v.ValidateLogin(model.LoginRequest{Email: "ann@example", Password: "x"}))
		require.Equal(t, "Email is invalid", fields["email"])
		require.NotContains(t, fields, "password")
	})
}

func TestValidator_ValidateRegistration(t *testing.T) {
	v := auth.NewValidator()
	valid := model.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "password1", PasswordConfirmation: "password1"}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, v.ValidateRegistration(valid))
	})

	t.Run("short password", func(t *testing.T) {
		req := valid
		req.Password = "short"
		req.PasswordConfirmation = "short"
		fields := fieldErrors(t, v.ValidateRegistration(req))
		require.Equal(t, "Password must be at least 8 characters", fields["password"])
		require.Len(t, fields, 1)
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		req := valid
		req.PasswordConfirmation = "password2"
		fields := fieldErrors(t, v.ValidateRegistration(req))
		require.Equal(t, "Passwords do not match", fields["passwordConfirmation"])
	})

	t.Run("everything missing", func(t *testing.T) {
		fields := fieldErrors(t, v.ValidateRegistration(model.RegisterRequest{Name: "  "}))
		require.Len(t, fields, 4)
		require.Equal(t, "Please confirm your password", fields["passwordConfirmation"])
	})
}
