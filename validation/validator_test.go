package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	OrgName  string `json:"orgName" validate:"required,min=3,max=255"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	t.Run("valid", func(t *testing.T) {
		err := v.Validate(registerRequest{Email: "ada@acme.test", Password: "Password123", OrgName: "Acme"})
		assert.NoError(t, err)
	})

	t.Run("field messages use json names", func(t *testing.T) {
		err := v.Validate(registerRequest{Email: "nope", Password: "short", OrgName: "Ac"})

		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, map[string]string{
			"email":    "must be a valid email address",
			"password": "must be at least 8 characters",
			"orgName":  "must be at least 3 characters",
		}, verr.Fields)
		assert.Equal(t, "validation failed: email must be a valid email address; orgName must be at least 3 characters; password must be at least 8 characters", verr.Error())
	})

	t.Run("required", func(t *testing.T) {
		err := v.Validate(&registerRequest{})

		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "is required", verr.Fields["email"])
	})

	t.Run("non struct", func(t *testing.T) {
		err := v.Validate("text")
		require.Error(t, err)
		var verr *Error
		assert.False(t, errors.As(err, &verr))
	})
}

func TestFieldError(t *testing.T) {
	err := FieldError("password", "must be at least 8 characters")
	assert.Equal(t, "validation failed: password must be at least 8 characters", err.Error())
}
