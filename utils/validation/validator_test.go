package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Name  string `validate:"required,min=2"`
	Email string `validate:"required,email"`
}

func TestValidateStruct(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.ValidateStruct(signupForm{Name: "Ada", Email: "ada@example.com"}))

	err := v.ValidateStruct(signupForm{Name: "", Email: "not-an-email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name is required")
	assert.Contains(t, err.Error(), "Invalid email format")

	err = v.ValidateStruct(signupForm{Name: "A", Email: "ada@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name must be at least 2 characters")
}
