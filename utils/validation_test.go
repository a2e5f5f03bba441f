package utils

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestStruct struct {
	ProjectID string `validate:"required,uuid"`
	URL       string `validate:"omitempty,url"`
	Strategy  string `validate:"required,oneof=header session"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := TestStruct{
			ProjectID: uuid.NewString(),
			URL:       "https://api.holaplex.com/graphql",
			Strategy:  "header",
		}

		assert.NoError(t, ValidateStruct(&s))
	})

	t.Run("missing required field", func(t *testing.T) {
		s := TestStruct{Strategy: "session"}

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "ProjectID is required", fields["ProjectID"])
	})

	t.Run("invalid uuid and url", func(t *testing.T) {
		s := TestStruct{
			ProjectID: "project-1",
			URL:       "not a url",
			Strategy:  "header",
		}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "ProjectID must be a valid UUID", fields["ProjectID"])
		assert.Equal(t, "URL must be a valid URL", fields["URL"])
	})

	t.Run("value outside oneof", func(t *testing.T) {
		s := TestStruct{ProjectID: uuid.NewString(), Strategy: "cookie"}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields["Strategy"], "must be one of")
	})
}

func TestValidateUUID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid uuid", uuid.NewString(), false},
		{"empty", "", true},
		{"not a uuid", "c1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUUID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "Validation failed"}
	assert.Equal(t, "Validation failed", err.Error())

	err.Fields = map[string]string{"APIKey": "APIKey is required"}
	assert.Contains(t, err.Error(), "APIKey is required")
}

func TestGetValidationFields(t *testing.T) {
	assert.Nil(t, GetValidationFields(errors.New("plain error")))
	assert.False(t, IsValidationError(errors.New("plain error")))
}
