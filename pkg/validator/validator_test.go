package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		firstName string
		lastName  string
		password  string
		wantField string
	}{
		{"valid", "alice@example.com", "Alice", "Smith", "password123", ""},
		{"missing email", "", "Alice", "Smith", "password123", "email"},
		{"bad email", "not-an-email", "Alice", "Smith", "password123", "email"},
		{"short first name", "alice@example.com", "Al", "Smith", "password123", "firstName"},
		{"missing last name", "alice@example.com", "Alice", "  ", "password123", "lastName"},
		{"short password", "alice@example.com", "Alice", "Smith", "pass", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRegister(tt.email, tt.firstName, tt.lastName, tt.password)
			if tt.wantField == "" {
				require.False(t, errs.HasErrors(), "unexpected errors: %v", errs)
				return
			}
			require.Contains(t, errs, tt.wantField)
		})
	}
}

func TestValidatePost(t *testing.T) {
	errs := ValidatePost("Broken light", "The light is out", "lighting", "Main St", "")
	require.False(t, errs.HasErrors())

	errs = ValidatePost("", "  ", "lighting", "Main St", "urgent")
	require.Contains(t, errs, "title")
	require.Contains(t, errs, "description")
	require.Contains(t, errs, "priority")
	require.NotContains(t, errs, "category")
}

func TestValidateStatus(t *testing.T) {
	for _, s := range []string{"pending", "in_progress", "resolved", "closed"} {
		require.False(t, ValidateStatus(s).HasErrors(), s)
	}
	require.True(t, ValidateStatus("done").HasErrors())
	require.True(t, ValidateStatus("").HasErrors())
}

func TestValidateComment(t *testing.T) {
	require.False(t, ValidateComment("looks bad").HasErrors())
	require.True(t, ValidateComment("   ").HasErrors())
}
