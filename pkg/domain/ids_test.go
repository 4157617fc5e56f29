package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "casecheck/pkg/domain-errors"
)

// TestParseCheckID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseCheckID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCheckID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCheckID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCheckID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseCheckID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, CheckID(validUUID), id)
	})
}

func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE checks;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errCheck := ParseCheckID(tt.input)
			_, errMatter := ParseMatterID(tt.input)
			if tt.wantErr {
				require.Error(t, errCheck)
				require.Error(t, errMatter)
				assert.True(t, dErrors.HasCode(errCheck, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, errCheck)
				require.NoError(t, errMatter)
			}
		})
	}
}

func TestCheckID_TextRoundTrip(t *testing.T) {
	id := NewCheckID()
	text, err := id.MarshalText()
	require.NoError(t, err)

	var parsed CheckID
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, id, parsed)
	assert.False(t, parsed.IsNil())

	var bad CheckID
	assert.Error(t, bad.UnmarshalText([]byte("nope")))
}
