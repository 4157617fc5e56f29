package providertoken

import (
	"testing"
	"time"

	dErrors "casecheck/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var service = NewService("test-signing-key", "casecheck", "provider-webhooks")

func TestIssueAndValidate(t *testing.T) {
	token, err := service.Issue("acme-verify", time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acme-verify", claims.Provider)
	assert.Equal(t, "acme-verify", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := service.Issue("acme-verify", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateToken_WrongKey(t *testing.T) {
	other := NewService("other-key", "casecheck", "provider-webhooks")
	token, err := other.Issue("acme-verify", time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_WrongAudience(t *testing.T) {
	other := NewService("test-signing-key", "casecheck", "somewhere-else")
	token, err := other.Issue("acme-verify", time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Provider: "acme-verify"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAdapter(t *testing.T) {
	token, err := service.Issue("acme-verify", time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := NewAdapter(service).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acme-verify", claims.Provider)
	assert.NotEmpty(t, claims.JTI)
}
