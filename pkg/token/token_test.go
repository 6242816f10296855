package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ketabplus/frontend/domain"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func TestDecodeExtractsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signToken(t, jwt.MapClaims{
		"user_id": "u-1",
		"email":   "a@b.com",
		"name":    "Arman",
		"roles":   []string{"admin", "customer"},
		"exp":     exp.Unix(),
	})

	claims, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "Arman", claims.Name)
	assert.Equal(t, []string{"admin", "customer"}, claims.Roles)
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
}

func TestDecodeFallsBackToSubject(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "u-2"})

	claims, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-2", claims.UserID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not-a-token")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	claims, err := Verify(raw, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"user_id": "u-1"})

	_, err := Verify(raw, "other-secret")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthenticated))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := Verify(raw, testSecret)
	require.Error(t, err)
}
