package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/models"
	"github.com/stretchr/testify/assert"
)

func setupTokenTestConfig(t *testing.T) {
	t.Helper()
	original := config.GetConfig()
	t.Cleanup(func() { config.SetConfig(original) })
	config.SetConfig(&config.Config{JWTSecret: "test-secret", GoEnv: "test"})
}

// signTestToken builds a token with arbitrary claims for failure-path tests
func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

func TestIssueAndVerifyTokenRoundTrip(t *testing.T) {
	setupTokenTestConfig(t)

	user := &models.User{
		ID:    42,
		Email: "customer@example.com",
		Role:  models.RoleCustomer,
	}

	raw, err := IssueToken(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, raw)

	claims, err := VerifyToken(raw)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "customer@example.com", claims.Email)
	assert.Equal(t, models.RoleCustomer, claims.Role)
}

func TestVerifyTokenMalformed(t *testing.T) {
	setupTokenTestConfig(t)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := VerifyToken(raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", raw)
	}
}

func TestVerifyTokenInvalidSignature(t *testing.T) {
	setupTokenTestConfig(t)

	raw := signTestToken(t, "another-secret", jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := VerifyToken(raw)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestVerifyTokenExpired(t *testing.T) {
	setupTokenTestConfig(t)

	raw := signTestToken(t, "test-secret", jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := VerifyToken(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTokenNotYetValid(t *testing.T) {
	setupTokenTestConfig(t)

	raw := signTestToken(t, "test-secret", jwt.MapClaims{
		"sub": "42",
		"nbf": time.Now().Add(time.Hour).Unix(),
		"exp": time.Now().Add(2 * time.Hour).Unix(),
	})

	_, err := VerifyToken(raw)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestVerifyTokenMissingSubject(t *testing.T) {
	setupTokenTestConfig(t)

	raw := signTestToken(t, "test-secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := VerifyToken(raw)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestVerifyTokenRejectsUnexpectedAlgorithm(t *testing.T) {
	setupTokenTestConfig(t)

	// alg=none tokens must never verify
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, verifyErr := VerifyToken(raw)
	assert.Error(t, verifyErr)
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	original := config.GetConfig()
	t.Cleanup(func() { config.SetConfig(original) })
	config.SetConfig(&config.Config{})

	_, err := IssueToken(&models.User{ID: 1})
	assert.Error(t, err)
}
