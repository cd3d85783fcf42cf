package utils

import (
	"testing"

	"gpu-shop/config"

	"github.com/stretchr/testify/require"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	old := config.AppConfig
	config.AppConfig = &config.Config{JWTSecret: "test-secret", JWTExpiry: "1h"}
	t.Cleanup(func() { config.AppConfig = old })
}

func TestTokenRoundTrip(t *testing.T) {
	setTestConfig(t)

	token, err := GenerateToken(42, "buyer@example.com", "customer")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, 42, claims.UserID)
	require.Equal(t, "buyer@example.com", claims.Email)
	require.Equal(t, "customer", claims.Role)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	setTestConfig(t)

	token, err := GenerateToken(1, "a@b.c", "admin")
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	require.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	setTestConfig(t)
	token, err := GenerateToken(1, "a@b.c", "customer")
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "another-secret"
	_, err = ValidateToken(token)
	require.Error(t, err)
}
