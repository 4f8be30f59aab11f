package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/vendasbanco/src/config"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret-at-least-32-bytes-long!!")

	hash, err := svc.HashPassword("s3nha-forte")
	require.NoError(t, err)
	require.NotEqual(t, "s3nha-forte", hash)

	// The hash minted here is what ADMIN_PASSWORD_HASH gets set to; the login
	// path must accept the original password against it and nothing else.
	assert.NoError(t, svc.CompareHashAndPassword(hash, "s3nha-forte"))
	assert.Error(t, svc.CompareHashAndPassword(hash, "senha-errada"))
}

func TestTokenRoundTrip(t *testing.T) {
	prev := config.Cfg
	config.Cfg = &config.AppConfig{AccessTokenExpiry: time.Minute}
	t.Cleanup(func() { config.Cfg = prev })

	svc := NewAuthService("test-secret-at-least-32-bytes-long!!")

	token, err := svc.GenerateToken("admin")
	require.NoError(t, err)

	subject, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)

	t.Run("wrong secret is rejected", func(t *testing.T) {
		other := NewAuthService("a-completely-different-32-byte-secret")
		_, err := other.ValidateToken(token)
		assert.Error(t, err)
	})
}
