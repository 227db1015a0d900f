package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	userID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		m, err := NewManager("secret", "mentora", time.Hour)
		require.NoError(t, err)

		raw, err := m.Issue(userID, "Mentee")
		require.NoError(t, err)

		got, err := m.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("expired", func(t *testing.T) {
		m, err := NewManager("secret", "", time.Minute)
		require.NoError(t, err)
		m.now = func() time.Time { return time.Now().Add(-time.Hour) }
		raw, err := m.Issue(userID, "")
		require.NoError(t, err)

		m.now = time.Now
		_, err = m.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		a, _ := NewManager("one", "", time.Hour)
		b, _ := NewManager("two", "", time.Hour)
		raw, err := a.Issue(userID, "")
		require.NoError(t, err)

		_, err = b.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		a, _ := NewManager("secret", "other", time.Hour)
		b, _ := NewManager("secret", "mentora", time.Hour)
		raw, err := a.Issue(userID, "")
		require.NoError(t, err)

		_, err = b.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("legacy id claim", func(t *testing.T) {
		m, _ := NewManager("secret", "", time.Hour)
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
			LegacyID:         userID.String(),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		got, err := m.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("non uuid subject", func(t *testing.T) {
		m, _ := NewManager("secret", "", time.Hour)
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "42"}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = m.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewManager("", "", time.Hour)
		assert.Error(t, err)
	})
}
