package auth

import (
	"testing"
	"time"

	"smokedash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("123")
	require.NoError(t, err)
	assert.NotEqual(t, "123", hash)
	assert.True(t, h.Verify(hash, "123"))
	assert.False(t, h.Verify(hash, "1234"))
	assert.False(t, h.Verify("not-a-hash", "123"))
}

func TestNewBcryptHasher_FallsBackToDefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).Cost)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	user := models.User{Username: "cashier", Role: models.RoleCashier}
	token, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cashier", claims.Username)
	assert.Equal(t, models.RoleCashier, claims.Role)
	assert.True(t, claims.CanAccess(models.PagePOS))
	assert.False(t, claims.CanAccess(models.PageUsers))
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := issuer.GenerateToken(models.User{Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokenIssuer("other-secret", time.Hour)
		require.NoError(t, err)
		_, err = other.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { issuer.now = time.Now }()
		_, err := issuer.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ValidateToken("abc.def.ghi")
		assert.Error(t, err)
	})
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestSessionFile(t *testing.T) {
	s := NewSessionFile(t.TempDir())

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save("tok"))
	token, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoadOrCreateKey(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadOrCreateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, 64)

	again, err := LoadOrCreateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again, "the key survives restarts")

	other, err := LoadOrCreateKey(t.TempDir())
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}
