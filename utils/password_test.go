package utils

import (
	"strings"
	"testing"

	"github.com/medportal/medportalbackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hash)

	ok, err := h.Verify("pw1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_Salted(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_EmbedsCost(t *testing.T) {
	h := NewPasswordHasher(10)

	hash, err := h.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))
}

func TestPasswordHasher_CorruptHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, bad := range []string{"", "plaintext", "$2a$10$short"} {
		ok, err := h.Verify("pw", bad)
		assert.False(t, ok)
		assert.ErrorIs(t, err, models.ErrCorruptHash, "hash %q", bad)
	}
}

func TestPasswordHasher_TooLong(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("p", 73))
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = h.Hash(strings.Repeat("p", 72))
	assert.NoError(t, err)
}
