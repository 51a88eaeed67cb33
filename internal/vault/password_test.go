package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashers(t *testing.T) {
	hashers := map[string]PasswordHasher{
		AlgoBcrypt:   Bcrypt{Cost: bcrypt.MinCost},
		AlgoArgon2id: &Argon2{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("s3cret-pass")
			require.NoError(t, err)
			assert.NotContains(t, hash, "s3cret-pass")

			ok, err := h.Verify("s3cret-pass", hash)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify("wrong", hash)
			require.NoError(t, err)
			assert.False(t, ok)

			again, err := h.Hash("s3cret-pass")
			require.NoError(t, err)
			assert.NotEqual(t, hash, again, "salts should differ")
		})
	}
}

func TestArgon2_EncodedFormat(t *testing.T) {
	hash, err := (&Argon2{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}).Hash("pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	_, err = NewArgon2().Verify("pw", "$bcrypt$x")
	assert.Error(t, err)
	_, err = NewArgon2().Verify("pw", "$scrypt$v=19$m=1,t=1,p=1$AA$AA")
	assert.Error(t, err)
}

func TestBcrypt_MalformedHash(t *testing.T) {
	_, err := Bcrypt{Cost: bcrypt.MinCost}.Verify("pw", "not-a-hash")
	assert.Error(t, err)
}

func TestNewHasher(t *testing.T) {
	h, err := NewHasher("", 0)
	require.NoError(t, err)
	assert.Equal(t, Bcrypt{Cost: bcrypt.DefaultCost}, h)

	h, err = NewHasher("BCRYPT", 12)
	require.NoError(t, err)
	assert.Equal(t, Bcrypt{Cost: 12}, h)

	h, err = NewHasher(AlgoArgon2id, 0)
	require.NoError(t, err)
	assert.IsType(t, &Argon2{}, h)

	_, err = NewHasher("md5", 0)
	assert.Error(t, err)
}
