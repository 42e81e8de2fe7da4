package usecase_test

import (
	"testing"

	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptPassword_RoundTrip(t *testing.T) {
	hasher := usecase.NewBcryptPasswordHasher(bcrypt.MinCost)
	verifier := usecase.NewBcryptPasswordVerifier()

	for _, plain := range []string{"secret123", "p", "日本語パスワード", "with spaces and 記号!@#"} {
		hash, err := hasher.Hash(plain)
		assert.NoError(t, err)
		assert.NotEqual(t, plain, hash)

		assert.True(t, verifier.Verify(plain, hash))
		assert.False(t, verifier.Verify(plain+"x", hash))
	}
}

func TestBcryptPassword_MismatchIsFalseNotError(t *testing.T) {
	verifier := usecase.NewBcryptPasswordVerifier()

	//壊れたハッシュでもfalseが返るだけ
	assert.False(t, verifier.Verify("secret123", "not-a-bcrypt-hash"))
	assert.False(t, verifier.Verify("secret123", ""))
}

func TestBcryptPasswordHasher_DefaultCost(t *testing.T) {
	//cost未指定（0以下）はDefaultCostに寄せる
	hasher := usecase.NewBcryptPasswordHasher(0)

	hash, err := hasher.Hash("secret123")
	assert.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	assert.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
