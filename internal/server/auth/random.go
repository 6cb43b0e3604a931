package auth

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 32

// GenerateRefreshToken returns a random opaque token, hex encoded.
func GenerateRefreshToken() (string, error) {
	return common.MakeRandHexString(refreshTokenBytes)
}

// GeneratePassword returns a random password of length n drawn from letters,
// digits and a few symbols.
func GeneratePassword(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("password length must be positive")
	}
	max := big.NewInt(int64(len(passwordCharset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordCharset[idx.Int64()]
	}
	return string(b), nil
}
