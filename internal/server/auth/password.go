package auth

import (
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor used unless configured otherwise.
	DefaultCost = 12

	// MaxPasswordBytes is the longest input bcrypt accepts, in bytes not characters.
	MaxPasswordBytes = 72
)

// ErrPasswordTooLong is a validation failure, so callers answer 400.
var ErrPasswordTooLong = common.NewValidationError(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	Cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost == 0 {
		cost = DefaultCost
	}
	return &PasswordHasher{Cost: cost}
}

// Hash returns a salted bcrypt hash of plain. Every call uses a new salt.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether plain matches hash. A malformed hash is a mismatch.
func (h *PasswordHasher) Compare(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
