package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/boardmates/boardmates/internal/errors"
)

// HashPassword hashes a plaintext password for storage. bcrypt salts every
// hash, so equal passwords produce distinct hashes.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.NewInvalidUser("password", "must not be empty")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.NewInvalidUser("password", err.Error())
	}
	return string(bytes), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
