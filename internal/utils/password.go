package utils

import (
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

var hashCost atomic.Int32

func init() {
	hashCost.Store(12)
}

// SetHashCost changes the bcrypt cost used by HashPassword. Out-of-range values are clamped.
func SetHashCost(cost int) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	hashCost.Store(int32(cost))
}

// HashPassword hashes a given password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), int(hashCost.Load()))
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with its hashed version.
func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
