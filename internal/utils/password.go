package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost the stored hashes were created with.
const DefaultBcryptCost = 10

var bcryptCost = DefaultBcryptCost

// SetBcryptCost changes the cost used by HashPassword. Out of range values
// fall back to the default.
func SetBcryptCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	bcryptCost = cost
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
