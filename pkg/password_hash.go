package pkg

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordHashCost is the bcrypt cost used for stored passwords when none is configured.
const DefaultPasswordHashCost = 12

var ErrInvalidHashCost = errors.New("invalid password hash cost")

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultPasswordHashCost)
}

// HashPasswordWithCost hashes with the given bcrypt cost, 0 picks DefaultPasswordHashCost.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultPasswordHashCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("%w: %d", ErrInvalidHashCost, cost)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return BytesToString(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordHashCost returns the cost a bcrypt hash was generated with.
func PasswordHashCost(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}
