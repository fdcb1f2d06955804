package utils

import (
    "errors"

    "golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when there is nothing to hash.
var ErrEmptyPassword = errors.New("empty password")

// clampCost keeps a configured cost inside what bcrypt accepts.  BCRYPT_COST
// comes straight from the environment, so zero or a typo must not fail
// user creation at runtime.
func clampCost(cost int) int {
    switch {
    case cost <= 0:
        return bcrypt.DefaultCost
    case cost < bcrypt.MinCost:
        return bcrypt.MinCost
    case cost > bcrypt.MaxCost:
        return bcrypt.MaxCost
    }
    return cost
}

// HashPassword hashes an admin or staff password for the users table.
func HashPassword(plain string, cost int) (string, error) {
    if plain == "" {
        return "", ErrEmptyPassword
    }
    b, err := bcrypt.GenerateFromPassword([]byte(plain), clampCost(cost))
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// VerifyPassword reports whether plain matches hash.  An empty hash (a
// disabled account) never matches.
func VerifyPassword(hash, plain string) bool {
    if hash == "" {
        return false
    }
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
