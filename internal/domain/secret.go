package domain

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultSecret is the authentication secret assigned to owners
// materialized from a bulk import. Owners are expected to change it on
// first login; the portal surface owns that flow.
const DefaultSecret = "welcome1"

var (
	defaultHashOnce sync.Once
	defaultHash     string
)

// DefaultSecretHash returns the bcrypt hash of DefaultSecret, computed
// once per process.
func DefaultSecretHash() string {
	defaultHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(DefaultSecret), bcrypt.DefaultCost)
		if err != nil {
			// bcrypt only fails on invalid cost; the default cost is valid.
			panic(err)
		}
		defaultHash = string(h)
	})
	return defaultHash
}

// CheckSecret compares a candidate secret against an owner's stored
// hash.
func CheckSecret(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// HashSecret hashes a new authentication secret.
func HashSecret(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
