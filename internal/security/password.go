package security

import "golang.org/x/crypto/bcrypt"

// DefaultCost is the bcrypt work factor used for new password hashes.
const DefaultCost = 12

// HashPassword hashes a plain text password with bcrypt. Each call salts
// independently, so two hashes of the same password differ.
func HashPassword(plain string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password in constant
// time. A malformed hash verifies false rather than surfacing an error, so a
// caller cannot tell "wrong password" apart from "corrupt hash".
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
