package security

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted bcrypt hash from a plain text password.
// bcrypt.DefaultCost (10) is the adaptive-cost floor for offline resistance.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a stored bcrypt hash against a candidate password.
// The comparison is constant-time within bcrypt itself.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
