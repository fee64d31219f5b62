package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash of the password, suitable for the
// admin.password_hash setting.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckCredentials verifies a username and password against the configured
// admin account. An empty hash never matches.
func CheckCredentials(username, password, wantUsername, hash string) bool {
	if hash == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(wantUsername)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passOK := CheckPasswordHash(password, hash)
	return userOK && passOK
}
