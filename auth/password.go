package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordAttributes are the user fields a password must not resemble.
type PasswordAttributes struct {
	Email    string
	Name     string
	NickName string
}

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordValidator applies the password strength rules and returns every
// rule that failed, not just the first.
type PasswordValidator struct {
	MinLength int
}

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
	"12345678": {}, "123456789": {}, "1234567890": {}, "qwerty123": {},
	"qwertyuiop": {}, "iloveyou": {}, "sunshine": {}, "princess": {},
	"football": {}, "baseball": {}, "welcome1": {}, "admin123": {},
	"letmein1": {}, "abc12345": {}, "11111111": {}, "00000000": {},
	"q1w2e3r4": {}, "1q2w3e4r": {}, "asdfghjkl": {}, "superman": {},
}

// Validate returns nil or the list of problems with password.
func (v PasswordValidator) Validate(password string, attrs PasswordAttributes) []string {
	var problems []string

	if v.MinLength > 0 && len([]rune(password)) < v.MinLength {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", v.MinLength))
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf("This password is too long. It must contain at most %d bytes.", MaxPasswordBytes))
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}
	if similar := similarAttribute(password, attrs); similar != "" {
		problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", similar))
	}
	return problems
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// similarAttribute returns the name of the first attribute the password
// contains or is contained in, ignoring case. Parts of an email are checked
// separately so "kim@x.com" rejects "kim1234" as well.
func similarAttribute(password string, attrs PasswordAttributes) string {
	lower := strings.ToLower(password)
	if lower == "" {
		return ""
	}

	candidates := []struct {
		label string
		value string
	}{
		{"email address", attrs.Email},
		{"name", attrs.Name},
		{"nickname", attrs.NickName},
	}
	for _, c := range candidates {
		value := strings.ToLower(strings.TrimSpace(c.value))
		if value == "" {
			continue
		}
		parts := []string{value}
		if c.label == "email address" {
			if local, _, found := strings.Cut(value, "@"); found {
				parts = append(parts, local)
			}
		}
		for _, part := range parts {
			// Very short attributes would reject almost anything.
			if len(part) < 3 {
				continue
			}
			if strings.Contains(lower, part) || strings.Contains(part, lower) {
				return c.label
			}
		}
	}
	return ""
}
