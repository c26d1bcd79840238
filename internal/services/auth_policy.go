package services

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"

	"github.com/terraincognita07/nutriwell/internal/models"
)

var (
	ErrAuthCredentialsInvalid = errors.New("auth credentials invalid")
	ErrWeakPassword           = errors.New("weak password")
)

func NormalizeAuthEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ""
	}
	return email
}

func NormalizeCredentialsInput(emailRaw string, passwordRaw string) (string, string, error) {
	email := NormalizeAuthEmail(emailRaw)
	password := strings.TrimSpace(passwordRaw)
	if email == "" || password == "" {
		return "", "", ErrAuthCredentialsInvalid
	}
	return email, password, nil
}

// ValidatePasswordStrength requires at least eight runes mixing upper case,
// lower case and digits.
func ValidatePasswordStrength(password string) error {
	if len([]rune(password)) < 8 {
		return ErrWeakPassword
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	if hasUpper && hasLower && hasDigit {
		return nil
	}
	return ErrWeakPassword
}

func IsAdminUser(user *models.User) bool {
	return user != nil && user.Role == models.RoleAdmin
}
