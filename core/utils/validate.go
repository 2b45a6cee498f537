package utils

import (
	"errors"
	"regexp"
	"strings"
)

var usernameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,49}$`)

// ValidateUsername enforces lowercase alphanumeric usernames of 3..50
// characters with dot, dash and underscore allowed after the first.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if username != strings.ToLower(username) {
		return errors.New("username must be lowercase")
	}
	if !usernameRe.MatchString(username) {
		return errors.New("username must be 3-50 characters: letters, digits, '.', '-', '_'")
	}
	return nil
}

// ValidateEmail is a shape check, not an RFC parser.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errors.New("email is invalid")
	}
	if !strings.Contains(email[at+1:], ".") {
		return errors.New("email is invalid")
	}
	if len(email) > 254 {
		return errors.New("email is too long")
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return errors.New("password is too long")
	}
	return nil
}
