// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MaxEmailLength    = 100
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
	MaxContentLength = 280
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateUsername checks the username length in characters.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Errorf("Username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength || !emailRegex.MatchString(email) {
		return fmt.Errorf("Invalid email format")
	}
	return nil
}

// ValidatePassword checks if a password meets the length requirements
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("Password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("Password must not exceed %d bytes", MaxPasswordBytes)
	}
	return nil
}

// ValidateContent checks that post or comment text is between 1 and 280 characters.
// label is the noun used in the message, e.g. "Content" or "Comment".
func ValidateContent(label, content string) error {
	n := utf8.RuneCountInString(content)
	if n < 1 || n > MaxContentLength {
		return fmt.Errorf("%s must be between 1 and %d characters", label, MaxContentLength)
	}
	return nil
}
