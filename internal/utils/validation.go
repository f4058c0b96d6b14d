package utils

import (
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinPasswordLength is the shortest password accepted when one is created
const MinPasswordLength = 8

// DateLayout is the calendar date format the backend accepts
const DateLayout = "2006-01-02"

var phonePattern = regexp.MustCompile(`^\+?[0-9(][0-9\s\-().]{5,19}$`)

// ValidateEmail validates an email address
func ValidateEmail(email, fieldName string) error {
	if err := ValidateRequired(email, fieldName); err != nil {
		return err
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return NewValidationError(fieldName, "invalid email format")
	}

	return nil
}

// ValidatePassword validates a new password
func ValidatePassword(password string) error {
	if password == "" {
		return NewValidationError("password", "password is required")
	}

	if len(password) < MinPasswordLength {
		return NewValidationError("password", "password must be at least 8 characters long")
	}

	return nil
}

// ValidatePasswordConfirmation checks that both entries match before the
// length rule is applied
func ValidatePasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return NewValidationError("confirm_password", "passwords do not match")
	}
	return ValidatePassword(password)
}

// ValidateRequired validates that a string is not empty
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fieldName, fieldName+" is required")
	}
	return nil
}

// ValidateDate validates a YYYY-MM-DD date
func ValidateDate(value, fieldName string) error {
	if err := ValidateRequired(value, fieldName); err != nil {
		return err
	}

	if _, err := time.Parse(DateLayout, value); err != nil {
		return NewValidationError(fieldName, "must be a date in YYYY-MM-DD format")
	}

	return nil
}

// ValidatePhone validates a phone number
func ValidatePhone(phone, fieldName string) error {
	if err := ValidateRequired(phone, fieldName); err != nil {
		return err
	}

	if !phonePattern.MatchString(phone) {
		return NewValidationError(fieldName, "invalid phone number format")
	}

	return nil
}

// ValidateNonNegativeInt validates a whole number such as years of experience
func ValidateNonNegativeInt(value, fieldName string) error {
	if err := ValidateRequired(value, fieldName); err != nil {
		return err
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return NewValidationError(fieldName, "must be a whole number of zero or more")
	}

	return nil
}

// ValidateURL validates a server URL
func ValidateURL(raw string) error {
	if err := ValidateRequired(raw, "URL"); err != nil {
		return err
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("URL", "invalid URL format")
	}

	return nil
}
