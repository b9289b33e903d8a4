package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateMessageContent validates inbound message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 4096 {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidatePhoneNumber validates a phone number in digits-only E.164-like
// form, with an optional leading plus.
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return errors.New("phone number cannot be empty")
	}

	digits := phone
	if digits[0] == '+' {
		digits = digits[1:]
	}

	if len(digits) < 8 || len(digits) > 15 {
		return errors.New("phone number must have 8 to 15 digits")
	}

	for _, c := range digits {
		if c < '0' || c > '9' {
			return errors.New("phone number must contain only digits")
		}
	}

	return nil
}
