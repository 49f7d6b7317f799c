package services

import (
	"errors"
	"strings"
	"unicode"
)

const (
	PhoneNumberLength = 10
	OTPLength         = 6
)

var (
	ErrInvalidPhoneNumber = errors.New("phone number must be 10 digits")
	ErrInvalidOTP         = errors.New("code must be 6 digits")
	ErrEmptyName          = errors.New("name must not be empty")
)

// NormalizePhoneNumber strips spaces and dashes and requires exactly ten
// digits to remain.
func NormalizePhoneNumber(input string) (string, error) {
	phone := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, input)
	if !isDigits(phone, PhoneNumberLength) {
		return "", ErrInvalidPhoneNumber
	}
	return phone, nil
}

func NormalizeOTP(input string) (string, error) {
	code := strings.ReplaceAll(strings.TrimSpace(input), " ", "")
	if !isDigits(code, OTPLength) {
		return "", ErrInvalidOTP
	}
	return code, nil
}

func NormalizeName(input string) (string, error) {
	name := strings.Join(strings.Fields(input), " ")
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func isDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
