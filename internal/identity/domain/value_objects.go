package domain

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrNameTooLong  = errors.New("name exceeds maximum length")
)

// MaxNameLength is the maximum allowed name length in characters.
const MaxNameLength = 100

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// Email is a lowercased, validated email address.
type Email struct {
	value string
}

// NewEmail normalizes and validates an email address.
func NewEmail(value string) (Email, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if !emailRegex.MatchString(value) {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: value}, nil
}

func (e Email) String() string { return e.value }

// Name is a trimmed, non-empty personal name.
type Name struct {
	value string
}

// NewName trims and validates a name.
func NewName(value string) (Name, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Name{}, ErrEmptyName
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		return Name{}, ErrNameTooLong
	}
	return Name{value: value}, nil
}

func (n Name) String() string { return n.value }
