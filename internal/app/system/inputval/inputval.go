// Package inputval validates user-supplied input before any mutation
// begins. Validation failures are detected read-then-validate-then-write,
// so they never leave partial state behind.
package inputval

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxContentLen is the maximum length of freet and message content, in runes.
const MaxContentLen = 140

// MaxUsernameLen bounds usernames to something sane for display.
const MaxUsernameLen = 50

var (
	ErrEmptyContent    = errors.New("content must not be empty or all whitespace")
	ErrContentTooLong  = fmt.Errorf("content must be at most %d characters", MaxContentLen)
	ErrUnprintable     = errors.New("content contains non-printable characters")
	ErrInvalidUsername = errors.New("username must be nonempty alphanumeric (dots, dashes, and underscores allowed)")
	ErrInvalidPassword = errors.New("password must be nonempty with no whitespace")
)

// Content checks freet/message content: 1-140 printable characters and not
// all whitespace.
func Content(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(s) > MaxContentLen {
		return ErrContentTooLong
	}
	for _, r := range s {
		if !unicode.IsPrint(r) && r != '\n' && r != '\t' {
			return ErrUnprintable
		}
	}
	return nil
}

// Username checks account usernames. Comparison elsewhere is
// case-insensitive; this only constrains the characters.
func Username(s string) error {
	if s == "" || utf8.RuneCountInString(s) > MaxUsernameLen {
		return ErrInvalidUsername
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
		case r == '.' || r == '-' || r == '_':
		default:
			return ErrInvalidUsername
		}
	}
	return nil
}

// Password checks credential secrets before hashing.
func Password(s string) error {
	if s == "" {
		return ErrInvalidPassword
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			return ErrInvalidPassword
		}
	}
	return nil
}
