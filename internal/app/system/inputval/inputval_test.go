package inputval

import (
	"strings"
	"testing"
)

func TestContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"simple", "hello world", nil},
		{"single char", "a", nil},
		{"exactly 140", strings.Repeat("x", 140), nil},
		{"unicode within limit", strings.Repeat("é", 140), nil},
		{"punctuation", "what?! #freets", nil},
		{"internal newline", "line one\nline two", nil},

		{"empty", "", ErrEmptyContent},
		{"all spaces", "     ", ErrEmptyContent},
		{"all whitespace mix", " \t\n ", ErrEmptyContent},
		{"141 chars", strings.Repeat("x", 141), ErrContentTooLong},
		{"control char", "hello\x00world", ErrUnprintable},
		{"bell char", "ding\ading", ErrUnprintable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Content(tt.content)
			if err != tt.wantErr {
				t.Errorf("Content(%q) = %v, want %v", tt.content, err, tt.wantErr)
			}
		})
	}
}

func TestUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"alice", true},
		{"Alice99", true},
		{"a.b-c_d", true},
		{"ümlaut", true},

		{"", false},
		{"has space", false},
		{"semi;colon", false},
		{"at@sign", false},
		{strings.Repeat("a", 51), false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := Username(tt.username)
			if (err == nil) != tt.valid {
				t.Errorf("Username(%q) = %v, want valid=%v", tt.username, err, tt.valid)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"simple", "hunter2", true},
		{"symbols", "p@ssw0rd!", true},
		{"empty", "", false},
		{"with space", "bad password", false},
		{"with tab", "bad\tpassword", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.password)
			if (err == nil) != tt.valid {
				t.Errorf("Password(%q) = %v, want valid=%v", tt.password, err, tt.valid)
			}
		})
	}
}
