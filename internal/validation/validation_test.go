package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "alice", false},
		{"Exactly Min Length", "abc", false},
		{"Exactly Max Length", strings.Repeat("a", 50), false},
		{"Too Short", "ab", true},
		{"Too Long", strings.Repeat("a", 51), true},
		{"Empty", "", true},
		{"Multibyte Counted As Characters", "äöü", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.EqualError(t, err, "Username must be between 3 and 50 characters")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "a@x.com", false},
		{"Plus Tag", "alice+sns@example.org", false},
		{"Missing At", "alice.example.com", true},
		{"Missing TLD", "alice@example", true},
		{"Empty", "", true},
		{"Too Long", strings.Repeat("a", 95) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "password1", false},
		{"Exactly Min Length", "12345678", false},
		{"Too Short", "1234567", true},
		{"Exactly Max Bytes", strings.Repeat("p", 72), false},
		{"Too Long", strings.Repeat("p", 73), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateContent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"Single Character", "h", false},
		{"Exactly Max", strings.Repeat("x", 280), false},
		{"Empty", "", true},
		{"Over Max", strings.Repeat("x", 281), true},
		{"Max Runes Multibyte", strings.Repeat("é", 280), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent("Content", tt.content)
			if tt.wantErr {
				assert.EqualError(t, err, "Content must be between 1 and 280 characters")
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.EqualError(t, ValidateContent("Comment", ""), "Comment must be between 1 and 280 characters")
}
