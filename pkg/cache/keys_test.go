package cache

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"simple key", "user:123", false},
		{"underscores", "dog_rex_feeding", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 251), true},
		{"max length", strings.Repeat("a", 250), false},
		{"control character", "key\x00", true},
		{"newline", "key\nvalue", true},
		{"leading space", " key", true},
		{"trailing space", "key ", true},
		{"interior space", "two words", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr && err == nil {
				t.Errorf("expected error for %q", tt.key)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for %q: %v", tt.key, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}

func TestJoinKey(t *testing.T) {
	if got := JoinKey("dog", "rex", "feeding"); got != "dog:rex:feeding" {
		t.Errorf("expected dog:rex:feeding, got %s", got)
	}
	if got := JoinKey("single"); got != "single" {
		t.Errorf("expected single, got %s", got)
	}
}
