package session

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"main", false},
		{"bot-2", false},
		{"support_desk", false},
		{"a", false},
		{strings.Repeat("b", 64), false},
		{"", true},
		{"Main", true},
		{"two words", true},
		{"dot.name", true},
		{strings.Repeat("b", 65), true},
		{"../escape", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestResolveValid(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	if _, err := ResolveValid("Bad Name"); err == nil {
		t.Error("ResolveValid() should reject an invalid flag value")
	}
	name, err := ResolveValid("")
	if err != nil || name != DefaultSessionName {
		t.Errorf("ResolveValid(\"\") = %q, %v", name, err)
	}
}
