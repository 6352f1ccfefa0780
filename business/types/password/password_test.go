package password

import (
	"errors"
	"slices"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []error
	}{
		{
			name:  "acceptable",
			value: "Sup3rSecret!pass",
			want:  nil,
		},
		{
			name:  "no upper and no digit",
			value: "lowercaseonly!pass",
			want:  []error{ErrNoUpper, ErrNoDigit},
		},
		{
			name:  "too short",
			value: "Ab1!short",
			want:  []error{ErrTooShort},
		},
		{
			name:  "everything wrong",
			value: "aaaa",
			want:  []error{ErrTooShort, ErrNoUpper, ErrNoDigit, ErrNoSpecial},
		},
		{
			name:  "no special",
			value: "Abcdefgh12345",
			want:  []error{ErrNoSpecial},
		},
		{
			name:  "multibyte runes count once",
			value: "Pässwörd1!é",
			want:  []error{ErrTooShort},
		},
		{
			name:  "multibyte at the minimum",
			value: "Pässwörd123!",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.value)

			if len(got) != len(tt.want) {
				t.Fatalf("expected %d violations, got %d: %v", len(tt.want), len(got), got)
			}

			for _, want := range tt.want {
				if !slices.ContainsFunc(got, func(err error) bool { return errors.Is(err, want) }) {
					t.Errorf("missing violation %v in %v", want, got)
				}
			}
		})
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("Sup3rSecret!pass"); err != nil {
		t.Fatalf("expected valid password to parse: %v", err)
	}

	_, err := Parse("short")
	if err == nil {
		t.Fatal("expected weak password to be rejected")
	}
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("expected aggregated error to carry ErrTooShort, got %v", err)
	}
}
