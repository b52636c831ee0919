package domain

import "testing"

func TestNormalizeNIC(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"digits only", "3520212345678", "3520212345678"},
		{"dashed", "35202-1234567-8", "3520212345678"},
		{"terminal check letter", "942751234v", "942751234V"},
		{"uppercase check letter", "942751234V", "942751234V"},
		{"spaces and punctuation", " 35202.1234567/8 ", "3520212345678"},
		{"other letters stripped", "NIC35202X8", "352028"},
		{"empty", "", ""},
		{"only junk", "---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeNIC(tt.raw); got != tt.want {
				t.Errorf("NormalizeNIC(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPlaceholderEmail(t *testing.T) {
	got := PlaceholderEmail("942751234V")
	want := "942751234v@registry.local"
	if got != want {
		t.Errorf("PlaceholderEmail() = %q, want %q", got, want)
	}
}
