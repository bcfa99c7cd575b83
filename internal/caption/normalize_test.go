package caption

import "testing"

func TestNormalizeWord(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Hello,", "HELLO"},
		{" world.", "WORLD"},
		{"\"quoted\"", "QUOTED"},
		{"“curly”", "CURLY"},
		{"‘single’", "SINGLE"},
		{"don't", "DON'T"},
		{"well-known!?", "WELL-KNOWN"},
		{"e.g.", "E.G"},
		{"...", ""},
		{"", ""},
		{"über;", "ÜBER"},
		{"(aside)", "(ASIDE)"},
		{"'tis", "'TIS"},
	}
	for _, tc := range tests {
		if got := NormalizeWord(tc.raw); got != tc.want {
			t.Errorf("NormalizeWord(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
