package testsupport

import (
	"testing"

	"captioner/internal/fonts"
)

// GoFont loads the bundled Go regular font.
func GoFont(t testing.TB) *fonts.Font {
	t.Helper()

	f, err := fonts.Load("builtin:goregular")
	if err != nil {
		t.Fatalf("load builtin font: %v", err)
	}
	return f
}
