package textutil

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  clip.mp4 ", "clip.mp4"},
		{"a/b\\c:d*e.mp4", "a-b-c-d-e.mp4"},
		{`what?"<now>|.mov`, "whatnow.mov"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("My Video!"); got != "my_video" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := SanitizeToken("***"); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestRandomName(t *testing.T) {
	seen := make(map[string]struct{})
	for range 50 {
		name := RandomName(12)
		if len(name) != 12 {
			t.Fatalf("expected 12 characters, got %q", name)
		}
		if strings.Trim(name, nameAlphabet) != "" {
			t.Fatalf("unexpected characters in %q", name)
		}
		seen[name] = struct{}{}
	}
	if len(seen) < 49 {
		t.Fatalf("random names collide too often: %d unique", len(seen))
	}
}

func TestOutputPath(t *testing.T) {
	path := OutputPath("/out", "mp4")
	if filepath.Dir(path) != "/out" || filepath.Ext(path) != ".mp4" {
		t.Fatalf("unexpected output path %q", path)
	}
	if filepath.Ext(OutputPath("/out", "")) != ".mp4" {
		t.Fatal("expected default extension")
	}
}

func TestUploadName(t *testing.T) {
	if got := UploadName("abc", "../My Clip.mp4"); got != "abc_My_Clip.mp4" {
		t.Fatalf("unexpected upload name %q", got)
	}
	if got := UploadName("abc", ""); got != "abc" {
		t.Fatalf("unexpected upload name %q", got)
	}
}
