// Package fonts loads caption fonts and picks one per render session.
//
// Font references are file paths or the builtin names "builtin:gobold" and
// "builtin:goregular", which resolve to the Go fonts bundled with
// golang.org/x/image. Only TrueType outlines (glyf) are supported; OpenType
// files with CFF outlines are rejected. Parsed fonts are immutable and safe to share across
// goroutines; faces are not, so each goroutine creates its own with NewFace.
package fonts

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"captioner/internal/services"
)

const builtinPrefix = "builtin:"

// cffMagic opens OpenType files that carry CFF outlines.
var cffMagic = []byte("OTTO")

var builtins = map[string][]byte{
	"gobold":    gobold.TTF,
	"goregular": goregular.TTF,
}

// Font is a parsed TrueType font.
type Font struct {
	name string
	ttf  *truetype.Font
}

// Name reports the reference the font was loaded from.
func (f *Font) Name() string {
	return f.name
}

// NewFace builds a face at size pixels (72 DPI, unhinted). Faces cache
// glyphs internally and must not be shared between goroutines.
func (f *Font) NewFace(size float64) font.Face {
	return truetype.NewFace(f.ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// IsBuiltin reports whether ref names a bundled font.
func IsBuiltin(ref string) bool {
	_, ok := builtins[strings.TrimPrefix(strings.TrimSpace(ref), builtinPrefix)]
	return ok && strings.HasPrefix(strings.TrimSpace(ref), builtinPrefix)
}

// Load parses the font named by ref.
func Load(ref string) (*Font, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, services.Wrap(services.ErrResource, "fonts", "load", "empty font reference", nil)
	}

	var data []byte
	if name, ok := strings.CutPrefix(ref, builtinPrefix); ok {
		builtin, found := builtins[name]
		if !found {
			return nil, services.Wrap(services.ErrResource, "fonts", "load", fmt.Sprintf("unknown builtin font %q", name), nil)
		}
		data = builtin
	} else {
		path := ref
		if strings.HasPrefix(path, "~") {
			if home, err := os.UserHomeDir(); err == nil {
				path = filepath.Join(home, strings.TrimPrefix(path[1:], string(filepath.Separator)))
			}
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, services.Wrap(services.ErrResource, "fonts", "read", ref, err)
		}
		data = raw
	}

	if bytes.HasPrefix(data, cffMagic) {
		return nil, services.Wrap(services.ErrResource, "fonts", "parse", ref+": CFF-flavored OpenType fonts are not supported, use a TrueType font", nil)
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, services.Wrap(services.ErrResource, "fonts", "parse", ref, err)
	}
	return &Font{name: ref, ttf: parsed}, nil
}

// Select picks one reference from refs. A zero seed draws from the process
// random source; any other seed makes the choice reproducible.
func Select(refs []string, seed uint64) (string, error) {
	candidates := make([]string, 0, len(refs))
	for _, ref := range refs {
		if trimmed := strings.TrimSpace(ref); trimmed != "" {
			candidates = append(candidates, trimmed)
		}
	}
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "fonts", "select", "no font paths configured", nil)
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if seed == 0 {
		return candidates[rand.IntN(len(candidates))], nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return candidates[rng.IntN(len(candidates))], nil
}

// SelectAndLoad combines Select and Load.
func SelectAndLoad(refs []string, seed uint64) (*Font, error) {
	ref, err := Select(refs, seed)
	if err != nil {
		return nil, err
	}
	return Load(ref)
}
