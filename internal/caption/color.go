package caption

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"captioner/internal/services"
)

// ParseColor accepts SVG color names ("white", "tomato"), "transparent", and
// hex forms #RGB, #RRGGBB and #RRGGBBAA.
func ParseColor(value string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return color.RGBA{}, colorError(value, "empty color")
	case v == "transparent" || v == "none":
		return color.RGBA{}, nil
	case strings.HasPrefix(v, "#"):
		return parseHex(value, v[1:])
	}
	if named, ok := colornames.Map[v]; ok {
		return named, nil
	}
	return color.RGBA{}, colorError(value, "unknown color name")
}

func parseHex(original, hex string) (color.RGBA, error) {
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, colorError(original, "hex color must have 3, 6 or 8 digits")
	}
	raw, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, colorError(original, "invalid hex digits")
	}
	// Straight alpha in the document, premultiplied in color.RGBA.
	r, g, b, a := uint8(raw>>24), uint8(raw>>16), uint8(raw>>8), uint8(raw)
	return color.RGBA{
		R: premultiply(r, a),
		G: premultiply(g, a),
		B: premultiply(b, a),
		A: a,
	}, nil
}

func premultiply(c, a uint8) uint8 {
	return uint8((uint32(c)*uint32(a) + 127) / 255)
}

func colorError(value, reason string) error {
	return services.Wrap(services.ErrConfiguration, "caption", "parse color", fmt.Sprintf("%q: %s", value, reason), nil)
}
