package caption

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// Rasterizer paints layouts onto transparent canvases. It owns a font face and
// must not be shared between goroutines.
type Rasterizer struct {
	style Style
	face  font.Face
}

// NewRasterizer returns a rasterizer drawing with face.
func NewRasterizer(style Style, face font.Face) *Rasterizer {
	return &Rasterizer{style: style, face: face}
}

// Render paints layout onto a new canvas sized to the layout. Each word is
// drawn as highlight box, then stroke, then fill.
func (r *Rasterizer) Render(layout Layout) *image.RGBA {
	width := max(int(math.Ceil(layout.Width)), 1)
	height := max(int(math.Ceil(layout.Height)), 1)
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	dc := gg.NewContextForRGBA(canvas)
	dc.SetFontFace(r.face)
	for _, line := range layout.Lines {
		baseline := line.Baseline()
		for _, word := range line.Words {
			if word.Text == "" {
				continue
			}
			fill := r.style.TextColor
			if word.Role == RoleHighlighted {
				r.drawHighlight(dc, word, baseline)
				fill = r.style.HighlightTextColor
			}
			r.drawStroke(dc, word, baseline)
			dc.SetColor(fill)
			dc.DrawString(word.Text, word.X, baseline)
		}
	}
	return canvas
}

// The box spans the advance horizontally so neighbouring boxes line up with
// word spacing, and the ink vertically so it hugs the glyphs.
func (r *Rasterizer) drawHighlight(dc *gg.Context, word PlacedWord, baseline float64) {
	top := baseline + word.Ink.MinY
	bottom := baseline + word.Ink.MaxY
	if word.Ink.Empty() {
		top, bottom = baseline, baseline
	}
	dc.SetColor(r.style.HighlightBGColor)
	dc.DrawRectangle(
		word.X-r.style.PaddingX,
		top-r.style.PaddingY,
		word.Advance+2*r.style.PaddingX,
		bottom-top+2*r.style.PaddingY,
	)
	dc.Fill()
}

func (r *Rasterizer) drawStroke(dc *gg.Context, word PlacedWord, baseline float64) {
	sw := r.style.StrokeWidth
	if sw <= 0 || isTransparent(r.style.StrokeColor) {
		return
	}
	dc.SetColor(r.style.StrokeColor)
	for dx := -sw; dx <= sw; dx++ {
		for dy := -sw; dy <= sw; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawString(word.Text, word.X+float64(dx), baseline+float64(dy))
		}
	}
}

func isTransparent(c color.RGBA) bool {
	return c.A == 0
}
