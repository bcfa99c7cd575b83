package caption

import (
	"math"

	"captioner/internal/config"
)

// DescenderPadding is added below the last line, as a fraction of the font
// size, so glyph tails are not clipped.
const DescenderPadding = 0.4

// LayoutOptions controls line wrapping and placement.
type LayoutOptions struct {
	MaxWidth    float64
	LineSpacing float64
	FontSize    float64
	Align       string
	// TopInset shifts the first line down so decorations drawn above the
	// ink (highlight padding, stroke) stay inside the canvas.
	TopInset float64
}

// Layout is the wrapped geometry of one caption group.
type Layout struct {
	Lines      []Line
	Width      float64
	Height     float64
	SpaceWidth float64
	// Overflow lists words wider than MaxWidth. Each sits alone on its line.
	Overflow []string
}

// WordCount reports the number of words across all lines.
func (l Layout) WordCount() int {
	n := 0
	for _, line := range l.Lines {
		n += len(line.Words)
	}
	return n
}

// Words returns the placed words in reading order.
func (l Layout) Words() []PlacedWord {
	words := make([]PlacedWord, 0, l.WordCount())
	for _, line := range l.Lines {
		words = append(words, line.Words...)
	}
	return words
}

// WithHighlight returns a copy of the layout in which the word at position
// index (in reading order) is highlighted and every other word is normal.
// A negative index clears all highlights. Geometry is unchanged.
func (l Layout) WithHighlight(index int) Layout {
	out := l
	out.Lines = make([]Line, len(l.Lines))
	n := 0
	for i, line := range l.Lines {
		words := make([]PlacedWord, len(line.Words))
		for j, w := range line.Words {
			w.Role = RoleNormal
			if n == index {
				w.Role = RoleHighlighted
			}
			words[j] = w
			n++
		}
		line.Words = words
		out.Lines[i] = line
	}
	return out
}

// LayoutWords wraps words greedily into lines no wider than opts.MaxWidth.
// Widths use advance, not ink, so spacing stays even. A word that is wider
// than MaxWidth on its own is placed alone on a line and overflows.
func LayoutWords(words []StyledWord, opts LayoutOptions, metrics Metrics) Layout {
	space := metrics.Advance(" ")
	out := Layout{Width: opts.MaxWidth, SpaceWidth: space}

	var current []PlacedWord
	lineWidth := 0.0
	closeLine := func() {
		if len(current) == 0 {
			return
		}
		out.Lines = append(out.Lines, buildLine(current, lineWidth))
		current = nil
		lineWidth = 0
	}

	for _, word := range words {
		advance := metrics.Advance(word.Text)
		if len(current) > 0 && lineWidth+space+advance > opts.MaxWidth {
			closeLine()
		}
		if len(current) > 0 {
			lineWidth += space
		}
		if advance > opts.MaxWidth {
			out.Overflow = append(out.Overflow, word.Text)
		}
		current = append(current, PlacedWord{
			Text:    word.Text,
			Role:    word.Role,
			X:       lineWidth,
			Advance: advance,
			Ink:     metrics.Ink(word.Text),
		})
		lineWidth += advance
	}
	closeLine()

	y := max(opts.TopInset, 0)
	for i := range out.Lines {
		line := &out.Lines[i]
		offset := alignOffset(opts.Align, opts.MaxWidth, line.Width)
		for j := range line.Words {
			line.Words[j].X += offset
		}
		line.Y = y
		y += line.Height + opts.LineSpacing
	}
	out.Height = y + DescenderPadding*opts.FontSize
	return out
}

// buildLine measures a closed line. Height spans the highest ascender to the
// lowest descender among its words so mixed glyph shapes share one baseline.
func buildLine(words []PlacedWord, width float64) Line {
	ascent, descent := 0.0, 0.0
	for _, w := range words {
		if w.Ink.Empty() {
			continue
		}
		ascent = math.Max(ascent, -w.Ink.MinY)
		descent = math.Max(descent, w.Ink.MaxY)
	}
	return Line{
		Words:  words,
		Width:  width,
		Height: ascent + descent,
		Ascent: ascent,
	}
}

func alignOffset(align string, maxWidth, lineWidth float64) float64 {
	switch align {
	case config.AlignLeft:
		return 0
	case config.AlignRight:
		return maxWidth - lineWidth
	default:
		return (maxWidth - lineWidth) / 2
	}
}
