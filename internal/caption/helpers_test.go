package caption

import "unicode/utf8"

// stubMetrics gives every rune a fixed advance unless a width is pinned.
type stubMetrics struct {
	space   float64
	perRune float64
	widths  map[string]float64
}

func (m stubMetrics) Advance(text string) float64 {
	if text == " " {
		return m.space
	}
	if w, ok := m.widths[text]; ok {
		return w
	}
	return m.perRune * float64(utf8.RuneCountInString(text))
}

func (m stubMetrics) Ink(text string) InkBox {
	adv := m.Advance(text)
	if adv == 0 {
		return InkBox{}
	}
	return InkBox{MinX: 1, MinY: -70, MaxX: adv - 1, MaxY: 20}
}

func styled(words ...string) []StyledWord {
	out := make([]StyledWord, 0, len(words))
	for _, w := range words {
		out = append(out, StyledWord{Text: w})
	}
	return out
}
