package caption

import (
	"slices"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"captioner/internal/config"
)

func TestLayoutWrapsAtMaxWidth(t *testing.T) {
	metrics := stubMetrics{space: 10, widths: map[string]float64{"ONE": 120, "TWO": 120, "SIX": 120}}
	layout := LayoutWords(styled("ONE", "TWO", "SIX"), LayoutOptions{MaxWidth: 300, FontSize: 100, Align: config.AlignLeft}, metrics)

	if len(layout.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(layout.Lines))
	}
	first, second := layout.Lines[0], layout.Lines[1]
	if len(first.Words) != 2 || first.Width != 250 {
		t.Fatalf("unexpected first line: %d words, width %v", len(first.Words), first.Width)
	}
	if len(second.Words) != 1 || second.Words[0].Text != "SIX" || second.Width != 120 {
		t.Fatalf("unexpected second line %+v", second)
	}
	if first.Words[1].X != 130 {
		t.Fatalf("second word should start after one space, got x=%v", first.Words[1].X)
	}
	if len(layout.Overflow) != 0 {
		t.Fatalf("no overflow expected, got %v", layout.Overflow)
	}
}

func TestLayoutAlignment(t *testing.T) {
	metrics := stubMetrics{space: 10, widths: map[string]float64{"A": 100}}
	tests := []struct {
		align string
		wantX float64
	}{
		{config.AlignLeft, 0},
		{config.AlignCenter, 200},
		{config.AlignRight, 400},
	}
	for _, tc := range tests {
		layout := LayoutWords(styled("A"), LayoutOptions{MaxWidth: 500, Align: tc.align}, metrics)
		if got := layout.Lines[0].Words[0].X; got != tc.wantX {
			t.Errorf("align %s: x = %v, want %v", tc.align, got, tc.wantX)
		}
	}
}

func TestLayoutTopInsetShiftsLines(t *testing.T) {
	metrics := stubMetrics{space: 10, perRune: 50}
	opts := LayoutOptions{MaxWidth: 200, LineSpacing: 8, FontSize: 100, TopInset: 6}
	layout := LayoutWords(styled("AAA", "BBB"), opts, metrics)

	if layout.Lines[0].Y != 6 || layout.Lines[1].Y != 6+90+8 {
		t.Fatalf("line y = %v, %v", layout.Lines[0].Y, layout.Lines[1].Y)
	}
	if want := 6 + 2*(90+8) + 0.4*100; layout.Height != want {
		t.Fatalf("height = %v, want %v", layout.Height, want)
	}
}

func TestLayoutVerticalStacking(t *testing.T) {
	metrics := stubMetrics{space: 10, perRune: 50}
	opts := LayoutOptions{MaxWidth: 200, LineSpacing: 8, FontSize: 100}
	layout := LayoutWords(styled("AAA", "BBB", "CCC"), opts, metrics)

	if len(layout.Lines) != 3 {
		t.Fatalf("expected one word per line, got %d lines", len(layout.Lines))
	}
	for i, line := range layout.Lines {
		if line.Height != 90 || line.Ascent != 70 {
			t.Fatalf("line %d: height %v ascent %v", i, line.Height, line.Ascent)
		}
		if want := float64(i) * (90 + 8); line.Y != want {
			t.Fatalf("line %d: y = %v, want %v", i, line.Y, want)
		}
	}
	if want := 3*(90+8) + 0.4*100; layout.Height != want {
		t.Fatalf("height = %v, want %v", layout.Height, want)
	}
	if layout.Width != 200 {
		t.Fatalf("width = %v, want max width", layout.Width)
	}
}

func TestLayoutOversizedWordSitsAlone(t *testing.T) {
	metrics := stubMetrics{space: 10, widths: map[string]float64{"HI": 50, "SUPERCALIFRAGILISTIC": 600, "YO": 50}}
	layout := LayoutWords(styled("HI", "SUPERCALIFRAGILISTIC", "YO"), LayoutOptions{MaxWidth: 300}, metrics)

	if len(layout.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(layout.Lines))
	}
	long := layout.Lines[1]
	if len(long.Words) != 1 || long.Width != 600 {
		t.Fatalf("oversized word should be alone, got %+v", long)
	}
	if long.Words[0].X != -150 {
		t.Fatalf("centered overflow should extend evenly, got x=%v", long.Words[0].X)
	}
	if !slices.Equal(layout.Overflow, []string{"SUPERCALIFRAGILISTIC"}) {
		t.Fatalf("unexpected overflow %v", layout.Overflow)
	}
}

func TestLayoutOversizedFirstWord(t *testing.T) {
	metrics := stubMetrics{space: 10, widths: map[string]float64{"HUGE": 400, "A": 20}}
	layout := LayoutWords(styled("HUGE", "A"), LayoutOptions{MaxWidth: 300}, metrics)
	if len(layout.Lines) != 2 || len(layout.Lines[0].Words) != 1 {
		t.Fatalf("expected oversized first word alone, got %+v", layout.Lines)
	}
}

func TestLayoutPropertiesRandomized(t *testing.T) {
	faker := gofakeit.New(2024)
	for trial := range 200 {
		n := faker.IntRange(1, 12)
		words := make([]string, 0, n)
		for range n {
			words = append(words, NormalizeWord(faker.Word()))
		}
		metrics := stubMetrics{space: faker.Float64Range(4, 20), perRune: faker.Float64Range(10, 60)}
		opts := LayoutOptions{MaxWidth: faker.Float64Range(80, 900), LineSpacing: 10, FontSize: 60}
		layout := LayoutWords(styled(words...), opts, metrics)

		var got []string
		for li, line := range layout.Lines {
			if len(line.Words) == 0 {
				t.Fatalf("trial %d: empty line %d", trial, li)
			}
			sum := 0.0
			for _, w := range line.Words {
				sum += w.Advance
				got = append(got, w.Text)
			}
			sum += float64(len(line.Words)-1) * layout.SpaceWidth
			if len(line.Words) > 1 && sum > opts.MaxWidth+1e-9 {
				t.Fatalf("trial %d: line %d width %v exceeds %v", trial, li, sum, opts.MaxWidth)
			}
			if diff := sum - line.Width; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("trial %d: line %d width %v, recomputed %v", trial, li, line.Width, sum)
			}
		}

		want := slices.Clone(words)
		slices.Sort(want)
		slices.Sort(got)
		if !slices.Equal(want, got) {
			t.Fatalf("trial %d: words changed\nwant %v\ngot  %v", trial, want, got)
		}
	}
}

func TestWithHighlightIsExclusive(t *testing.T) {
	faker := gofakeit.New(7)
	metrics := stubMetrics{space: 10, perRune: 30}
	for range 50 {
		n := faker.IntRange(1, 8)
		words := make([]string, n)
		for i := range words {
			words[i] = NormalizeWord(faker.Word())
		}
		base := LayoutWords(styled(words...), LayoutOptions{MaxWidth: 250}, metrics)
		for idx := -1; idx < n; idx++ {
			highlighted := base.WithHighlight(idx)
			count := 0
			for pos, w := range highlighted.Words() {
				if w.Role == RoleHighlighted {
					count++
					if pos != idx {
						t.Fatalf("highlight on word %d, want %d", pos, idx)
					}
				}
			}
			if (idx < 0 && count != 0) || (idx >= 0 && count != 1) {
				t.Fatalf("index %d produced %d highlighted words", idx, count)
			}
		}
		for _, w := range base.Words() {
			if w.Role != RoleNormal {
				t.Fatal("WithHighlight mutated the base layout")
			}
		}
	}
}
