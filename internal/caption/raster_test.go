package caption

import (
	"image"
	"image/color"
	"testing"

	"captioner/internal/config"
	"captioner/internal/testsupport"
)

func rasterStyle(t *testing.T) Style {
	t.Helper()
	cfg := config.DefaultStyle()
	cfg.FontSize = 48
	cfg.StrokeWidth = 2
	cfg.TextColor = "white"
	cfg.StrokeColor = "black"
	cfg.HighlightTextColor = "yellow"
	cfg.HighlightBGColor = "#FF0000"
	cfg.HighlightPadding = [2]int{4, 4}
	style, err := StyleFromConfig(cfg)
	if err != nil {
		t.Fatalf("StyleFromConfig: %v", err)
	}
	return style
}

func countPixels(img *image.RGBA, rect image.Rectangle, match func(color.RGBA) bool) int {
	n := 0
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if match(img.RGBAAt(x, y)) {
				n++
			}
		}
	}
	return n
}

func isRed(c color.RGBA) bool    { return c.A == 255 && c.R > 200 && c.G < 60 && c.B < 60 }
func isBlack(c color.RGBA) bool  { return c.A == 255 && c.R < 40 && c.G < 40 && c.B < 40 }
func isWhite(c color.RGBA) bool  { return c.A == 255 && c.R > 215 && c.G > 215 && c.B > 215 }
func isYellow(c color.RGBA) bool { return c.A == 255 && c.R > 215 && c.G > 215 && c.B < 60 }

func TestRasterizerDrawsHighlightStrokeAndFill(t *testing.T) {
	style := rasterStyle(t)
	face := testsupport.GoFont(t).NewFace(style.FontSize)
	defer face.Close()

	opts := LayoutOptions{MaxWidth: 600, FontSize: style.FontSize, Align: config.AlignCenter}
	layout := LayoutWords(styled("HELLO", "WORLD"), opts, NewFaceMetrics(face)).WithHighlight(0)
	canvas := NewRasterizer(style, face).Render(layout)

	if canvas.Bounds().Dx() != 600 {
		t.Fatalf("canvas width = %d, want 600", canvas.Bounds().Dx())
	}
	if canvas.RGBAAt(0, 0).A != 0 || canvas.RGBAAt(599, canvas.Bounds().Dy()-1).A != 0 {
		t.Fatal("canvas corners should be transparent")
	}

	line := layout.Lines[0]
	hello, world := line.Words[0], line.Words[1]
	helloRect := image.Rect(int(hello.X), int(line.Y), int(hello.X+hello.Advance), int(line.Y+line.Height))
	worldRect := image.Rect(int(world.X), int(line.Y), int(world.X+world.Advance), int(line.Y+line.Height))

	if countPixels(canvas, helloRect, isRed) == 0 {
		t.Fatal("expected highlight background behind the highlighted word")
	}
	if countPixels(canvas, helloRect, isYellow) == 0 {
		t.Fatal("expected highlighted word filled with highlight text color")
	}
	if countPixels(canvas, worldRect, isRed) != 0 {
		t.Fatal("normal word must not carry a highlight background")
	}
	if countPixels(canvas, worldRect, isWhite) == 0 {
		t.Fatal("expected normal word filled with text color")
	}
	if countPixels(canvas, canvas.Bounds(), isBlack) == 0 {
		t.Fatal("expected stroke pixels")
	}
}

func TestRasterizerWithoutHighlightOrStroke(t *testing.T) {
	style := rasterStyle(t)
	style.StrokeWidth = 0
	face := testsupport.GoFont(t).NewFace(style.FontSize)
	defer face.Close()

	layout := LayoutWords(styled("HELLO"), LayoutOptions{MaxWidth: 400, FontSize: style.FontSize}, NewFaceMetrics(face))
	canvas := NewRasterizer(style, face).Render(layout)

	if countPixels(canvas, canvas.Bounds(), isRed) != 0 {
		t.Fatal("no highlight expected")
	}
	if countPixels(canvas, canvas.Bounds(), isBlack) != 0 {
		t.Fatal("no stroke expected")
	}
	if countPixels(canvas, canvas.Bounds(), isWhite) == 0 {
		t.Fatal("expected fill pixels")
	}
}

func TestRasterizerCanvasFitsLayout(t *testing.T) {
	style := rasterStyle(t)
	face := testsupport.GoFont(t).NewFace(style.FontSize)
	defer face.Close()

	opts := LayoutOptions{MaxWidth: 200, LineSpacing: 10, FontSize: style.FontSize}
	layout := LayoutWords(styled("CAPTIONS", "WRAP", "ONTO", "LINES"), opts, NewFaceMetrics(face))
	if len(layout.Lines) < 2 {
		t.Fatalf("expected wrapping, got %d lines", len(layout.Lines))
	}
	canvas := NewRasterizer(style, face).Render(layout)
	if canvas.Bounds().Dy() < int(layout.Height) {
		t.Fatalf("canvas height %d shorter than layout %v", canvas.Bounds().Dy(), layout.Height)
	}
	last := layout.Lines[len(layout.Lines)-1]
	band := image.Rect(0, int(last.Y), 200, int(last.Y+last.Height))
	if countPixels(canvas, band, isWhite) == 0 {
		t.Fatal("expected last line to be painted")
	}
}

func TestRasterizerKeepsFirstLineDecorationsOnCanvas(t *testing.T) {
	style, err := StyleFromConfig(config.DefaultStyle())
	if err != nil {
		t.Fatalf("StyleFromConfig: %v", err)
	}
	face := testsupport.GoFont(t).NewFace(style.FontSize)
	defer face.Close()

	opts := style.layoutOptions(1080)
	layout := LayoutWords(styled("HELLO", "WORLD"), opts, NewFaceMetrics(face)).WithHighlight(0)
	if got := layout.Lines[0].Y; got != opts.TopInset || got < style.PaddingY {
		t.Fatalf("first line Y = %v, want inset %v covering padding %v", got, opts.TopInset, style.PaddingY)
	}
	canvas := NewRasterizer(style, face).Render(layout)

	top := image.Rect(0, 0, canvas.Bounds().Dx(), 1)
	painted := countPixels(canvas, top, func(c color.RGBA) bool { return c.A != 0 })
	if painted != 0 {
		t.Fatalf("row 0 has %d painted pixels, want transparent", painted)
	}
	highlight := func(c color.RGBA) bool { return c.A == 255 && c.R > 230 && c.G > 90 && c.G < 130 }
	if countPixels(canvas, canvas.Bounds(), highlight) == 0 {
		t.Fatal("expected highlight background")
	}
}
