package compositor

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"captioner/internal/caption"
)

// Compose draws every clip active at t onto dst, in slice order.
func Compose(dst *image.RGBA, clips []caption.OverlayClip, t float64) {
	for i := range clips {
		if clips[i].ActiveAt(t) {
			drawClip(dst, &clips[i], t-clips[i].Start)
		}
	}
}

// drawClip scales the canvas about its center and blends it with a uniform
// opacity mask.
func drawClip(dst *image.RGBA, clip *caption.OverlayClip, local float64) {
	if clip.Canvas == nil {
		return
	}
	scale, opacity := clip.Animation.FactorAt(local, clip.Duration)
	alpha := uint8(math.Round(clamp01(opacity) * 255))
	if alpha == 0 {
		return
	}

	src := clip.Canvas.Bounds()
	width := int(math.Round(float64(src.Dx()) * scale))
	height := int(math.Round(float64(src.Dy()) * scale))
	if width <= 0 || height <= 0 {
		return
	}
	centerX := float64(clip.Position.X) + float64(src.Dx())/2
	centerY := float64(clip.Position.Y) + float64(src.Dy())/2
	minX := int(math.Round(centerX - float64(width)/2))
	minY := int(math.Round(centerY - float64(height)/2))
	target := image.Rect(minX, minY, minX+width, minY+height)
	if !target.Overlaps(dst.Bounds()) {
		return
	}

	var mask image.Image
	if alpha < 255 {
		mask = image.NewUniform(color.Alpha{A: alpha})
	}
	if width == src.Dx() && height == src.Dy() {
		draw.DrawMask(dst, target, clip.Canvas, src.Min, mask, image.Point{}, draw.Over)
		return
	}
	draw.ApproxBiLinear.Scale(dst, target, clip.Canvas, src, draw.Over, &draw.Options{DstMask: mask})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
