package caption

import (
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Metrics measures strings at a fixed font size.
type Metrics interface {
	// Advance is the distance the pen moves after drawing text.
	Advance(text string) float64
	// Ink is the bounding box of the pixels text would paint.
	Ink(text string) InkBox
}

// FaceMetrics measures with a font.Face. Like the face it wraps, it must not
// be used from more than one goroutine.
type FaceMetrics struct {
	face font.Face
}

// NewFaceMetrics wraps face.
func NewFaceMetrics(face font.Face) *FaceMetrics {
	return &FaceMetrics{face: face}
}

func (m *FaceMetrics) Advance(text string) float64 {
	return fixedToFloat(font.MeasureString(m.face, text))
}

func (m *FaceMetrics) Ink(text string) InkBox {
	bounds, _ := font.BoundString(m.face, text)
	return InkBox{
		MinX: fixedToFloat(bounds.Min.X),
		MinY: fixedToFloat(bounds.Min.Y),
		MaxX: fixedToFloat(bounds.Max.X),
		MaxY: fixedToFloat(bounds.Max.Y),
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
