package caption

import (
	"fmt"
	"image/color"
	"math"

	"captioner/internal/config"
	"captioner/internal/services"
)

// Style is the resolved, immutable appearance of a render session.
type Style struct {
	FontSize        float64
	TextColor       color.RGBA
	StrokeColor     color.RGBA
	StrokeWidth     int
	LineSpacing     float64
	WidthRatio      float64
	HorizontalAlign string
	VerticalAlign   string

	Highlight          bool
	HighlightTextColor color.RGBA
	HighlightBGColor   color.RGBA
	PaddingX           float64
	PaddingY           float64

	Animate        bool
	FadeDuration   float64
	ScaleIntensity float64

	GroupSize int
}

// StyleFromConfig resolves colors and numeric settings from a config style.
func StyleFromConfig(cfg config.Style) (Style, error) {
	if cfg.FontSize <= 0 {
		return Style{}, services.Wrap(services.ErrConfiguration, "caption", "style", fmt.Sprintf("font_size must be positive, got %d", cfg.FontSize), nil)
	}
	if cfg.CaptionWidthRatio <= 0 || cfg.CaptionWidthRatio > 1 {
		return Style{}, services.Wrap(services.ErrConfiguration, "caption", "style", fmt.Sprintf("caption_width_ratio must be in (0,1], got %g", cfg.CaptionWidthRatio), nil)
	}

	style := Style{
		FontSize:        float64(cfg.FontSize),
		StrokeWidth:     max(cfg.StrokeWidth, 0),
		LineSpacing:     float64(max(cfg.LineSpacing, 0)),
		WidthRatio:      cfg.CaptionWidthRatio,
		HorizontalAlign: cfg.HorizontalAlign,
		VerticalAlign:   cfg.VerticalAlign,
		Highlight:       cfg.HighlightText,
		PaddingX:        float64(max(cfg.HighlightPadding[0], 0)),
		PaddingY:        float64(max(cfg.HighlightPadding[1], 0)),
		Animate:         cfg.UseFadeAndScale,
		FadeDuration:    max(cfg.FadeDuration, 0),
		ScaleIntensity:  cfg.ScaleEffectIntensity,
		GroupSize:       max(cfg.WordCount, 1),
	}

	colors := []struct {
		key   string
		value string
		dst   *color.RGBA
	}{
		{"text_color", cfg.TextColor, &style.TextColor},
		{"stroke_color", cfg.StrokeColor, &style.StrokeColor},
		{"highlight_text_color", cfg.HighlightTextColor, &style.HighlightTextColor},
		{"highlight_bg_color", cfg.HighlightBGColor, &style.HighlightBGColor},
	}
	for _, c := range colors {
		parsed, err := ParseColor(c.value)
		if err != nil {
			return Style{}, fmt.Errorf("style.%s: %w", c.key, err)
		}
		*c.dst = parsed
	}
	return style, nil
}

// Animation returns the animation attached to every clip of the session.
func (s Style) Animation() Animation {
	return Animation{
		Enabled:      s.Animate,
		FadeDuration: s.FadeDuration,
		Intensity:    s.ScaleIntensity,
	}
}

// MaxWidth is the caption area width for a frame videoWidth pixels wide.
func (s Style) MaxWidth(videoWidth int) float64 {
	return float64(int(float64(videoWidth) * s.WidthRatio))
}

func (s Style) layoutOptions(videoWidth int) LayoutOptions {
	return LayoutOptions{
		MaxWidth:    s.MaxWidth(videoWidth),
		LineSpacing: s.LineSpacing,
		FontSize:    s.FontSize,
		Align:       s.HorizontalAlign,
		TopInset:    s.topInset(),
	}
}

// topInset is the room above the first line needed by the highlight box and
// the stroke. One extra pixel keeps antialiased edges off row 0.
func (s Style) topInset() float64 {
	inset := float64(s.StrokeWidth)
	if s.Highlight {
		inset = max(inset, s.PaddingY)
	}
	if inset == 0 {
		return 0
	}
	return math.Ceil(inset) + 1
}
