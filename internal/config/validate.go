package config

import (
	"errors"
	"fmt"
	"strings"

	"captioner/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.Style.Validate(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if topic := c.Notifications.NtfyTopic; topic != "" &&
		!strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) URL", topic)
	}
	if _, ok := language.Normalize(c.Transcription.Language); !ok {
		return fmt.Errorf("transcription.language %q is not a recognized language", c.Transcription.Language)
	}
	return c.validateLogging()
}

// Validate checks style values that the layout engine cannot recover from.
// Color names are checked when the renderer resolves them.
func (s Style) Validate() error {
	if s.FontSize <= 0 {
		return errors.New("style.font_size must be positive")
	}
	if s.WordCount < 1 {
		return errors.New("style.word_count must be at least 1")
	}
	if s.CaptionWidthRatio <= 0 || s.CaptionWidthRatio > 1 {
		return errors.New("style.caption_width_ratio must be in (0, 1]")
	}
	if s.FadeDuration < 0 {
		return errors.New("style.fade_duration must be >= 0")
	}
	if s.ScaleEffectIntensity < 0 || s.ScaleEffectIntensity >= 1 {
		return errors.New("style.scale_effect_intensity must be in [0, 1)")
	}
	if s.HighlightPadding[0] < 0 || s.HighlightPadding[1] < 0 {
		return errors.New("style.highlight_padding values must be >= 0")
	}
	switch s.HorizontalAlign {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		return fmt.Errorf("style.horizontal_align %q must be one of left, center, right", s.HorizontalAlign)
	}
	switch s.VerticalAlign {
	case AlignTop, AlignCenter, AlignBottom:
	default:
		return fmt.Errorf("style.vertical_align %q must be one of top, center, bottom", s.VerticalAlign)
	}
	for _, value := range []struct{ key, color string }{
		{"style.text_color", s.TextColor},
		{"style.stroke_color", s.StrokeColor},
		{"style.highlight_text_color", s.HighlightTextColor},
		{"style.highlight_bg_color", s.HighlightBGColor},
	} {
		if value.color == "" {
			return fmt.Errorf("%s must be set", value.key)
		}
	}
	return nil
}

func (c *Config) validateRender() error {
	switch c.Render.Mode {
	case RenderModeGrouped, RenderModeWord:
	default:
		return fmt.Errorf("render.mode %q must be %q or %q", c.Render.Mode, RenderModeGrouped, RenderModeWord)
	}
	if c.Render.VerticalMarginRatio >= 0.5 {
		return errors.New("render.vertical_margin_ratio must be below 0.5")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	switch c.Encoder.Codec {
	case CodecX264, CodecDrapto:
	default:
		return fmt.Errorf("encoder.codec %q must be %q or %q", c.Encoder.Codec, CodecX264, CodecDrapto)
	}
	if strings.ContainsAny(c.Encoder.Bitrate, " \t") {
		return fmt.Errorf("encoder.bitrate %q must not contain whitespace", c.Encoder.Bitrate)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
