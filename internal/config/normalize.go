package config

import (
	"fmt"
	"os"
	"strings"

	"captioner/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.Style.normalize()
	c.normalizeRender()
	c.normalizeEncoder()
	c.normalizeTranscription()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (s *Style) normalize() {
	fonts := s.FontPath[:0]
	for _, path := range s.FontPath {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			fonts = append(fonts, trimmed)
		}
	}
	s.FontPath = fonts
	if len(s.FontPath) == 0 {
		s.FontPath = []string{defaultBuiltinFont}
	}
	s.VerticalAlign = strings.ToLower(strings.TrimSpace(s.VerticalAlign))
	if s.VerticalAlign == "" {
		s.VerticalAlign = AlignCenter
	}
	s.HorizontalAlign = strings.ToLower(strings.TrimSpace(s.HorizontalAlign))
	if s.HorizontalAlign == "" {
		s.HorizontalAlign = AlignCenter
	}
	s.TextColor = strings.TrimSpace(s.TextColor)
	s.StrokeColor = strings.TrimSpace(s.StrokeColor)
	s.HighlightTextColor = strings.TrimSpace(s.HighlightTextColor)
	s.HighlightBGColor = strings.TrimSpace(s.HighlightBGColor)
	s.OutputPath = strings.TrimSpace(s.OutputPath)
	if s.StrokeWidth < 0 {
		s.StrokeWidth = 0
	}
	if s.LineSpacing < 0 {
		s.LineSpacing = 0
	}
}

func (c *Config) normalizeRender() {
	c.Render.Mode = strings.ToLower(strings.TrimSpace(c.Render.Mode))
	switch c.Render.Mode {
	case "", "grouped", "group":
		c.Render.Mode = RenderModeGrouped
	case "word", "word_by_word", "word-by-word":
		c.Render.Mode = RenderModeWord
	}
	if c.Render.Workers < 0 {
		c.Render.Workers = 0
	}
	if c.Render.MinWordDuration <= 0 {
		c.Render.MinWordDuration = defaultMinWordDuration
	}
	if c.Render.VerticalMarginRatio <= 0 {
		c.Render.VerticalMarginRatio = defaultVerticalMargin
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Codec = strings.ToLower(strings.TrimSpace(c.Encoder.Codec))
	switch c.Encoder.Codec {
	case "", "x264", "h264", CodecX264:
		c.Encoder.Codec = CodecX264
	case "av1", CodecDrapto:
		c.Encoder.Codec = CodecDrapto
	}
	c.Encoder.Bitrate = strings.TrimSpace(c.Encoder.Bitrate)
	if c.Encoder.Bitrate == "" {
		c.Encoder.Bitrate = defaultEncoderBitrate
	}
	c.Encoder.Preset = strings.TrimSpace(c.Encoder.Preset)
	if c.Encoder.Preset == "" {
		c.Encoder.Preset = defaultEncoderPreset
	}
	c.Encoder.AudioCodec = strings.TrimSpace(c.Encoder.AudioCodec)
	if c.Encoder.AudioCodec == "" {
		c.Encoder.AudioCodec = defaultEncoderAudioCodec
	}
	c.Encoder.FFmpegBinary = strings.TrimSpace(c.Encoder.FFmpegBinary)
	if c.Encoder.FFmpegBinary == "" {
		c.Encoder.FFmpegBinary = "ffmpeg"
	}
	c.Encoder.FFprobeBinary = strings.TrimSpace(c.Encoder.FFprobeBinary)
	if c.Encoder.FFprobeBinary == "" {
		c.Encoder.FFprobeBinary = "ffprobe"
	}
	if c.Encoder.Threads < 0 {
		c.Encoder.Threads = 0
	}
	if c.Encoder.FPS < 0 {
		c.Encoder.FPS = 0
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.WhisperXModel = strings.TrimSpace(c.Transcription.WhisperXModel)
	if c.Transcription.WhisperXModel == "" {
		c.Transcription.WhisperXModel = defaultWhisperXModel
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultWhisperXVADMethod
	}
	if c.Transcription.HFToken == "" {
		for _, key := range []string{"HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.Transcription.HFToken = strings.TrimSpace(value)
				break
			}
		}
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if code, ok := language.Normalize(c.Transcription.Language); ok {
		c.Transcription.Language = code
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
