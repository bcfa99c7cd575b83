package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Alignment values shared by horizontal and vertical caption placement.
const (
	AlignCenter = "center"
	AlignLeft   = "left"
	AlignRight  = "right"
	AlignTop    = "top"
	AlignBottom = "bottom"
)

// Render modes.
const (
	// RenderModeGrouped shows fixed-size word groups with the spoken word highlighted.
	RenderModeGrouped = "grouped"
	// RenderModeWord shows one word at a time.
	RenderModeWord = "word"
)

// Encoder codecs.
const (
	CodecX264   = "libx264"
	CodecDrapto = "drapto"
)

// Paths contains directory and bind address configuration. APIToken, when
// set, is required as a bearer token on API requests.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// Style contains caption appearance settings. Field names mirror the keys of
// the persisted style document.
type Style struct {
	FontPath             []string `toml:"font_path"`
	FontSize             int      `toml:"font_size"`
	TextColor            string   `toml:"text_color"`
	StrokeColor          string   `toml:"stroke_color"`
	StrokeWidth          int      `toml:"stroke_width"`
	VerticalAlign        string   `toml:"vertical_align"`
	HorizontalAlign      string   `toml:"horizontal_align"`
	UseFadeAndScale      bool     `toml:"use_fade_and_scale"`
	FadeDuration         float64  `toml:"fade_duration"`
	ScaleEffectIntensity float64  `toml:"scale_effect_intensity"`
	WordCount            int      `toml:"word_count"`
	LineSpacing          int      `toml:"line_spacing"`
	CaptionWidthRatio    float64  `toml:"caption_width_ratio"`
	HighlightText        bool     `toml:"highlight_text"`
	HighlightTextColor   string   `toml:"highlight_text_color"`
	HighlightBGColor     string   `toml:"highlight_bg_color"`
	HighlightPadding     [2]int   `toml:"highlight_padding"`
	OutputPath           string   `toml:"output_path"`
}

// Render contains caption scheduling settings.
type Render struct {
	Mode                string  `toml:"mode"`
	Workers             int     `toml:"workers"`
	FontSeed            uint64  `toml:"font_seed"`
	MinWordDuration     float64 `toml:"min_word_duration"`
	VerticalMarginRatio float64 `toml:"vertical_margin_ratio"`
}

// Encoder contains output encoding settings handed to ffmpeg.
type Encoder struct {
	Codec         string `toml:"codec"`
	Bitrate       string `toml:"bitrate"`
	Preset        string `toml:"preset"`
	Threads       int    `toml:"threads"`
	FPS           int    `toml:"fps"`
	AudioCodec    string `toml:"audio_codec"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Transcription contains WhisperX settings used when no transcript is supplied.
type Transcription struct {
	WhisperXModel string `toml:"whisperx_model"`
	CUDAEnabled   bool   `toml:"cuda_enabled"`
	VADMethod     string `toml:"vad_method"`
	HFToken       string `toml:"hf_token"`
	Language      string `toml:"language"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Notifications configures ntfy job alerts. An empty topic disables them.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnSuccess      bool   `toml:"on_success"`
	OnFailure      bool   `toml:"on_failure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for captioner.
//
// Configuration sections by subsystem:
//   - Paths: upload, output, scratch and log directories plus the API bind address
//   - Style: caption appearance defaults
//   - Render: grouped/word mode, worker count, font selection seed
//   - Encoder: ffmpeg/drapto output settings
//   - Transcription: WhisperX settings
//   - Workflow: daemon polling intervals
//   - Notifications: ntfy job alerts
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Style         Style         `toml:"style"`
	Render        Render        `toml:"render"`
	Encoder       Encoder       `toml:"encoder"`
	Transcription Transcription `toml:"transcription"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/captioner/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("captioner.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon and CLI operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.InputDir, c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EncoderThreads returns the thread-count hint passed to the encoder.
func (c *Config) EncoderThreads() int {
	if c.Encoder.Threads > 0 {
		return c.Encoder.Threads
	}
	return runtime.NumCPU()
}

// RenderWorkers returns the rasterization worker pool size.
func (c *Config) RenderWorkers() int {
	if c.Render.Workers > 0 {
		return c.Render.Workers
	}
	return runtime.NumCPU()
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// OutputFPS picks the frame rate used to compose the captioned video: the
// configured override, then the probed source rate, then a fixed fallback.
func (c *Config) OutputFPS(probed float64) float64 {
	if c.Encoder.FPS > 0 {
		return float64(c.Encoder.FPS)
	}
	if probed > 0 {
		return probed
	}
	return defaultFallbackFPS
}
