package config

const (
	defaultInputDir           = "~/.local/share/captioner/input"
	defaultOutputDir          = "~/.local/share/captioner/output"
	defaultWorkDir            = "~/.local/share/captioner/work"
	defaultLogDir             = "~/.local/share/captioner/logs"
	defaultAPIBind            = "127.0.0.1:8000"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultRenderMode         = RenderModeGrouped
	defaultMinWordDuration    = 0.05
	defaultVerticalMargin     = 0.1
	defaultEncoderCodec       = CodecX264
	defaultEncoderBitrate     = "8000k"
	defaultEncoderPreset      = "medium"
	defaultEncoderAudioCodec  = "aac"
	defaultFallbackFPS        = 24
	defaultWhisperXModel      = "large-v3"
	defaultWhisperXVADMethod  = "silero"
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 10
	defaultNotifyTimeout      = 10
	defaultBuiltinFont        = "builtin:gobold"
)

// DefaultStyle returns the caption style used when no overrides are supplied.
func DefaultStyle() Style {
	return Style{
		FontPath:             []string{defaultBuiltinFont},
		FontSize:             100,
		TextColor:            "white",
		StrokeColor:          "black",
		StrokeWidth:          3,
		VerticalAlign:        AlignCenter,
		HorizontalAlign:      AlignCenter,
		UseFadeAndScale:      true,
		FadeDuration:         0.2,
		ScaleEffectIntensity: 0.15,
		WordCount:            4,
		LineSpacing:          10,
		CaptionWidthRatio:    0.9,
		HighlightText:        true,
		HighlightTextColor:   "white",
		HighlightBGColor:     "#FF6B6B",
		HighlightPadding:     [2]int{10, 5},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Style: DefaultStyle(),
		Render: Render{
			Mode:                defaultRenderMode,
			MinWordDuration:     defaultMinWordDuration,
			VerticalMarginRatio: defaultVerticalMargin,
		},
		Encoder: Encoder{
			Codec:         defaultEncoderCodec,
			Bitrate:       defaultEncoderBitrate,
			Preset:        defaultEncoderPreset,
			AudioCodec:    defaultEncoderAudioCodec,
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Transcription: Transcription{
			WhisperXModel: defaultWhisperXModel,
			VADMethod:     defaultWhisperXVADMethod,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			OnSuccess:      true,
			OnFailure:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
