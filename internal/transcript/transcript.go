// Package transcript reads word timestamps from WhisperX JSON output or a
// flat word list and validates them for scheduling.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"captioner/internal/caption"
	"captioner/internal/logging"
	"captioner/internal/services"
)

// Word is one entry of a transcript. Start and End are pointers because
// WhisperX omits them for tokens it could not align.
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

// Segment is a WhisperX segment.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

type whisperXDocument struct {
	Segments     []Segment `json:"segments"`
	WordSegments []Word    `json:"word_segments"`
}

// Load reads and validates the transcript at path.
func Load(path string, logger *slog.Logger) ([]caption.WordTimestamp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrInputData, "transcript", "read", path, err)
	}
	return Parse(data, logger)
}

// Parse decodes a WhisperX document ({"segments":[{"words":[...]}]}) or a
// flat JSON array of words. Words without timing are dropped with a warning.
// The result is validated with caption.ValidateTimestamps.
func Parse(data []byte, logger *slog.Logger) ([]caption.WordTimestamp, error) {
	logger = logging.NewComponentLogger(logger, "transcript")
	raw, err := decode(data)
	if err != nil {
		return nil, err
	}

	words := make([]caption.WordTimestamp, 0, len(raw))
	dropped := 0
	for _, w := range raw {
		if w.Start == nil || w.End == nil {
			dropped++
			continue
		}
		if strings.TrimSpace(w.Word) == "" {
			dropped++
			continue
		}
		words = append(words, caption.WordTimestamp{Text: w.Word, Start: *w.Start, End: *w.End})
	}
	if dropped > 0 {
		logging.WarnWithContext(logger, "dropped transcript words without timing", "transcript_words_dropped",
			logging.Int("dropped", dropped),
			logging.Int("kept", len(words)),
			logging.String(logging.FieldImpact, "dropped words are not captioned"),
			logging.String(logging.FieldErrorHint, "numbers and symbols are often left unaligned by whisperx"),
		)
	}
	if err := caption.ValidateTimestamps(words); err != nil {
		return nil, err
	}
	return words, nil
}

func decode(data []byte) ([]Word, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, services.Wrap(services.ErrInputData, "transcript", "parse", "empty transcript", nil)
	}
	if trimmed[0] == '[' {
		var words []Word
		if err := json.Unmarshal(trimmed, &words); err != nil {
			return nil, services.Wrap(services.ErrInputData, "transcript", "parse", "word list", err)
		}
		return words, nil
	}

	var doc whisperXDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, services.Wrap(services.ErrInputData, "transcript", "parse", "whisperx document", err)
	}
	var words []Word
	for _, seg := range doc.Segments {
		words = append(words, seg.Words...)
	}
	if len(words) == 0 {
		words = doc.WordSegments
	}
	return words, nil
}

// Write stores words as a flat JSON word list.
func Write(path string, words []caption.WordTimestamp) error {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		start, end := w.Start, w.End
		out = append(out, Word{Word: w.Text, Start: &start, End: &end})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
