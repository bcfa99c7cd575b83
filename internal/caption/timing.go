package caption

import (
	"errors"
	"fmt"
	"math"

	"captioner/internal/services"
)

// ErrBeyondVideo signals that a word starts at or after the end of the video.
// Scheduling stops at the first such word; it is not a failure.
var ErrBeyondVideo = errors.New("word starts beyond end of video")

// TimingResolver derives on-screen intervals from word timestamps. Each word
// stays visible until the next word starts, so consecutive steps cover the
// timeline without gaps.
type TimingResolver struct {
	words         []WordTimestamp
	videoDuration float64
}

// NewTimingResolver builds a resolver over words for a video of the given
// duration in seconds.
func NewTimingResolver(words []WordTimestamp, videoDuration float64) *TimingResolver {
	return &TimingResolver{words: words, videoDuration: videoDuration}
}

// Len reports the number of words.
func (r *TimingResolver) Len() int {
	return len(r.words)
}

// Resolve returns the timing of word i. It returns ErrBeyondVideo when the
// word starts at or after the end of the video. A non-positive Duration
// means the step should be skipped.
func (r *TimingResolver) Resolve(i int) (ResolvedTiming, error) {
	if i < 0 || i >= len(r.words) {
		return ResolvedTiming{}, services.Wrap(services.ErrValidation, "caption", "resolve timing", fmt.Sprintf("word index %d out of range [0,%d)", i, len(r.words)), nil)
	}
	start := r.words[i].Start
	if start >= r.videoDuration {
		return ResolvedTiming{Index: i, Start: start}, ErrBeyondVideo
	}
	end := r.words[i].End
	if i+1 < len(r.words) {
		end = r.words[i+1].Start
	}
	end = math.Min(end, r.videoDuration)
	return ResolvedTiming{
		Index:    i,
		Start:    start,
		End:      end,
		Duration: end - start,
	}, nil
}

// ValidateTimestamps rejects sequences the resolver cannot schedule: empty
// input, non-finite or negative times, a word ending before it starts, or
// start times that go backwards.
func ValidateTimestamps(words []WordTimestamp) error {
	if len(words) == 0 {
		return services.Wrap(services.ErrInputData, "caption", "validate timestamps", "transcript contains no words", nil)
	}
	prev := math.Inf(-1)
	for i, w := range words {
		if !isFinite(w.Start) || !isFinite(w.End) {
			return services.Wrap(services.ErrInputData, "caption", "validate timestamps", fmt.Sprintf("word %d (%q) has non-finite timing", i, w.Text), nil)
		}
		if w.Start < 0 {
			return services.Wrap(services.ErrInputData, "caption", "validate timestamps", fmt.Sprintf("word %d (%q) starts at negative time %.3f", i, w.Text, w.Start), nil)
		}
		if w.End < w.Start {
			return services.Wrap(services.ErrInputData, "caption", "validate timestamps", fmt.Sprintf("word %d (%q) ends at %.3f before it starts at %.3f", i, w.Text, w.End, w.Start), nil)
		}
		if w.Start < prev {
			return services.Wrap(services.ErrInputData, "caption", "validate timestamps", fmt.Sprintf("word %d (%q) starts at %.3f, before previous word at %.3f", i, w.Text, w.Start, prev), nil)
		}
		prev = w.Start
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// GroupBounds returns the half-open window [start, end) of the group holding
// word i when words are shown size at a time.
func GroupBounds(i, size, total int) (int, int) {
	if size < 1 {
		size = 1
	}
	start := (i / size) * size
	end := min(start+size, total)
	return start, end
}
