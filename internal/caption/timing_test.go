package caption

import (
	"errors"
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"captioner/internal/services"
)

func randomTimestamps(faker *gofakeit.Faker, n int) []WordTimestamp {
	words := make([]WordTimestamp, 0, n)
	t := 0.0
	for range n {
		t += faker.Float64Range(0, 0.8)
		words = append(words, WordTimestamp{
			Text:  faker.Word(),
			Start: t,
			End:   t + faker.Float64Range(0.05, 1.2),
		})
	}
	return words
}

func TestResolveContinuityAndClamping(t *testing.T) {
	faker := gofakeit.New(11)
	for trial := range 50 {
		words := randomTimestamps(faker, faker.IntRange(1, 40))
		last := words[len(words)-1]
		duration := faker.Float64Range(last.Start*0.5, last.End+1)
		if duration <= 0 {
			duration = 0.5
		}
		resolver := NewTimingResolver(words, duration)

		for i := range words {
			timing, err := resolver.Resolve(i)
			if errors.Is(err, ErrBeyondVideo) {
				if words[i].Start < duration {
					t.Fatalf("trial %d: word %d at %.3f reported beyond video %.3f", trial, i, words[i].Start, duration)
				}
				continue
			}
			if err != nil {
				t.Fatalf("trial %d: Resolve(%d): %v", trial, i, err)
			}
			if timing.End > duration {
				t.Fatalf("trial %d: word %d ends at %.3f after video end %.3f", trial, i, timing.End, duration)
			}
			want := last.End
			if i+1 < len(words) {
				want = words[i+1].Start
			}
			want = math.Min(want, duration)
			if timing.End != want {
				t.Fatalf("trial %d: word %d end = %.6f, want %.6f", trial, i, timing.End, want)
			}
			if timing.Duration != timing.End-timing.Start {
				t.Fatalf("trial %d: inconsistent duration %+v", trial, timing)
			}
		}
	}
}

func TestResolveBeyondVideo(t *testing.T) {
	words := []WordTimestamp{{Text: "a", Start: 4.0, End: 4.5}, {Text: "b", Start: 5.2, End: 5.6}}
	resolver := NewTimingResolver(words, 5.0)

	timing, err := resolver.Resolve(0)
	if err != nil {
		t.Fatalf("Resolve(0): %v", err)
	}
	if timing.End != 5.0 || timing.Duration != 1.0 {
		t.Fatalf("unexpected clamped timing %+v", timing)
	}
	if _, err := resolver.Resolve(1); !errors.Is(err, ErrBeyondVideo) {
		t.Fatalf("expected ErrBeyondVideo, got %v", err)
	}
}

func TestResolveZeroDurationAtSharedStart(t *testing.T) {
	words := []WordTimestamp{{Text: "a", Start: 2, End: 2.4}, {Text: "b", Start: 2, End: 2.8}}
	timing, err := NewTimingResolver(words, 10).Resolve(0)
	if err != nil {
		t.Fatalf("Resolve(0): %v", err)
	}
	if timing.Duration != 0 {
		t.Fatalf("expected zero duration, got %+v", timing)
	}
}

func TestResolveOutOfRange(t *testing.T) {
	resolver := NewTimingResolver([]WordTimestamp{{Text: "a", Start: 0, End: 1}}, 2)
	for _, i := range []int{-1, 1} {
		if _, err := resolver.Resolve(i); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Resolve(%d): expected validation error, got %v", i, err)
		}
	}
}

func TestValidateTimestamps(t *testing.T) {
	tests := []struct {
		name  string
		words []WordTimestamp
		ok    bool
	}{
		{"empty", nil, false},
		{"valid", []WordTimestamp{{"a", 0, 1}, {"b", 1, 2}, {"c", 1, 1.5}}, true},
		{"backwards", []WordTimestamp{{"a", 1, 2}, {"b", 0.5, 1}}, false},
		{"negative", []WordTimestamp{{"a", -0.1, 1}}, false},
		{"end before start", []WordTimestamp{{"a", 2, 1}}, false},
		{"nan", []WordTimestamp{{"a", math.NaN(), 1}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTimestamps(tc.words)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, services.ErrInputData) {
				t.Fatalf("expected input data error, got %v", err)
			}
		})
	}
}

func TestGroupBounds(t *testing.T) {
	const total, size = 9, 4
	want := [][2]int{{0, 4}, {0, 4}, {0, 4}, {0, 4}, {4, 8}, {4, 8}, {4, 8}, {4, 8}, {8, 9}}
	for i := range total {
		start, end := GroupBounds(i, size, total)
		if start != want[i][0] || end != want[i][1] {
			t.Fatalf("GroupBounds(%d) = [%d,%d), want [%d,%d)", i, start, end, want[i][0], want[i][1])
		}
	}
	if start, _ := GroupBounds(5, size, total); start != 4 {
		t.Fatalf("word 5 should belong to group starting at 4, got %d", start)
	}
	if start, end := GroupBounds(3, 0, total); start != 3 || end != 4 {
		t.Fatalf("non-positive size should behave as 1, got [%d,%d)", start, end)
	}
}
