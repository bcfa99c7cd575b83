package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"slices"

	"captioner/internal/caption"
)

// FrameSource yields decoded video frames in presentation order.
type FrameSource interface {
	// Bounds is the size of every frame.
	Bounds() image.Rectangle
	// ReadFrame fills dst with the next frame and returns io.EOF after the
	// last one.
	ReadFrame(dst *image.RGBA) error
}

// FrameSink consumes composed frames in presentation order.
type FrameSink interface {
	WriteFrame(frame *image.RGBA) error
}

// ProgressFunc observes rendering after each frame. t is the timestamp of
// the frame just written.
type ProgressFunc func(frame int, t float64)

// Render copies every frame of src to sink with the clips composed on top.
// Frame n is composed at n/fps seconds. It returns the number of frames
// written.
func Render(ctx context.Context, src FrameSource, sink FrameSink, clips []caption.OverlayClip, fps float64, progress ProgressFunc) (int, error) {
	if fps <= 0 {
		return 0, fmt.Errorf("render: invalid frame rate %v", fps)
	}
	ordered := slices.Clone(clips)
	slices.SortStableFunc(ordered, func(a, b caption.OverlayClip) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})

	frame := image.NewRGBA(src.Bounds())
	first := 0
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		err := src.ReadFrame(frame)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read frame %d: %w", n, err)
		}

		t := float64(n) / fps
		for first < len(ordered) && ordered[first].End() <= t {
			first++
		}
		for i := first; i < len(ordered) && ordered[i].Start <= t; i++ {
			if ordered[i].ActiveAt(t) {
				drawClip(frame, &ordered[i], t-ordered[i].Start)
			}
		}

		if err := sink.WriteFrame(frame); err != nil {
			return n, fmt.Errorf("write frame %d: %w", n, err)
		}
		if progress != nil {
			progress(n+1, t)
		}
	}
}
