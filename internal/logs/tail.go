package logs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	pollInterval = 200 * time.Millisecond
	// maxTailBytes bounds how much of a file is scanned for the last lines.
	maxTailBytes = 4 << 20
)

// TailOptions controls a Tail call. A negative Offset returns the last Limit
// lines; otherwise every complete line after Offset is returned. With Follow
// set, Tail waits up to Wait for new lines when none are available.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult holds the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads complete lines from path. A missing file yields no lines and a
// zero offset.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	if opts.Offset < 0 {
		lines, end, err := lastLines(path, opts.Limit)
		if err != nil {
			return TailResult{}, err
		}
		if len(lines) > 0 || !opts.Follow {
			return TailResult{Lines: lines, Offset: end}, nil
		}
		opts.Offset = end
	}

	deadline := time.Now().Add(max(opts.Wait, 0))
	offset := opts.Offset
	for {
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return TailResult{Offset: offset}, err
		}
		if len(lines) > 0 || !opts.Follow || !time.Now().Before(deadline) {
			return TailResult{Lines: lines, Offset: next}, nil
		}
		offset = next

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return TailResult{Offset: offset}, ctx.Err()
		case <-timer.C:
		}
	}
}

// readFrom returns the complete lines after offset. An offset beyond the end
// of the file means it was truncated, and reading restarts at zero.
func readFrom(path string, offset int64) ([]string, int64, error) {
	data, start, err := readRange(path, offset)
	if err != nil || data == nil {
		return nil, start, err
	}
	complete := completePrefix(data)
	return splitLines(complete), start + int64(len(complete)), nil
}

func lastLines(path string, limit int) ([]string, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}

	from := max(info.Size()-maxTailBytes, 0)
	data, start, err := readRange(path, from)
	if err != nil || data == nil {
		return nil, start, err
	}
	if from > 0 {
		// Drop the partial line the window starts in.
		if nl := bytes.IndexByte(data, '\n'); nl >= 0 {
			data = data[nl+1:]
			start += int64(nl + 1)
		}
	}
	complete := completePrefix(data)
	end := start + int64(len(complete))
	if limit <= 0 {
		return nil, end, nil
	}
	lines := splitLines(complete)
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, end, nil
}

func readRange(path string, offset int64) ([]byte, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	return data, offset, nil
}

func completePrefix(data []byte) []byte {
	nl := bytes.LastIndexByte(data, '\n')
	if nl < 0 {
		return nil
	}
	return data[:nl+1]
}

func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	raw := bytes.Split(bytes.TrimSuffix(data, []byte{'\n'}), []byte{'\n'})
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = string(bytes.TrimSuffix(line, []byte{'\r'}))
	}
	return lines
}
