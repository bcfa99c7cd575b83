package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ResolveBinary returns configured when set, otherwise fallback.
func ResolveBinary(configured, fallback string) string {
	if value := strings.TrimSpace(configured); value != "" {
		return value
	}
	return fallback
}

// CheckFFmpegEncoder reports whether the ffmpeg build lists encoder among its
// video encoders.
func CheckFFmpegEncoder(ctx context.Context, binary, encoder string) Status {
	binary = ResolveBinary(binary, "ffmpeg")
	result := Status{
		Name:        "FFmpeg " + encoder,
		Command:     binary,
		Description: "Encoder used for captioned output",
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		result.Detail = fmt.Sprintf("list encoders: %v", err)
		return result
	}
	if hasEncoder(output, encoder) {
		result.Available = true
		return result
	}
	result.Detail = fmt.Sprintf("ffmpeg build lacks %s", encoder)
	return result
}

// hasEncoder scans `ffmpeg -encoders` output, whose rows look like
// " V....D libx264              libx264 H.264 ...".
func hasEncoder(listing []byte, encoder string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == encoder {
			return true
		}
	}
	return false
}
