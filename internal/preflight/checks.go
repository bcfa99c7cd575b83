package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"captioner/internal/config"
	"captioner/internal/deps"
)

// minFreeBytes is the free space below which a render directory is flagged.
const minFreeBytes = 2 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace reports whether the filesystem holding path has room for
// intermediate frames and encodes.
func CheckFreeSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%s free)", path, formatBytes(free))
	if free < minFreeBytes {
		return Result{Name: name, Detail: detail + " below " + formatBytes(minFreeBytes)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates all external tools needed by cfg. Both the daemon
// and the CLI status command use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     deps.ResolveBinary(cfg.Encoder.FFmpegBinary, "ffmpeg"),
			Description: "Required for decoding and encoding video",
		},
		{
			Name:        "FFprobe",
			Command:     deps.ResolveBinary(cfg.Encoder.FFprobeBinary, "ffprobe"),
			Description: "Required for media inspection",
		},
		{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Runs WhisperX when no transcript is supplied",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// encoderCheck confirms libx264 is compiled in; the drapto path uses it for
// the intermediate too.
func encoderCheck(ctx context.Context, cfg *config.Config) Result {
	status := deps.CheckFFmpegEncoder(ctx, cfg.Encoder.FFmpegBinary, config.CodecX264)
	return Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
}
