package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// MediaRequirements lists the codec tools used for conversion and probing.
// ffprobe is optional: without it items convert without metadata.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpegBinary,
			Description: "Required for conversion",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobeBinary,
			Description: "Used for duration, size, and thumbnails",
			Optional:    true,
		},
	}
}

// ToolVersion runs "<binary> -version" and returns the first output line.
func ToolVersion(ctx context.Context, binary string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return "", fmt.Errorf("tool version: empty binary")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	output, err := exec.CommandContext(ctx, binary, "-version").Output() //nolint:gosec
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", binary, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return strings.TrimSpace(line), nil
}
