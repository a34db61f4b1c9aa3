package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"mediaconv/internal/logging"
	"mediaconv/internal/media/ffprobe"
)

// FFprobe reads metadata with ffprobe and grabs a JPEG thumbnail with ffmpeg.
type FFprobe struct {
	FFprobeBinary  string
	FFmpegBinary   string
	ThumbnailWidth int
	Logger         *slog.Logger
}

// Probe inspects source. A missing thumbnail is not an error.
func (p *FFprobe) Probe(ctx context.Context, source string) (Metadata, error) {
	path, err := localSource(source)
	if err != nil {
		return Metadata{}, err
	}
	result, err := ffprobe.Inspect(ctx, p.FFprobeBinary, path)
	if err != nil {
		return Metadata{}, &Error{Kind: ErrInvalidInput, Detail: "probe source", Err: err}
	}

	meta := Metadata{
		HasAudio: result.HasAudio(),
		HasVideo: result.HasVideo(),
	}
	if d := result.DurationSeconds(); d > 0 && !math.IsNaN(d) && !result.IsStillImage() {
		meta.Duration = &d
	}
	size := result.SizeBytes()
	if info, statErr := os.Stat(path); statErr == nil {
		size = info.Size()
	}
	meta.Size = &size

	if meta.HasVideo {
		thumb, err := p.thumbnail(ctx, path, result.IsStillImage())
		if err != nil {
			p.logger().Debug("thumbnail extraction failed",
				logging.String("source", path),
				logging.Error(err),
			)
		} else {
			meta.Thumbnail = thumb
		}
	}
	return meta, nil
}

func (p *FFprobe) thumbnail(ctx context.Context, path string, still bool) ([]byte, error) {
	width := p.ThumbnailWidth
	if width <= 0 {
		width = 320
	}
	args := []string{"-hide_banner", "-loglevel", "error"}
	if !still {
		args = append(args, "-ss", "1")
	}
	args = append(args,
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)
	binary := strings.TrimSpace(p.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg thumbnail: %w", err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("ffmpeg thumbnail: empty output")
	}
	return output, nil
}

func (p *FFprobe) logger() *slog.Logger {
	if p.Logger == nil {
		return logging.NewNop()
	}
	return p.Logger
}
