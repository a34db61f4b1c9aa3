package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	NBFrames   string `json:"nb_frames"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	// Disposition flags such as attached_pic mark embedded cover art.
	Disposition map[string]int `json:"disposition"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Parse(output)
}

// Parse decodes raw ffprobe JSON.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// StreamCount returns the number of streams of the given codec type
// ("video", "audio", "subtitle"). Cover art is not counted as video.
func (r Result) StreamCount(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, codecType) {
			continue
		}
		if strings.EqualFold(codecType, "video") && stream.IsAttachedPicture() {
			continue
		}
		count++
	}
	return count
}

// HasAudio reports whether any audio stream is present.
func (r Result) HasAudio() bool { return r.StreamCount("audio") > 0 }

// HasVideo reports whether a picture stream (moving or still) is present.
func (r Result) HasVideo() bool {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return true
		}
	}
	return false
}

// IsStillImage reports whether the input looks like a single picture rather
// than a timed recording.
func (r Result) IsStillImage() bool {
	if r.HasAudio() || !r.HasVideo() {
		return false
	}
	name := strings.ToLower(r.Format.FormatName)
	if strings.Contains(name, "image2") || strings.Contains(name, "_pipe") || strings.Contains(name, "heif") {
		return true
	}
	d := r.DurationSeconds()
	return d == 0 || math.IsNaN(d)
}

// IsAttachedPicture reports whether the stream is embedded cover art.
func (s Stream) IsAttachedPicture() bool {
	return s.Disposition["attached_pic"] == 1
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
