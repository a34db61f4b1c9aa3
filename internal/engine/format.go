package engine

import (
	"fmt"
	"strings"
)

// Format names a conversion target.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatM4A  Format = "m4a"
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
	FormatAAC  Format = "aac"
	FormatJPG  Format = "jpg"
	FormatPNG  Format = "png"
)

// Kind groups formats by the media they hold.
type Kind string

const (
	KindAudio Kind = "audio"
	KindImage Kind = "image"
)

var formats = []Format{FormatMP3, FormatM4A, FormatWAV, FormatFLAC, FormatAAC, FormatJPG, FormatPNG}

// Formats lists every supported target.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// ParseFormat accepts a format tag or file extension ("MP3", ".jpeg").
func ParseFormat(value string) (Format, error) {
	tag := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".")
	switch tag {
	case "jpeg":
		return FormatJPG, nil
	case "mp4a":
		return FormatM4A, nil
	}
	for _, f := range formats {
		if string(f) == tag {
			return f, nil
		}
	}
	return "", &Error{Kind: ErrUnsupportedFormat, Detail: fmt.Sprintf("unknown target format %q", value)}
}

// Kind reports whether the format holds audio or a still image.
func (f Format) Kind() Kind {
	switch f {
	case FormatJPG, FormatPNG:
		return KindImage
	default:
		return KindAudio
	}
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Valid reports whether f is a supported target.
func (f Format) Valid() bool {
	for _, known := range formats {
		if f == known {
			return true
		}
	}
	return false
}

func (f Format) String() string { return string(f) }

// CheckSource rejects sources that cannot produce f. Metadata with neither
// stream flag set is treated as unknown and passes.
func (f Format) CheckSource(meta Metadata) error {
	if f.Kind() == KindAudio && meta.HasVideo && !meta.HasAudio {
		return &Error{Kind: ErrInvalidInput, Detail: "source has no audio stream"}
	}
	return nil
}

// codecArgs returns the ffmpeg output options for f.
func (f Format) codecArgs() []string {
	switch f {
	case FormatMP3:
		return []string{"-vn", "-c:a", "libmp3lame", "-q:a", "2"}
	case FormatM4A:
		return []string{"-vn", "-c:a", "aac", "-b:a", "192k", "-movflags", "+faststart"}
	case FormatWAV:
		return []string{"-vn", "-c:a", "pcm_s16le"}
	case FormatFLAC:
		return []string{"-vn", "-c:a", "flac"}
	case FormatAAC:
		return []string{"-vn", "-c:a", "aac", "-b:a", "192k", "-f", "adts"}
	case FormatJPG:
		return []string{"-an", "-frames:v", "1", "-q:v", "2"}
	case FormatPNG:
		return []string{"-an", "-frames:v", "1"}
	default:
		return nil
	}
}
