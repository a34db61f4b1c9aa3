package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "video", Disposition: map[string]int{"attached_pic": 1}},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration:   "123.45",
			Size:       "1000",
			FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		},
	}
	if got := result.StreamCount("video"); got != 1 {
		t.Fatalf("expected 1 video stream, got %d", got)
	}
	if got := result.StreamCount("audio"); got != 2 {
		t.Fatalf("expected 2 audio streams, got %d", got)
	}
	if !result.HasAudio() || !result.HasVideo() {
		t.Fatal("expected audio and video")
	}
	if result.IsStillImage() {
		t.Fatal("recording should not be a still image")
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func TestParseStillImage(t *testing.T) {
	payload := []byte(`{
		"streams": [{"index": 0, "codec_name": "hevc", "codec_type": "video", "width": 4032, "height": 3024}],
		"format": {"filename": "IMG_0001.HEIC", "nb_streams": 1, "format_name": "heif", "size": "2048"}
	}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !result.IsStillImage() {
		t.Fatal("expected HEIC to be detected as still image")
	}
	if result.Streams[0].Width != 4032 {
		t.Fatalf("unexpected width %d", result.Streams[0].Width)
	}
	if _, err := Parse([]byte("{")); err == nil {
		t.Fatal("expected parse error for truncated JSON")
	}
}
