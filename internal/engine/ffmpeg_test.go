package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mediaconv/internal/engine"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func writeSource(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(path, []byte("not really a movie"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFFmpegConvertReadsOutput(t *testing.T) {
	dir := t.TempDir()
	// The last argument is the output path.
	bin := writeScript(t, dir, "ffmpeg", "for last; do :; done\nprintf 'encoded' > \"$last\"\n")
	conv := engine.NewFFmpeg(bin, dir, nil)

	data, err := conv.Convert(context.Background(), writeSource(t, dir), engine.FormatMP3)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if string(data) != "encoded" {
		t.Fatalf("unexpected output %q", data)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "mediaconv-*"))
	if len(matches) != 0 {
		t.Fatalf("expected temp output to be removed, found %v", matches)
	}
}

func TestFFmpegConvertFailures(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir)
	failing := writeScript(t, dir, "ffmpeg-fail", "echo 'Invalid data found' >&2\nexit 1\n")
	silent := writeScript(t, dir, "ffmpeg-silent", "exit 0\n")

	cases := []struct {
		name   string
		binary string
		source string
		target engine.Format
		want   engine.ErrorKind
	}{
		{"missing source", failing, filepath.Join(dir, "missing.mov"), engine.FormatMP3, engine.ErrInvalidInput},
		{"directory source", failing, dir, engine.FormatMP3, engine.ErrInvalidInput},
		{"unknown target", failing, source, engine.Format("ogg"), engine.ErrUnsupportedFormat},
		{"tool failure", failing, source, engine.FormatWAV, engine.ErrEngineFailure},
		{"empty output", silent, source, engine.FormatJPG, engine.ErrExportFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conv := engine.NewFFmpeg(tc.binary, dir, nil)
			_, err := conv.Convert(context.Background(), tc.source, tc.target)
			if got := engine.KindOf(err); got != tc.want {
				t.Fatalf("kind = %q, want %q (err=%v)", got, tc.want, err)
			}
		})
	}
}

func TestFFmpegConvertHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "ffmpeg", "sleep 5\n")
	conv := engine.NewFFmpeg(bin, dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := conv.Convert(ctx, writeSource(t, dir), engine.FormatMP3); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFFprobeProbe(t *testing.T) {
	dir := t.TempDir()
	probeJSON := `{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio"}],"format":{"duration":"12.5","size":"99","format_name":"mov,mp4"}}`
	ffprobeBin := writeScript(t, dir, "ffprobe", "cat <<'JSON'\n"+probeJSON+"\nJSON\n")
	ffmpegBin := writeScript(t, dir, "ffmpeg", "printf 'jpegbytes'\n")
	source := writeSource(t, dir)

	prober := &engine.FFprobe{FFprobeBinary: ffprobeBin, FFmpegBinary: ffmpegBin}
	meta, err := prober.Probe(context.Background(), source)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if meta.Duration == nil || *meta.Duration != 12.5 {
		t.Fatalf("unexpected duration %v", meta.Duration)
	}
	if meta.Size == nil || *meta.Size != int64(len("not really a movie")) {
		t.Fatalf("unexpected size %v", meta.Size)
	}
	if string(meta.Thumbnail) != "jpegbytes" {
		t.Fatalf("unexpected thumbnail %q", meta.Thumbnail)
	}
	if !meta.HasAudio || !meta.HasVideo {
		t.Fatalf("unexpected stream flags %+v", meta)
	}
}

func TestFFprobeProbeWithoutThumbnail(t *testing.T) {
	dir := t.TempDir()
	probeJSON := `{"streams":[{"index":0,"codec_type":"audio"}],"format":{"duration":"3.0"}}`
	ffprobeBin := writeScript(t, dir, "ffprobe", "cat <<'JSON'\n"+probeJSON+"\nJSON\n")
	ffmpegBin := writeScript(t, dir, "ffmpeg", "exit 1\n")

	prober := &engine.FFprobe{FFprobeBinary: ffprobeBin, FFmpegBinary: ffmpegBin}
	meta, err := prober.Probe(context.Background(), writeSource(t, dir))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if meta.Thumbnail != nil {
		t.Fatalf("expected no thumbnail for audio-only source")
	}
}
