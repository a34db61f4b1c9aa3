package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mediaconv/internal/logging"
)

var commandContext = exec.CommandContext

// FFmpeg converts local files with the ffmpeg binary.
type FFmpeg struct {
	Binary string
	// TempDir holds intermediate outputs; empty uses the OS default.
	TempDir string
	Logger  *slog.Logger
}

// NewFFmpeg builds a converter for the given binary.
func NewFFmpeg(binary, tempDir string, logger *slog.Logger) *FFmpeg {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FFmpeg{Binary: binary, TempDir: tempDir, Logger: logger}
}

// Convert runs ffmpeg into a temp file and returns its bytes. The temp file
// is removed before returning.
func (f *FFmpeg) Convert(ctx context.Context, source string, target Format) ([]byte, error) {
	if !target.Valid() {
		return nil, &Error{Kind: ErrUnsupportedFormat, Detail: fmt.Sprintf("target %q", target)}
	}
	path, err := localSource(source)
	if err != nil {
		return nil, err
	}

	out, err := os.CreateTemp(f.TempDir, "mediaconv-*"+target.Extension())
	if err != nil {
		return nil, &Error{Kind: ErrExportFailed, Detail: "create output file", Err: err}
	}
	dest := out.Name()
	_ = out.Close()
	defer func() { _ = os.Remove(dest) }()

	args := buildArgs(path, dest, target)
	logger := f.logger()
	logger.Debug("ffmpeg convert",
		logging.String("source", path),
		logging.String("target", string(target)),
		logging.String(logging.FieldEventType, "ffmpeg_start"),
	)
	cmd := commandContext(ctx, f.binary(), args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{Kind: ErrEngineFailure, Detail: lastLine(output), Err: err}
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return nil, &Error{Kind: ErrExportFailed, Detail: "read output", Err: err}
	}
	if len(data) == 0 {
		return nil, &Error{Kind: ErrExportFailed, Detail: "ffmpeg produced no output"}
	}
	return data, nil
}

func (f *FFmpeg) binary() string {
	if b := strings.TrimSpace(f.Binary); b != "" {
		return b
	}
	return "ffmpeg"
}

func (f *FFmpeg) logger() *slog.Logger {
	if f.Logger == nil {
		return logging.NewNop()
	}
	return f.Logger
}

func buildArgs(source, dest string, target Format) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-sn",
		"-dn",
	}
	args = append(args, target.codecArgs()...)
	return append(args, dest)
}

// localSource resolves a path or file:// URI to an existing regular file.
func localSource(source string) (string, error) {
	path := strings.TrimSpace(source)
	path = strings.TrimPrefix(path, "file://")
	if path == "" {
		return "", &Error{Kind: ErrInvalidInput, Detail: "empty source"}
	}
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &Error{Kind: ErrInvalidInput, Detail: fmt.Sprintf("source %s does not exist", path)}
	}
	if err != nil {
		return "", &Error{Kind: ErrInvalidInput, Detail: "stat source", Err: err}
	}
	if info.IsDir() {
		return "", &Error{Kind: ErrInvalidInput, Detail: fmt.Sprintf("source %s is a directory", path)}
	}
	return path, nil
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "ffmpeg exited with an error"
}
