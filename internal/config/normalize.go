package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConversion()
	c.normalizeEngine()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("MEDIACONV_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = value
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}

	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	derived := []struct {
		key    string
		value  *string
		subdir string
	}{
		{"paths.blob_dir", &c.Paths.BlobDir, defaultBlobSubdir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateSubdir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogSubdir},
	}
	for _, d := range derived {
		if strings.TrimSpace(*d.value) == "" {
			*d.value = filepath.Join(c.Paths.DataDir, d.subdir)
		}
		if *d.value, err = expandPath(*d.value); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeConversion() {
	c.Conversion.TargetFormat = strings.ToLower(strings.TrimSpace(c.Conversion.TargetFormat))
	c.Conversion.TargetFormat = strings.TrimPrefix(c.Conversion.TargetFormat, ".")
	if c.Conversion.TargetFormat == "" {
		c.Conversion.TargetFormat = defaultTargetFormat
	}
	if c.Conversion.ProgressIntervalMS <= 0 {
		c.Conversion.ProgressIntervalMS = defaultProgressIntervalMS
	}
}

func (c *Config) normalizeEngine() {
	if value, ok := os.LookupEnv("MEDIACONV_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Engine.FFmpegBinary = value
	}
	c.Engine.FFmpegBinary = strings.TrimSpace(c.Engine.FFmpegBinary)
	if c.Engine.FFmpegBinary == "" {
		c.Engine.FFmpegBinary = defaultFFmpegBinary
	}
	c.Engine.FFprobeBinary = strings.TrimSpace(c.Engine.FFprobeBinary)
	if c.Engine.FFprobeBinary == "" {
		c.Engine.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Engine.ThumbnailWidth <= 0 {
		c.Engine.ThumbnailWidth = defaultThumbnailWidth
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
