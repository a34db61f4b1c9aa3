package config

import (
	"errors"
	"fmt"
)

var (
	supportedTargetFormats = map[string]struct{}{
		"mp3": {}, "m4a": {}, "wav": {}, "flac": {}, "aac": {},
		"jpg": {}, "png": {},
	}
	supportedLogFormats = map[string]struct{}{"console": {}, "json": {}}
	supportedLogLevels  = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateConversion() error {
	if c.Conversion.Concurrency < 1 {
		return errors.New("conversion.concurrency must be at least 1")
	}
	if _, ok := supportedTargetFormats[c.Conversion.TargetFormat]; !ok {
		return fmt.Errorf("conversion.target_format: unsupported value %q", c.Conversion.TargetFormat)
	}
	if c.Conversion.ProgressStep <= 0 || c.Conversion.ProgressStep >= 1 {
		return errors.New("conversion.progress_step must be between 0 and 1")
	}
	if c.Conversion.ProgressCeiling <= 0 || c.Conversion.ProgressCeiling >= 1 {
		return errors.New("conversion.progress_ceiling must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.MaxRecords < 1 {
		return errors.New("history.max_records must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := supportedLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if _, ok := supportedLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
