package config

const (
	defaultConfigPath         = "~/.config/mediaconv/config.toml"
	defaultDataDir            = "~/.local/share/mediaconv"
	defaultBlobSubdir         = "media"
	defaultStateSubdir        = "state"
	defaultLogSubdir          = "logs"
	defaultConcurrency        = 2
	defaultTargetFormat       = "mp3"
	defaultProgressIntervalMS = 100
	defaultProgressStep       = 0.05
	defaultProgressCeiling    = 0.9
	defaultHistoryMaxRecords  = 100
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultThumbnailWidth     = 320
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults. Blob, state,
// and log directories are left empty and derived from DataDir during
// normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Conversion: Conversion{
			Concurrency:        defaultConcurrency,
			TargetFormat:       defaultTargetFormat,
			ProgressIntervalMS: defaultProgressIntervalMS,
			ProgressStep:       defaultProgressStep,
			ProgressCeiling:    defaultProgressCeiling,
		},
		History: History{
			MaxRecords: defaultHistoryMaxRecords,
		},
		Engine: Engine{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			ThumbnailWidth: defaultThumbnailWidth,
		},
		Access: Access{
			DefaultPermitted: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
