package config

const (
	defaultOutputDir            = "~/Music/cadence"
	defaultStateDir             = "~/.local/share/cadence"
	defaultLogDir               = "~/.local/share/cadence/logs"
	defaultEnvFile              = ".env"
	defaultAPIBind              = "127.0.0.1:7488"
	defaultFormat               = "m4a"
	defaultM4ABitrate           = "256k"
	defaultMP3Bitrate           = "128k"
	defaultOpusBitrate          = "128k"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultWakeLockProvider     = "login1"
	defaultWakeLockReason       = "Converting audio files"
	defaultNotifyRequestTimeout = 10
	defaultNotifyQueueMinItems  = 2
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultHistoryEnabled       = true
	defaultWorkDirName          = "work"
	wakeLockProviderLogind      = "login1"
	wakeLockProviderNone        = "none"
	envNtfyTopic                = "CADENCE_NTFY_TOPIC"
	envOutputDir                = "CADENCE_OUTPUT_DIR"
	envAPIToken                 = "CADENCE_API_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			EnvFile:   defaultEnvFile,
			APIBind:   defaultAPIBind,
		},
		Conversion: Conversion{
			DefaultFormat: defaultFormat,
			M4ABitrate:    defaultM4ABitrate,
			MP3Bitrate:    defaultMP3Bitrate,
			OpusBitrate:   defaultOpusBitrate,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		WakeLock: WakeLock{
			Provider: defaultWakeLockProvider,
			Reason:   defaultWakeLockReason,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Queue:          true,
			Errors:         true,
			QueueMinItems:  defaultNotifyQueueMinItems,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
