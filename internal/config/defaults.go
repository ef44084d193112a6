package config

const (
	defaultDataDir                = "~/.local/share/seedvault"
	defaultLogDir                 = "~/.local/share/seedvault/logs"
	defaultSourceURL              = "http://127.0.0.1:8080"
	defaultSourceRequestTimeout   = 30
	defaultTransferBinary         = "rclone"
	defaultUploadTimeout          = 4 * 3600
	defaultVerifyTimeout          = 30 * 60
	defaultPollIntervalMS         = 300000
	defaultMaxConcurrent          = 2
	defaultUploadRetryLimit       = 3
	defaultVerificationRetryLimit = 3
	defaultLogFormat              = "text"
	defaultLogLevel               = "info"
	defaultNotifyRequestTimeout   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Source: Source{
			URL:            defaultSourceURL,
			RequestTimeout: defaultSourceRequestTimeout,
		},
		Transfer: Transfer{
			Binary:        defaultTransferBinary,
			UploadTimeout: defaultUploadTimeout,
			VerifyTimeout: defaultVerifyTimeout,
		},
		Workflow: Workflow{
			PollIntervalMS:         defaultPollIntervalMS,
			MaxConcurrent:          defaultMaxConcurrent,
			UploadRetryLimit:       defaultUploadRetryLimit,
			VerificationRetryLimit: defaultVerificationRetryLimit,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
	}
}
