package config

const (
	defaultConfigPath              = "~/.config/boreline/config.toml"
	defaultDataDir                 = "~/.local/share/boreline"
	defaultLogDir                  = "~/.local/share/boreline/logs"
	defaultSocketName              = "boreline.sock"
	defaultAPIBind                 = "127.0.0.1:7491"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultEventHistory            = 512
	defaultSubscriberBuffer        = 64
	defaultNtfyServer              = "https://ntfy.sh"
	defaultNotifyRequestTimeout    = 10
	defaultSupervisorForceRelease  = false
	defaultNotifyReadyToShip       = true
	defaultNotifyReleases          = true
	defaultNotifyQuarantine        = true
	defaultNotifyDaemon            = false
	envAPIToken                    = "BORELINE_API_TOKEN"
	envNtfyTopic                   = "BORELINE_NTFY_TOPIC"
	maxEventHistory                = 100000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Workflow: Workflow{
			SupervisorForceRelease: defaultSupervisorForceRelease,
			EventHistory:           defaultEventHistory,
			SubscriberBuffer:       defaultSubscriberBuffer,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			NtfyServer:     defaultNtfyServer,
			RequestTimeout: defaultNotifyRequestTimeout,
			ReadyToShip:    defaultNotifyReadyToShip,
			Releases:       defaultNotifyReleases,
			Quarantine:     defaultNotifyQuarantine,
			Daemon:         defaultNotifyDaemon,
		},
	}
}
