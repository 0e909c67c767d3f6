package config

import (
	"github.com/axondata/go-launchd"
	"github.com/axondata/go-launchd/internal/logger"
	"github.com/spf13/viper"
)

// DefaultTailLines is how many log lines `logs` shows by default
const DefaultTailLines = 200

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("launchctl.path", launchd.DefaultLaunchctlPath)
	v.SetDefault("launchctl.timeout", launchd.DefaultTimeout)

	v.SetDefault("manager.concurrency", launchd.DefaultConcurrency)

	// Empty roots mean the standard macOS locations
	v.SetDefault("roots.user_agents", "")
	v.SetDefault("roots.system_agents", "")
	v.SetDefault("roots.system_daemons", "")

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", logger.DefaultLevel)

	v.SetDefault("logs.tail_lines", DefaultTailLines)
}
