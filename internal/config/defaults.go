package config

import "time"

const (
	// DefaultConfigDir is the configuration directory relative to the user's home.
	DefaultConfigDir = ".config/mcphub"

	// DefaultConfigFile is the file looked up in DefaultConfigDir.
	DefaultConfigFile = "servers.yaml"

	// DefaultWatchDebounce is how long the watcher waits for writes to settle.
	DefaultWatchDebounce = 500 * time.Millisecond
)
