package config

// Constants defining default values for application configuration
const (
	DefaultDBPath       = "./data/monitor.db"
	DefaultDataDir      = "./data"
	DefaultSourcesPath  = "./config/sources.yaml"
	DefaultKeywordsPath = "./config/keywords.yaml"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultWorkerCount     = 4
	DefaultFetchTimeoutSec = 20
	DefaultFetchAttempts   = 3
	DefaultLookbackHours   = 24 * 7 // Window for signal source collection

	// Cron schedule for the watch command (standard 5-field spec)
	DefaultSchedule = "0 7 * * *"

	// Signal content is truncated to this many runes before storage
	MaxSignalContentLen = 10000

	DefaultLogLevel = "info"
)
