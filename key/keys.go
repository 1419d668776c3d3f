// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Plugin Runtime - these keys govern discovery and loading of plugins.
const (
	PluginsPath              = "plugins.path"
	PluginsStrict            = "plugins.strict"
	PluginsReservedPrefix    = "plugins.reserved_prefix"
	PluginsSearchConcurrency = "plugins.search_concurrency"
)

// Credential Persistence - these keys select where encrypted source credentials are stored.
const (
	CredentialsBackend  = "credentials.backend"
	CredentialsRedisURL = "credentials.redis_url"
)

// Session Carrier - these keys configure the aggregated per-source session cookie.
const (
	SessionCookieName = "session.cookie_name"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// Search History - these keys control remembered queries offered as suggestions.
const (
	SearchRememberQueries = "search.remember_queries"
	SearchSuggestions     = "search.suggestions"
)

// Visual Presentation - these keys control how symbols are rendered in CLI output.
const (
	IconsVariant = "icons.variant"
)

// CLI Execution Environment - these flags and settings govern the command-line behavior.
const (
	CliColored = "cli.colored"
)
