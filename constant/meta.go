// Package constant defines immutable application-level identifiers and plugin protocol values.
package constant

const (
	// Comiknet is the canonical application identifier used for filesystem paths and CLI branding.
	Comiknet = "comiknet"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// Protocol is the plugin protocol version implemented by this host.
	// Plugins must declare the same major and minor components to load.
	Protocol = "0.3.1"

	// UserAgent is the default HTTP User-Agent string used for requests issued by plugin runtimes.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Build metadata, overridden with -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
