// Package constant holds application-wide identifiers.
package constant

const (
	// Yato is the application name used for paths, env prefixes and the keyring service.
	Yato = "yato"

	// Version is the current application version.
	Version = "0.3.0"

	// UserAgent is sent with every request to the tracking and metadata APIs.
	UserAgent = "yato/" + Version + " (+https://github.com/yato-cli/yato)"
)

// Build metadata, set with -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
