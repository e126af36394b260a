// Package config defines the runtime configuration for RavenTrace.
//
// Configuration is assembled from three layers, lowest precedence first:
// built-in defaults, an optional YAML credentials file (.raventrace), and
// CLI flags. The resulting Config is passed through the application via
// dependency injection rather than global state.
package config
