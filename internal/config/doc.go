// Package config loads, validates, and normalizes Curator configuration.
//
// Configuration is read from a TOML file (default ~/.config/curator/config.toml,
// with ./curator.toml as a project-local override). Missing files yield the
// repository defaults so the CLI works out of the box for non-AI strategies.
// All path fields are expanded and made absolute during Load; callers never
// see ~ or relative paths.
package config
