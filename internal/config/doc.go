// Package config loads, normalizes, and validates Boreline configuration.
//
// It defines the Config struct with TOML tags, default values, and helpers to
// resolve the config file location from the CLI flag, the user's config
// directory, or a project-local boreline.toml. Load expands "~" in paths,
// applies environment fallbacks for secrets, and validates every section.
//
// Call EnsureDirectories before opening the store so the data and log
// directories exist.
package config
