// Package config loads, normalizes, and validates catchup's TOML
// configuration.
//
// Load resolves the config file (explicit path, then
// ~/.config/catchup/config.toml, then ./catchup.toml), applies repository
// defaults for anything unset, expands ~ in path fields, and pulls API keys
// from the environment when the file leaves them blank. Validation is strict
// only where a misconfiguration would fail mid-pipeline: credential checks
// apply only when fake clients are disabled.
package config
