// Package config loads, normalizes, and validates dserver configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the DSERVER_SOCKET and
// DSERVER_LOG_LEVEL environment overrides. Always obtain settings through this
// package so the CLI and daemon agree on the socket name and the pid file
// location derived from it.
package config
