// Package api defines the wire types served by the daemon HTTP API and a
// client for talking to it. The daemon converts store records into these
// DTOs; the CLI consumes them. JSON fields are snake_case to match the
// artifact documents the pipeline writes.
package api
