// Package daemon coordinates the long-running catchup process.
//
// It wires configuration, the job store, the worker pool, the drop-folder
// watcher, and the HTTP API into a single lifecycle with flock-based locking
// to prevent multiple instances. On startup the daemon reconciles job state
// left behind by a previous run: interrupted jobs fail, queued jobs go back
// onto the pool.
//
// Keep orchestration logic here: pipeline stages and submission rules live in
// their own packages while the daemon focuses on startup, shutdown, and the
// API surface.
package daemon
