// Package ingest owns the submission flow shared by the HTTP API and the
// watch folder: probe metadata, derive lecture identity, get-or-create the
// lecture, create a queued job, and hand it to the worker pool.
package ingest
