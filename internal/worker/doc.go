// Package worker schedules pipeline runs. Submissions are handed off to a
// fixed pool of goroutines through a buffered channel so HTTP and
// watch-folder submissions return immediately; durable job state lives in
// the store, not the channel.
package worker
