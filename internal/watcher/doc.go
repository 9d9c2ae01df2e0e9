// Package watcher submits jobs from URL files dropped into a watched
// directory. It pairs with the HTTP API as the second ingestion path: save
// a .url or .txt file into the drop folder and the lecture is queued with
// automatic language detection.
package watcher
