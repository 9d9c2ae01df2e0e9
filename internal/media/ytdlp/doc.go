// Package ytdlp wraps the yt-dlp command line tool for media download and
// metadata probing.
//
// The Downloader fetches the smallest stream carrying audio into a lecture
// workspace; the Prober reads title and duration without downloading, which
// feeds lecture identity derivation at submission time. Both check the
// Panopto cookies file before spawning anything so authentication problems
// surface as configuration errors, not tool failures an hour in.
package ytdlp
