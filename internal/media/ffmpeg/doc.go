// Package ffmpeg wraps the ffmpeg command line tool for the audio work the
// pipeline cannot do in process: transcoding downloads to mono PCM WAV,
// rendering collapsed sample ranges back into a playable file, and slicing
// transcription windows out of long recordings.
package ffmpeg
