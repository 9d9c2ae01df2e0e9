// Package vad removes long silences from lecture audio while preserving
// natural pauses.
//
// Detection is delegated to ffmpeg's silencedetect filter rather than an
// in-process model: a lecture recording is quiet-or-speaking, so an energy
// threshold finds the boundaries that matter, and ffmpeg is already a hard
// dependency of the pipeline. The detected silence intervals are inverted
// into speech intervals, fed through the segmentation policy in sample
// space, and the surviving ranges are rendered back into one WAV file.
package vad
