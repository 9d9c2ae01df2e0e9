// Package segmentation holds the two pure algorithms embedded in the
// pipeline: the silence-collapsing policy applied to voice activity
// detections, and the overlapping-window plan used to transcribe audio
// longer than one chunk. Both operate on plain values so they can be tested
// exhaustively without audio files.
package segmentation
