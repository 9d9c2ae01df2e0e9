package segmentation

// Span is a half-open range of audio samples.
type Span struct {
	Start int
	End   int
}

// Len returns the number of samples covered by the span.
func (s Span) Len() int {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// Policy carries the silence-collapsing thresholds, in seconds. Gaps shorter
// than LongSilenceSeconds are treated as natural pauses and kept whole; gaps
// at or above it are collapsed to exactly KeepSilenceSeconds of the original
// audio. PaddingSeconds widens every detection on both sides first.
type Policy struct {
	PaddingSeconds     float64
	LongSilenceSeconds float64
	KeepSilenceSeconds float64
}

// Collapse turns ordered raw speech detections into the final list of sample
// ranges to concatenate. The ranges, played back to back, are the cleaned
// audio. With no detections the entire input is returned unchanged.
func (p Policy) Collapse(speech []Span, totalSamples, sampleRate int) []Span {
	if totalSamples <= 0 {
		return nil
	}
	if len(speech) == 0 {
		return []Span{{Start: 0, End: totalSamples}}
	}

	padding := int(p.PaddingSeconds * float64(sampleRate))
	longSilence := int(p.LongSilenceSeconds * float64(sampleRate))
	keepSilence := int(p.KeepSilenceSeconds * float64(sampleRate))

	segments := make([]Span, 0, len(speech)*2)
	currentStart := -1
	currentEnd := -1

	for _, detection := range speech {
		segStart := detection.Start - padding
		if segStart < 0 {
			segStart = 0
		}
		segEnd := detection.End + padding
		if segEnd > totalSamples {
			segEnd = totalSamples
		}

		if currentStart < 0 {
			currentStart = segStart
			currentEnd = segEnd
			continue
		}

		gap := segStart - currentEnd
		if gap < longSilence {
			// Natural pause or overlap: extend the running segment.
			if segEnd > currentEnd {
				currentEnd = segEnd
			}
			continue
		}

		// Long silence: close the running segment, keep a bounded slice of
		// the silence itself, then start over at the next detection.
		segments = append(segments, Span{Start: currentStart, End: currentEnd})
		segments = append(segments, Span{Start: currentEnd, End: currentEnd + keepSilence})
		currentStart = segStart
		currentEnd = segEnd
	}

	segments = append(segments, Span{Start: currentStart, End: currentEnd})

	return clamp(segments, totalSamples)
}

// clamp bounds every span to [0, totalSamples] and drops spans that end up
// empty, so renderers never see an inverted range.
func clamp(segments []Span, totalSamples int) []Span {
	out := segments[:0]
	for _, seg := range segments {
		if seg.Start < 0 {
			seg.Start = 0
		}
		if seg.End > totalSamples {
			seg.End = totalSamples
		}
		if seg.End <= seg.Start {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// TotalSamples sums the lengths of the given spans.
func TotalSamples(segments []Span) int {
	total := 0
	for _, seg := range segments {
		total += seg.Len()
	}
	return total
}
