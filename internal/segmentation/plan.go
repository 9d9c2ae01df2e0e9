package segmentation

// Window is one transcription chunk, in seconds from the start of the audio.
type Window struct {
	Start float64
	End   float64
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// PlanWindows splits a total duration into transcription windows. Audio that
// fits in one chunk yields a single window covering all of it; otherwise
// consecutive windows overlap by exactly overlapSeconds so no speech is lost
// at a boundary (the final window may be shorter than the rest).
func PlanWindows(totalSeconds, chunkSeconds, overlapSeconds float64) []Window {
	if totalSeconds <= 0 {
		return nil
	}
	if totalSeconds <= chunkSeconds {
		return []Window{{Start: 0, End: totalSeconds}}
	}

	var windows []Window
	start := 0.0
	for {
		end := start + chunkSeconds
		if end > totalSeconds {
			end = totalSeconds
		}
		windows = append(windows, Window{Start: start, End: end})
		if end >= totalSeconds {
			break
		}
		start = end - overlapSeconds
	}
	return windows
}
