package vad

import (
	"regexp"
	"strconv"
)

// Interval is a time range in seconds.
type Interval struct {
	Start float64
	End   float64
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[0-9]+(?:\.[0-9]+)?)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[0-9]+(?:\.[0-9]+)?)`)
)

// parseSilence extracts silence intervals from silencedetect log output.
// Starts and ends are paired in order; a trailing silence_start without a
// matching end runs to totalSeconds (the recording ended during silence).
func parseSilence(output string, totalSeconds float64) []Interval {
	type event struct {
		at    int
		value float64
		start bool
	}
	var events []event
	for _, match := range silenceStartRe.FindAllStringSubmatchIndex(output, -1) {
		value, err := strconv.ParseFloat(output[match[2]:match[3]], 64)
		if err != nil {
			continue
		}
		events = append(events, event{at: match[0], value: value, start: true})
	}
	for _, match := range silenceEndRe.FindAllStringSubmatchIndex(output, -1) {
		value, err := strconv.ParseFloat(output[match[2]:match[3]], 64)
		if err != nil {
			continue
		}
		events = append(events, event{at: match[0], value: value})
	}
	// The regex passes scan the output twice, so restore document order
	// before pairing.
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j].at < events[j-1].at; j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}

	var intervals []Interval
	openStart := -1.0
	open := false
	for _, ev := range events {
		if ev.start {
			openStart = ev.value
			open = true
			continue
		}
		if !open {
			continue
		}
		if ev.value > openStart {
			intervals = append(intervals, Interval{Start: openStart, End: ev.value})
		}
		open = false
	}
	if open && totalSeconds > openStart {
		intervals = append(intervals, Interval{Start: openStart, End: totalSeconds})
	}
	return intervals
}

// complement converts silence intervals into the speech intervals between
// them over [0, totalSeconds]. Intervals must be in ascending order, which
// is how silencedetect reports them.
func complement(silences []Interval, totalSeconds float64) []Interval {
	var speech []Interval
	cursor := 0.0
	for _, silence := range silences {
		start := silence.Start
		if start > totalSeconds {
			start = totalSeconds
		}
		if start > cursor {
			speech = append(speech, Interval{Start: cursor, End: start})
		}
		if silence.End > cursor {
			cursor = silence.End
		}
	}
	if cursor < totalSeconds {
		speech = append(speech, Interval{Start: cursor, End: totalSeconds})
	}
	return speech
}
