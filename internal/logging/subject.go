package logging

import "strings"

// subjectIDLength caps how much of a job id the console subject shows.
const subjectIDLength = 8

// FormatSubject builds the identity prefix rendered ahead of console
// messages. The lecture id names the work; a shortened job id stands in when
// no lecture is known yet, and the stage lands in parentheses.
func FormatSubject(lectureID, jobID, stage string) string {
	lectureID = strings.TrimSpace(lectureID)
	jobID = strings.TrimSpace(jobID)
	stage = strings.TrimSpace(stage)

	subject := lectureID
	if subject == "" && jobID != "" {
		if len(jobID) > subjectIDLength {
			jobID = jobID[:subjectIDLength]
		}
		subject = "job " + jobID
	}

	switch {
	case subject == "":
		return stage
	case stage == "":
		return subject
	default:
		return subject + " (" + stage + ")"
	}
}
