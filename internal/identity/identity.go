package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sentinels used when a title carries no recognizable course code or date.
const (
	UnknownCourse = "UNKNOWN"
	UnknownDate   = "unknown"
)

// ShortUIDLength is the number of source UID characters used in directory
// names and lecture IDs.
const ShortUIDLength = 8

var (
	courseCodeRe = regexp.MustCompile(`^[A-Z]{3}\d{3}`)
	isoDateRe    = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	dottedDateRe = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)
	slashDateRe  = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
	bareDayRe    = regexp.MustCompile(`\b(\d{2})\.(\d{2})\b`)
	queryIDRe    = regexp.MustCompile(`(?i)[?&]id=([a-f0-9\-]+)`)
	pathIDRe     = regexp.MustCompile(`(?i)/([a-f0-9\-]{36})/`)
)

// ExtractCourseCode returns the course code leading the title: exactly three
// uppercase letters followed by three digits at position zero. A match
// anywhere else in the string does not count.
func ExtractCourseCode(title string) string {
	if match := courseCodeRe.FindString(title); match != "" {
		return match
	}
	return UnknownCourse
}

// ParseDateFromTitle extracts a lecture date from the title, normalized to
// YYYY-MM-DD. Patterns are tried in priority order: YYYY-MM-DD, DD.MM.YYYY,
// DD/MM/YYYY, then bare DD.MM which assumes the current year. The bare-day
// rule is wrong across a year boundary (a December title parsed in January
// gets the new year); that inaccuracy is retained on purpose.
func ParseDateFromTitle(title string) string {
	return parseDate(title, time.Now())
}

func parseDate(title string, now time.Time) string {
	if match := isoDateRe.FindString(title); match != "" {
		return match
	}
	if groups := dottedDateRe.FindStringSubmatch(title); groups != nil {
		return fmt.Sprintf("%s-%s-%s", groups[3], groups[2], groups[1])
	}
	if groups := slashDateRe.FindStringSubmatch(title); groups != nil {
		return fmt.Sprintf("%s-%s-%s", groups[3], groups[2], groups[1])
	}
	if groups := bareDayRe.FindStringSubmatch(title); groups != nil {
		return fmt.Sprintf("%d-%s-%s", now.Year(), groups[2], groups[1])
	}
	return UnknownDate
}

// SourceUID derives the stable content identifier for a lecture's origin
// media. A caller-supplied external id wins; otherwise an id embedded in the
// URL (query parameter or a 36-character path token) is used; otherwise the
// SHA-1 hex digest of the URL. Deterministic for a given input.
func SourceUID(rawURL, externalID string) string {
	if externalID != "" {
		return externalID
	}
	if id := extractEmbeddedID(rawURL); id != "" {
		return id
	}
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

func extractEmbeddedID(rawURL string) string {
	if groups := queryIDRe.FindStringSubmatch(rawURL); groups != nil {
		return groups[1]
	}
	if groups := pathIDRe.FindStringSubmatch(rawURL); groups != nil {
		return groups[1]
	}
	return ""
}

// ShortUID returns the directory-name form of a source UID.
func ShortUID(uid string) string {
	if len(uid) <= ShortUIDLength {
		return uid
	}
	return uid[:ShortUIDLength]
}

// LectureID builds the canonical lecture identifier.
func LectureID(courseCode, lectureDate, shortUID string) string {
	return fmt.Sprintf("%s_%s_%s", courseCode, lectureDate, shortUID)
}

// DeriveTitle builds a human-readable fallback title from the URL when the
// metadata probe returns nothing usable.
func DeriveTitle(rawURL string) string {
	base := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		base = path.Base(parsed.Path)
	}
	if base == "" || base == "." || base == "/" {
		return "Unknown Lecture"
	}
	base = strings.TrimSuffix(base, path.Ext(base))

	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Unknown Lecture"
	}
	return cases.Title(language.Und).String(title)
}
