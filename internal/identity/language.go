package identity

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Course language defaults consulted when a submission requests "auto".
// Courses absent from the table stay on automatic detection.
var builtinCourseLanguages = map[string]string{
	"ELE130": "no",
	"MAT200": "no",
}

// ResolveLanguage maps a user language choice and course code to the
// language passed to the transcriber. Explicit "no"/"en" pass through,
// "auto" consults the built-in per-course defaults, anything else falls back
// to "auto".
func ResolveLanguage(userChoice, courseCode string) string {
	return resolveLanguage(userChoice, courseCode, builtinCourseLanguages)
}

func resolveLanguage(userChoice, courseCode string, defaults map[string]string) string {
	switch userChoice {
	case "no", "en":
		return userChoice
	case "auto":
		if lang, ok := defaults[courseCode]; ok {
			return lang
		}
		return "auto"
	default:
		return "auto"
	}
}

// LanguageResolver resolves languages with optional per-deployment course
// defaults merged over the built-in table.
type LanguageResolver struct {
	defaults map[string]string
}

// NewLanguageResolver merges overrides over the built-in course table.
func NewLanguageResolver(overrides map[string]string) *LanguageResolver {
	merged := make(map[string]string, len(builtinCourseLanguages)+len(overrides))
	for course, lang := range builtinCourseLanguages {
		merged[course] = lang
	}
	for course, lang := range overrides {
		course = strings.ToUpper(strings.TrimSpace(course))
		lang = strings.ToLower(strings.TrimSpace(lang))
		if course == "" || lang == "" {
			continue
		}
		merged[course] = lang
	}
	return &LanguageResolver{defaults: merged}
}

// Resolve applies the same rules as ResolveLanguage using the merged table.
func (r *LanguageResolver) Resolve(userChoice, courseCode string) string {
	if r == nil {
		return ResolveLanguage(userChoice, courseCode)
	}
	return resolveLanguage(userChoice, courseCode, r.defaults)
}

// LoadCourseDefaults reads a YAML file mapping course codes to languages.
// An empty path yields no overrides.
func LoadCourseDefaults(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course defaults: %w", err)
	}
	overrides := map[string]string{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse course defaults: %w", err)
	}
	return overrides, nil
}
