package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLanguage(t *testing.T) {
	cases := []struct {
		choice string
		course string
		want   string
	}{
		{"no", "XYZ999", "no"},
		{"en", "ELE130", "en"},
		{"auto", "ELE130", "no"},
		{"auto", "MAT200", "no"},
		{"auto", "XYZ999", "auto"},
		{"auto", "UNKNOWN", "auto"},
		{"klingon", "ELE130", "auto"},
		{"", "ELE130", "auto"},
	}
	for _, tc := range cases {
		if got := ResolveLanguage(tc.choice, tc.course); got != tc.want {
			t.Errorf("ResolveLanguage(%q, %q) = %q, want %q", tc.choice, tc.course, got, tc.want)
		}
	}
}

func TestLanguageResolverOverrides(t *testing.T) {
	r := NewLanguageResolver(map[string]string{"dat100": "EN", "ELE130": "en"})

	if got := r.Resolve("auto", "DAT100"); got != "en" {
		t.Fatalf("override lookup = %q, want en", got)
	}
	// Overrides replace built-in entries.
	if got := r.Resolve("auto", "ELE130"); got != "en" {
		t.Fatalf("override replace = %q, want en", got)
	}
	// Built-ins survive for untouched courses.
	if got := r.Resolve("auto", "MAT200"); got != "no" {
		t.Fatalf("builtin lookup = %q, want no", got)
	}
	if got := r.Resolve("no", "DAT100"); got != "no" {
		t.Fatalf("explicit choice = %q, want no", got)
	}
}

func TestLoadCourseDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.yaml")
	contents := "DAT100: en\nFYS210: no\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	overrides, err := LoadCourseDefaults(path)
	if err != nil {
		t.Fatalf("LoadCourseDefaults: %v", err)
	}
	if overrides["DAT100"] != "en" || overrides["FYS210"] != "no" {
		t.Fatalf("unexpected overrides: %v", overrides)
	}
}

func TestLoadCourseDefaultsEmptyPath(t *testing.T) {
	overrides, err := LoadCourseDefaults("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if overrides != nil {
		t.Fatalf("expected nil overrides, got %v", overrides)
	}
}
