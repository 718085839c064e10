package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVars(t *testing.T, v, commit, date string) {
	t.Helper()
	ov, oc, od := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = ov, oc, od })
}

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestString(t *testing.T) {
	withoutColor(t)
	tests := []struct {
		version, commit, date, want string
	}{
		{"1.2.3", "", "", "tether 1.2.3"},
		{"0.3.0-dev", "abc123", "", "tether 0.3.0-dev (abc123)"},
		{"1.0.0", "abc123", "2026-01-15", "tether 1.0.0 (abc123) built 2026-01-15"},
		{"nightly", "", "", "tether nightly"},
	}
	for _, tt := range tests {
		withVars(t, tt.version, tt.commit, tt.date)
		if got := String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestColored_KeepsDigits(t *testing.T) {
	withoutColor(t)
	withVars(t, "4.5.6-rc1", "", "")
	if got := Colored(); got != "4.5.6-rc1" {
		t.Fatalf("Colored() = %q", got)
	}
}
