package logging_test

import (
	"log/slog"
	"regexp"
	"testing"

	. "github.com/rhansen/reactor/internal/logging"
)

func TestBumpLevel(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		desc  string
		in    slog.Level
		lower bool
		want  slog.Level
	}{
		{"info up", LevelInfo, false, LevelNotice},
		{"info down", LevelInfo, true, LevelVerbose},
		{"verbose down", LevelVerbose, true, LevelDebug},
		{"debug down", LevelDebug, true, LevelTrace},
		{"below trace", LevelTrace, true, LevelTrace - 4},
		{"notice up", LevelNotice, false, LevelWarn},
		{"above fatal", LevelFatal, false, LevelFatal + 4},
		{"unnamed between", slog.LevelInfo + 1, false, LevelNotice},
		{"unnamed between down", slog.LevelInfo + 1, true, LevelInfo},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			if got := BumpLevel(tc.in, tc.lower); got != tc.want {
				t.Errorf("BumpLevel(%v, %v) = %v, want %v", tc.in, tc.lower, got, tc.want)
			}
		})
	}
}

func TestStringToLevel(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"trace", "debug", "verbose", "info", "notice", "warn", "error", "fatal"} {
		lvl, err := StringToLevel(name)
		if err != nil {
			t.Fatal(err)
		}
		if got := LevelName(lvl); got != name {
			t.Errorf("LevelName(StringToLevel(%q)) = %q", name, got)
		}
	}
	if lvl, err := StringToLevel("VERBOSE"); err != nil || lvl != LevelVerbose {
		t.Errorf("got (%v, %v), want (%v, nil)", lvl, err, LevelVerbose)
	}
	_, err := StringToLevel("loud")
	want := regexp.MustCompile(`expected one of: trace, debug`)
	if err == nil || !want.MatchString(err.Error()) {
		t.Errorf("got error %q, want error matching %q", err, want)
	}
}
