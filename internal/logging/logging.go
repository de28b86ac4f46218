// Package logging defines the named [slog] levels used by the reactor library and command.
package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	LevelTrace   = slog.LevelDebug - 4 // -8
	LevelDebug   = slog.LevelDebug     // -4
	LevelVerbose = slog.LevelDebug + 2 // -2
	LevelInfo    = slog.LevelInfo      // 0
	LevelNotice  = slog.LevelInfo + 2  // 2
	LevelWarn    = slog.LevelWarn      // 4
	LevelError   = slog.LevelError     // 8
	LevelFatal   = slog.LevelError + 4 // 12
)

// levels is ordered from least to most severe.
var levels = []struct {
	name string
	lvl  slog.Level
}{
	{"trace", LevelTrace},
	{"debug", LevelDebug},
	{"verbose", LevelVerbose},
	{"info", LevelInfo},
	{"notice", LevelNotice},
	{"warn", LevelWarn},
	{"error", LevelError},
	{"fatal", LevelFatal},
}

// BumpLevel returns lvl moved to the next more severe named level, or to the next less severe one
// if lower is true.  Levels beyond either end keep moving in steps of 4.
func BumpLevel(lvl slog.Level, lower bool) slog.Level {
	if lower {
		for i := len(levels) - 1; i >= 0; i-- {
			if levels[i].lvl < lvl {
				return levels[i].lvl
			}
		}
		return lvl - 4
	}
	for _, l := range levels {
		if l.lvl > lvl {
			return l.lvl
		}
	}
	return lvl + 4
}

// StringToLevel parses a level name, case-insensitively.
func StringToLevel(arg string) (slog.Level, error) {
	arg = strings.ToLower(arg)
	names := make([]string, len(levels))
	for i, l := range levels {
		if l.name == arg {
			return l.lvl, nil
		}
		names[i] = l.name
	}
	return 0, fmt.Errorf("invalid log level %q; expected one of: %v", arg, strings.Join(names, ", "))
}

// LevelName returns the name of lvl if it is one of the named levels, otherwise [slog.Level.String].
func LevelName(lvl slog.Level) string {
	for _, l := range levels {
		if l.lvl == lvl {
			return l.name
		}
	}
	return lvl.String()
}
