package hooks

import (
	"runtime/debug"
	"strings"

	log "github.com/sirupsen/logrus"
)

// contextHook annotates every entry with the file:line of the code that logged it.
type contextHook struct {
	trim string
}

// NewContextHook reports paths relative to the last "ice/" path element.
func NewContextHook() contextHook {
	return contextHook{trim: "ice/"}
}

func (hook contextHook) Levels() []log.Level {
	return log.AllLevels
}

func (hook contextHook) Fire(entry *log.Entry) error {
	if line, ok := callerLine(string(debug.Stack()), hook.trim); ok {
		entry.Data["file:line"] = line
	}
	return nil
}

// callerLine skips the frames of this hook and of logrus itself and returns the
// location of the first frame after them.
// Frames come in pairs: a function line, then a tab-indented file:line line.
func callerLine(stack, trim string) (string, bool) {
	lines := strings.Split(stack, "\n")
	foundHookBlock := false
	for i := 0; i+1 < len(lines); i++ {
		fn, loc := lines[i], lines[i+1]
		if strings.Contains(loc, "context_hook.go:") {
			foundHookBlock = true
			i++
			continue
		}
		if !foundHookBlock || !strings.HasPrefix(loc, "\t") {
			continue
		}
		i++
		if strings.Contains(fn, "sirupsen/logrus") {
			continue
		}
		loc = strings.TrimSpace(loc)
		if idx := strings.LastIndex(loc, " +0x"); idx >= 0 {
			loc = loc[:idx]
		}
		parts := strings.Split(loc, trim)
		return parts[len(parts)-1], true
	}
	return "", false
}
