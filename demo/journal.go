package demo

import (
	"fmt"
	"sync"
)

// Journal records, in order, what the demo app built and released.
// It lives in the root scope so every other scope can write to it.
type Journal struct {
	mu    sync.Mutex
	lines []string
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Built(name string) {
	j.add("build " + name)
}

func (j *Journal) Released(name string, cause error) {
	if cause != nil {
		j.add(fmt.Sprintf("release %s (%v)", name, cause))
		return
	}
	j.add("release " + name)
}

func (j *Journal) Note(format string, args ...interface{}) {
	j.add(fmt.Sprintf(format, args...))
}

func (j *Journal) add(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lines = append(j.lines, line)
}

// Lines returns a copy of everything recorded so far.
func (j *Journal) Lines() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.lines...)
}
