package hooks

import (
	"io/ioutil"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestContextHookAddsCaller(t *testing.T) {
	logger := log.New()
	logger.Out = ioutil.Discard
	logger.AddHook(NewContextHook())
	hook := logtest.NewLocal(logger)
	logger.WithField("scope", "app").Info("Entered scope")

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected an entry")
	}
	line, ok := entry.Data["file:line"].(string)
	if !ok {
		t.Fatalf("expected file:line to be set, got %v", entry.Data)
	}
	if !strings.Contains(line, "context_hook_test.go:") {
		t.Errorf("expected the test file as caller, got %q", line)
	}
}

func TestCallerLine(t *testing.T) {
	stack := strings.Join([]string{
		"goroutine 1 [running]:",
		"runtime/debug.Stack()",
		"\t/usr/local/go/src/runtime/debug/stack.go:24 +0x5e",
		"github.com/twitter/ice/common/log/hooks.contextHook.Fire()",
		"\t/src/github.com/twitter/ice/common/log/hooks/context_hook.go:24 +0x25",
		"github.com/sirupsen/logrus.LevelHooks.Fire()",
		"\t/go/pkg/mod/github.com/sirupsen/logrus@v1.4.2/hooks.go:28 +0x8b",
		"github.com/twitter/ice/ice.(*resolver).create()",
		"\t/src/github.com/twitter/ice/ice/resolver.go:290 +0x1a",
		"",
	}, "\n")
	line, ok := callerLine(stack, "ice/")
	if !ok || line != "resolver.go:290" {
		t.Fatalf("expected resolver.go:290, got %q %v", line, ok)
	}
	if _, ok := callerLine("goroutine 1 [running]:\n", "ice/"); ok {
		t.Fatal("expected no caller in an empty stack")
	}
}
