package adb

import (
	"context"
	"strings"
	"sync"
)

// fakeRunner answers adb invocations from a handler keyed on the arguments.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(ctx context.Context, args []string) (Output, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string) (Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()
	return f.fn(ctx, args)
}

func (f *fakeRunner) lastCall() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

// stripSerial drops a leading "-s <serial>" pair.
func stripSerial(args []string) (string, []string) {
	if len(args) >= 2 && args[0] == "-s" {
		return args[1], args[2:]
	}
	return "", args
}

func joined(args []string) string {
	return strings.Join(args, " ")
}
