// Package logger provides verbose logging for galassia.
// When verbose mode is enabled via the --verbose flag, messages are printed
// to stderr so a workflow run can be followed stage by stage. Concurrent
// runs log through a Scope so their lines stay attributable.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Output returns the current output writer.
func Output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

// write prints one line under the lock so lines from concurrent stages do not
// interleave.
func write(prefix, level, format string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, level+prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { write("", "[DEBUG] ", format, args) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { write("", "[INFO] ", format, args) }

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) { write("", "[WARN] ", format, args) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) { write("", "\n=== ", "%s ===", []any{name}) }

// Scope prefixes every line with a label, such as the question id of a run.
type Scope struct {
	prefix string
}

// Scoped returns a Scope labelled name. An empty name logs unprefixed.
func Scoped(name string) Scope {
	if name == "" {
		return Scope{}
	}
	return Scope{prefix: name + ": "}
}

// Debug prints a scoped message if verbose mode is enabled.
func (s Scope) Debug(format string, args ...any) { write(s.prefix, "[DEBUG] ", format, args) }

// Info prints a scoped informational message if verbose mode is enabled.
func (s Scope) Info(format string, args ...any) { write(s.prefix, "[INFO] ", format, args) }

// Warn prints a scoped warning if verbose mode is enabled.
func (s Scope) Warn(format string, args ...any) { write(s.prefix, "[WARN] ", format, args) }

// Section prints a scoped section header if verbose mode is enabled.
func (s Scope) Section(name string) { write(s.prefix, "\n=== ", "%s ===", []any{name}) }

type scopeKey struct{}

// WithScope returns a context whose FromContext lookups yield s.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the Scope stored by WithScope, or an unprefixed one.
func FromContext(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}
