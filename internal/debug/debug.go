// Package debug provides a gated tracing facility used by the job queue,
// watcher and executor. Output is off by default. It is written only when
// EnableDebug is set at build time (-ldflags) or the DEBUG environment
// variable at runtime, and a writer has been installed with SetDebugOutput
// or InitDebugLogFile; with no writer installed nothing is written.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug is a build flag override:
// go build -ldflags "-X github.com/kgraph-dev/kgindex/internal/debug.EnableDebug=true"
var EnableDebug = "false"

var (
	debugOutput io.Writer
	debugFile   *os.File
	debugMutex  sync.Mutex
)

// SetDebugOutput sets a custom writer for debug output. Pass nil to
// disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile initializes debug logging to a timestamped file under
// the OS temp directory and returns its path.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "kgindex-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		debugOutput = nil
		return err
	}
	return nil
}

// IsDebugEnabled reports whether debug tracing is currently active.
func IsDebugEnabled() bool {
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

func getDebugWriter() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Log provides structured debug logging with a component tag.
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogExecutor traces the C7 indexing executor (parse/analyze/load phases).
func LogExecutor(format string, args ...interface{}) {
	Log("EXEC", format, args...)
}

// LogQueue traces the C9 dispatcher/worker pool.
func LogQueue(format string, args ...interface{}) {
	Log("QUEUE", format, args...)
}

// LogWatch traces the C10 file watcher/debouncer.
func LogWatch(format string, args ...interface{}) {
	Log("WATCH", format, args...)
}

// LogGraph traces C5/C6/C11 (mapping, bulk load, schema).
func LogGraph(format string, args ...interface{}) {
	Log("GRAPH", format, args...)
}
