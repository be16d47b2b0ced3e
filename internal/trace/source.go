// Package trace reads and records the literal build-command traces that the
// instrumentation engine replays.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the name of the trace file inside the traces directory.
const FileName = "executable_traces.txt"

// ErrMissingTraceFile is returned when no trace file exists at the expected location.
var ErrMissingTraceFile = errors.New("no traces file found")

// maxLineBytes bounds a single traced command; link lines of large projects
// can run to hundreds of kilobytes.
const maxLineBytes = 16 * 1024 * 1024

// TraceFile returns the path of the trace file inside dir.
func TraceFile(dir string) string {
	return filepath.Join(dir, FileName)
}

// CheckExists reports ErrMissingTraceFile if path does not exist.
func CheckExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMissingTraceFile, path)
		}
		return fmt.Errorf("stat trace file: %w", err)
	}
	return nil
}

// ReadFile reads the trace at path. Every non-blank line is one command;
// the order of the file is preserved.
func ReadFile(path string) ([]string, error) {
	if err := CheckExists(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: trace path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace file: %w", err)
	}
	return lines, nil
}

// WriteFile writes lines to path, one command per line, creating the parent
// directory when needed.
func WriteFile(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create traces directory: %w", err)
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil { //nolint:gosec // G306: traces are not secret
		return fmt.Errorf("write trace file: %w", err)
	}
	return nil
}
