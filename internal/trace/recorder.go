package trace

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Recorder captures the commands a build runs.
type Recorder interface {
	Record(ctx context.Context, build []string) ([]string, error)
}

// DefaultTools returns the executables whose invocations are kept in a trace.
func DefaultTools(deviceCompiler string) []string {
	return []string{
		deviceCompiler, "ar", "ranlib",
		"cc", "c++", "gcc", "g++", "clang", "clang++",
		"mpicc", "mpicxx", "mpic++", "ld",
	}
}

// StraceRecorder runs the build under strace and keeps the execve calls of the
// configured tools. Commands started by a kept tool (nvcc driving cicc, ptxas,
// or the host compiler) are dropped: replaying the parent reproduces them.
type StraceRecorder struct {
	Dir    string // where strace.log is written
	Strace string // strace binary, "strace" when empty
	Tools  []string
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// StraceLog returns the raw strace output path.
func (r *StraceRecorder) StraceLog() string {
	return filepath.Join(r.Dir, "strace.log")
}

// Record runs build and returns the traced commands in execution order.
func (r *StraceRecorder) Record(ctx context.Context, build []string) ([]string, error) {
	if len(build) == 0 {
		return nil, fmt.Errorf("build command is empty")
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create traces directory: %w", err)
	}

	straceBin := r.Strace
	if straceBin == "" {
		straceBin = "strace"
	}
	args := []string{"-f", "-qq", "-v", "-s", "1048576", "-e", "trace=process", "-o", r.StraceLog(), "--"}
	args = append(args, build...)

	cmd := exec.CommandContext(ctx, straceBin, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	logger.Debug("recording build", "strace", straceBin, "build", Join(build))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("traced build failed: %w", err)
	}

	f, err := os.Open(r.StraceLog())
	if err != nil {
		return nil, fmt.Errorf("open strace log: %w", err)
	}
	defer f.Close()

	argvs, err := ParseStrace(f, toolSet(r.Tools))
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(argvs))
	for _, argv := range argvs {
		lines = append(lines, Join(argv))
	}
	logger.Debug("recorded commands", "count", len(lines))
	return lines, nil
}

var (
	// 123 execve("/usr/bin/nvcc", ["nvcc", "-c", "k.cu"], [...]) = 0
	execveRe = regexp.MustCompile(`^(\d+)\s+execve\("(?:[^"\\]|\\.)*",\s+\[(.*?)\](?:,|\s+<unfinished)`)
	// 123 <... execve resumed>) = 0
	execveResumedRe = regexp.MustCompile(`^(\d+)\s+<\.\.\.\s+execve resumed>.*=\s+(-?\d+)`)
	// 123 clone(...) = 456, including the resumed form
	forkRe   = regexp.MustCompile(`^(\d+)\s+(?:<\.\.\.\s+)?(?:clone3?|v?fork)\b.*=\s+(\d+)\s*$`)
	resultRe = regexp.MustCompile(`\)\s+=\s+(-?\d+)`)
	argRe    = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// ParseStrace reads `strace -f -e trace=process` output and returns the argv of
// every successful execve whose program base name is in tools and whose
// process does not descend from another kept execve.
func ParseStrace(r io.Reader, tools map[string]bool) ([][]string, error) {
	parent := map[string]string{}
	kept := map[string]bool{}
	pending := map[string][]string{}
	var out [][]string

	descendsFromKept := func(pid string) bool {
		for p, ok := parent[pid]; ok; p, ok = parent[p] {
			if kept[p] {
				return true
			}
		}
		return false
	}
	commit := func(pid string, argv []string) {
		if len(argv) == 0 || !tools[filepath.Base(argv[0])] {
			return
		}
		if kept[pid] || descendsFromKept(pid) {
			return
		}
		kept[pid] = true
		out = append(out, argv)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()

		if m := forkRe.FindStringSubmatch(line); m != nil {
			parent[m[2]] = m[1]
			continue
		}
		if m := execveResumedRe.FindStringSubmatch(line); m != nil {
			if argv, ok := pending[m[1]]; ok && m[2] == "0" {
				commit(m[1], argv)
			}
			delete(pending, m[1])
			continue
		}
		m := execveRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		argv := parseArgv(m[2])
		if strings.Contains(line, "<unfinished") {
			pending[m[1]] = argv
			continue
		}
		if res := resultRe.FindAllStringSubmatch(line, -1); len(res) > 0 && res[len(res)-1][1] == "0" {
			commit(m[1], argv)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read strace log: %w", err)
	}
	return out, nil
}

func parseArgv(list string) []string {
	matches := argRe.FindAllStringSubmatch(list, -1)
	argv := make([]string, 0, len(matches))
	for _, m := range matches {
		s, err := strconv.Unquote(`"` + m[1] + `"`)
		if err != nil {
			s = m[1]
		}
		argv = append(argv, s)
	}
	return argv
}

func toolSet(tools []string) map[string]bool {
	set := make(map[string]bool, len(tools))
	for _, t := range tools {
		set[t] = true
	}
	return set
}
