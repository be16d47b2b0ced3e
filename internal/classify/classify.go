// Package classify determines the role of a single traced build command.
package classify

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ganeshutah/FPChecker/internal/trace"
)

// Category is the role a command plays in the build.
type Category int

const (
	Passthrough Category = iota
	DeviceCompile
	IntermediateLink
	FinalProgramLink
	Archive
	Ranlib
)

var categoryNames = map[Category]string{
	Passthrough:      "passthrough",
	DeviceCompile:    "device-compile",
	IntermediateLink: "intermediate-link",
	FinalProgramLink: "final-program-link",
	Archive:          "archive",
	Ranlib:           "ranlib",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return Passthrough, fmt.Errorf("unknown category %q", s)
}

// ErrMalformedCommand is matched by every *MalformedCommandError.
var ErrMalformedCommand = errors.New("malformed command")

// MalformedCommandError reports a traced line that cannot be classified safely.
type MalformedCommandError struct {
	Line   string
	Reason string
}

func (e *MalformedCommandError) Error() string {
	return fmt.Sprintf("malformed command: %s: %q", e.Reason, e.Line)
}

func (e *MalformedCommandError) Is(target error) bool {
	return target == ErrMalformedCommand
}

// Options name the tools and suffixes the classifier recognises.
type Options struct {
	DeviceCompiler string // "nvcc"
	ObjectSuffix   string // ".o"
}

// DefaultOptions returns the options for an nvcc build.
func DefaultOptions() Options {
	return Options{DeviceCompiler: "nvcc", ObjectSuffix: ".o"}
}

// Command is a classified traced line.
type Command struct {
	Raw       string
	Tokens    []string
	Category  Category
	Output    string // argument of -o, if any
	HasOutput bool
}

// OutputIndex returns the token index of the -o argument, or -1.
func (c *Command) OutputIndex() int {
	return outputIndex(c.Tokens)
}

// compile-only switches; their presence means the command does not link.
var compileOnly = map[string]bool{
	"-c":         true,
	"--compile":  true,
	"-dc":        true,
	"--device-c": true,
}

// Classify parses line and returns its category. It depends on nothing but
// the line and opts.
func Classify(line string, opts Options) (*Command, error) {
	if opts.DeviceCompiler == "" {
		opts.DeviceCompiler = DefaultOptions().DeviceCompiler
	}
	if opts.ObjectSuffix == "" {
		opts.ObjectSuffix = DefaultOptions().ObjectSuffix
	}

	tokens, err := trace.Tokenize(line)
	if err != nil {
		return nil, &MalformedCommandError{Line: line, Reason: err.Error()}
	}

	cmd := &Command{Raw: line, Tokens: tokens, Category: Passthrough}
	if len(tokens) == 0 {
		return cmd, nil
	}

	compiles := false
	hasOutputFlag := false
	isArchive, isRanlib, isDevice := false, false, false
	for _, t := range tokens {
		if compileOnly[t] {
			compiles = true
		}
		if t == "-o" {
			hasOutputFlag = true
		}
		isArchive = isArchive || IsTool(t, "ar")
		isRanlib = isRanlib || IsTool(t, "ranlib")
		isDevice = isDevice || IsTool(t, opts.DeviceCompiler)
	}

	if hasOutputFlag {
		idx := outputIndex(tokens)
		if idx < 0 {
			return nil, &MalformedCommandError{Line: line, Reason: "-o without an output file"}
		}
		cmd.Output = tokens[idx]
		cmd.HasOutput = true
	}

	switch {
	case isArchive:
		cmd.Category = Archive
	case isRanlib:
		cmd.Category = Ranlib
	case !compiles && cmd.HasOutput:
		if strings.HasSuffix(cmd.Output, opts.ObjectSuffix) {
			cmd.Category = IntermediateLink
		} else {
			cmd.Category = FinalProgramLink
		}
	case isDevice:
		cmd.Category = DeviceCompile
	}
	return cmd, nil
}

// IsTool reports whether tok invokes name, either bare or through a path.
func IsTool(tok, name string) bool {
	return tok == name || strings.HasSuffix(tok, "/"+name)
}

func outputIndex(tokens []string) int {
	for i, t := range tokens {
		if t == "-o" {
			if i+1 >= len(tokens) {
				return -1
			}
			return i + 1
		}
	}
	return -1
}

// BaseName returns the file name of path without directory or extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
