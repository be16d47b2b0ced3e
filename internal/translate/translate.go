// Package translate converts device-compiler command lines into equivalent
// host-compiler command lines.
package translate

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Translator produces a host-compiler command equivalent to a device-compile command.
type Translator interface {
	// Translate returns the host-compiler argv for the device-compiler argv tokens.
	Translate(tokens []string) ([]string, error)
	// Compiler is the host-compiler program name that Translate emits.
	Compiler() string
}

// NVCC translates nvcc command lines to clang++ command lines.
type NVCC struct {
	Device string // device compiler name, "nvcc" when empty
	Host   string // host compiler, "clang++" when empty
}

// NewNVCC returns the default nvcc to clang++ translator.
func NewNVCC() *NVCC {
	return &NVCC{Device: "nvcc", Host: "clang++"}
}

func (n *NVCC) Compiler() string {
	if n.Host == "" {
		return "clang++"
	}
	return n.Host
}

func (n *NVCC) device() string {
	if n.Device == "" {
		return "nvcc"
	}
	return n.Device
}

// nvcc switches that have no clang++ counterpart and take no argument.
var dropped = map[string]bool{
	"--expt-extended-lambda":   true,
	"--extended-lambda":        true,
	"--expt-relaxed-constexpr": true,
	"-lineinfo":                true,
	"--generate-line-info":     true,
	"--keep":                   true,
	"-keep":                    true,
}

// nvcc switches with no clang++ counterpart whose next token is their argument.
var droppedWithArg = map[string]bool{
	"-ccbin":            true,
	"--compiler-bindir": true,
	"-maxrregcount":     true,
	"--maxrregcount":    true,
	"-Xptxas":           true,
	"--ptxas-options":   true,
	"-Xnvlink":          true,
	"--nvlink-options":  true,
	"--generate-code":   true,
	"-gencode":          true,
	"--default-stream":  true,
	"-default-stream":   true,
	"--diag-suppress":   true,
	"--keep-dir":        true,
}

// Translate implements Translator.
func (n *NVCC) Translate(tokens []string) ([]string, error) {
	compilerIdx := -1
	for i, t := range tokens {
		if t == n.device() || strings.HasSuffix(t, "/"+n.device()) {
			compilerIdx = i
			break
		}
	}
	if compilerIdx < 0 {
		return nil, fmt.Errorf("no %s invocation in command", n.device())
	}

	out := make([]string, 0, len(tokens)+2)
	out = append(out, tokens[:compilerIdx]...)
	out = append(out, n.Compiler())

	args := tokens[compilerIdx+1:]
	for i := 0; i < len(args); i++ {
		t := args[i]
		next := func() (string, bool) {
			if i+1 < len(args) {
				i++
				return args[i], true
			}
			return "", false
		}

		switch {
		case dropped[t]:
		case droppedWithArg[t]:
			next()
		case strings.HasPrefix(t, "-ccbin=") || strings.HasPrefix(t, "--compiler-bindir=") ||
			strings.HasPrefix(t, "-gencode=") || strings.HasPrefix(t, "--generate-code=") ||
			strings.HasPrefix(t, "-maxrregcount=") || strings.HasPrefix(t, "--maxrregcount="):
		case t == "-arch" || t == "--gpu-architecture":
			if arch, ok := next(); ok {
				out = append(out, "--cuda-gpu-arch="+gpuArch(arch))
			}
		case strings.HasPrefix(t, "-arch="):
			out = append(out, "--cuda-gpu-arch="+gpuArch(strings.TrimPrefix(t, "-arch=")))
		case strings.HasPrefix(t, "--gpu-architecture="):
			out = append(out, "--cuda-gpu-arch="+gpuArch(strings.TrimPrefix(t, "--gpu-architecture=")))
		case t == "-Xcompiler" || t == "--compiler-options":
			if opts, ok := next(); ok {
				out = append(out, splitList(opts)...)
			}
		case strings.HasPrefix(t, "-Xcompiler="):
			out = append(out, splitList(strings.TrimPrefix(t, "-Xcompiler="))...)
		case strings.HasPrefix(t, "--compiler-options="):
			out = append(out, splitList(strings.TrimPrefix(t, "--compiler-options="))...)
		case t == "-Xlinker" || t == "--linker-options":
			if opts, ok := next(); ok {
				for _, o := range splitList(opts) {
					out = append(out, "-Wl,"+o)
				}
			}
		case t == "-x" || t == "--x":
			if lang, ok := next(); ok {
				if lang == "cu" {
					lang = "cuda"
				}
				out = append(out, "-x", lang)
			}
		case t == "-rdc=true" || t == "--relocatable-device-code=true":
			out = append(out, "-fgpu-rdc")
		case t == "-rdc=false" || t == "--relocatable-device-code=false":
		case t == "-rdc" || t == "--relocatable-device-code":
			if v, ok := next(); ok && v == "true" {
				out = append(out, "-fgpu-rdc")
			}
		case t == "-dc" || t == "--device-c":
			out = append(out, "-fgpu-rdc", "-c")
		case t == "-use_fast_math" || t == "--use_fast_math":
			out = append(out, "-ffast-math")
		case t == "--compile":
			out = append(out, "-c")
		case t == "--output-file":
			if o, ok := next(); ok {
				out = append(out, "-o", o)
			}
		case strings.HasPrefix(t, "--output-file="):
			out = append(out, "-o", strings.TrimPrefix(t, "--output-file="))
		case t == "--std" || t == "-std":
			if std, ok := next(); ok {
				out = append(out, "-std="+std)
			}
		case strings.HasPrefix(t, "--std="):
			out = append(out, "-std="+strings.TrimPrefix(t, "--std="))
		case t == "--include-path":
			if p, ok := next(); ok {
				out = append(out, "-I"+p)
			}
		case t == "--define-macro":
			if d, ok := next(); ok {
				out = append(out, "-D"+d)
			}
		default:
			out = append(out, t)
		}
	}
	return out, nil
}

// gpuArch maps nvcc virtual architectures (compute_70) to real ones (sm_70).
func gpuArch(arch string) string {
	if rest, ok := strings.CutPrefix(arch, "compute_"); ok {
		return "sm_" + rest
	}
	return arch
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsCompiler reports whether tok invokes the translator's host compiler.
func IsCompiler(t Translator, tok string) bool {
	return tok == t.Compiler() || filepath.Base(tok) == t.Compiler()
}
