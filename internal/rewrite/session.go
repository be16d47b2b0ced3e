package rewrite

import (
	"fmt"
	"log/slog"

	"github.com/ganeshutah/FPChecker/internal/classify"
	"github.com/ganeshutah/FPChecker/internal/trace"
	"github.com/ganeshutah/FPChecker/internal/translate"
)

// Session owns the state of one classification and rewriting pass: the
// name table and the command database it fills. Lines must be added in
// trace order.
type Session struct {
	opts       Options
	strategy   Strategy
	translator translate.Translator
	names      *NameMap
	db         *Database
	logger     *slog.Logger
}

// NewSession creates a session. A nil logger uses slog.Default().
func NewSession(opts Options, strategy Strategy, translator translate.Translator, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Classify.DeviceCompiler == "" || opts.Classify.ObjectSuffix == "" {
		def := classify.DefaultOptions()
		if opts.Classify.DeviceCompiler == "" {
			opts.Classify.DeviceCompiler = def.DeviceCompiler
		}
		if opts.Classify.ObjectSuffix == "" {
			opts.Classify.ObjectSuffix = def.ObjectSuffix
		}
	}
	return &Session{
		opts:       opts,
		strategy:   strategy,
		translator: translator,
		names:      NewNameMap(),
		db:         &Database{},
		logger:     logger,
	}
}

// Names returns the session's name table.
func (s *Session) Names() *NameMap { return s.names }

// Database returns the commands rewritten so far.
func (s *Session) Database() *Database { return s.db }

// Strategy returns the device-compile strategy in use.
func (s *Session) Strategy() Strategy { return s.strategy }

// Build adds every line of a trace and returns the database. It stops at the
// first line that cannot be classified; nothing has been executed by then.
func (s *Session) Build(lines []string) (*Database, error) {
	for i, line := range lines {
		if _, err := s.Add(line); err != nil {
			return nil, fmt.Errorf("trace line %d: %w", i+1, err)
		}
	}
	return s.db, nil
}

// Add classifies and rewrites the next trace line and appends the result.
func (s *Session) Add(line string) (Pair, error) {
	cmd, err := classify.Classify(line, s.opts.Classify)
	if err != nil {
		return Pair{}, err
	}

	pair, err := s.rewrite(cmd)
	if err != nil {
		return Pair{}, err
	}
	pair = s.db.append(pair)
	s.logger.Debug("rewrote command",
		"index", pair.Index,
		"category", pair.Category.String(),
		"skipped", pair.Skipped,
	)
	return pair, nil
}

func (s *Session) rewrite(cmd *classify.Command) (Pair, error) {
	switch cmd.Category {
	case classify.FinalProgramLink:
		primary, err := rewriteFinalLink(cmd, s.opts, s.names)
		if err != nil {
			return Pair{}, err
		}
		return Pair{Category: cmd.Category, Primary: primary}, nil

	case classify.Archive:
		primary, ok := RewriteArchive(cmd.Raw)
		if !ok {
			s.logger.Debug("archive command left unchanged", "line", cmd.Raw)
		}
		return Pair{Category: cmd.Category, Primary: primary}, nil

	case classify.DeviceCompile:
		idx, source := s.opts.sourceFile(cmd.Tokens)
		if idx < 0 {
			// nvcc --version and friends: nothing to instrument.
			return Pair{Category: classify.Passthrough, Primary: cmd.Raw}, nil
		}
		if s.opts.skipped(source) {
			return Pair{
				Category: cmd.Category,
				Primary:  SkipNotice(source),
				Source:   source,
				Skipped:  true,
			}, nil
		}
		return s.rewriteDeviceCompile(cmd, idx, source)

	default:
		return Pair{Category: cmd.Category, Primary: cmd.Raw}, nil
	}
}

// SkipNotice is the command that replaces a skipped compilation.
func SkipNotice(source string) string {
	return trace.Join([]string{"echo", "Skipping: " + source})
}
