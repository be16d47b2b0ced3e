package rewrite

import (
	"errors"
	"fmt"

	"github.com/ganeshutah/FPChecker/internal/classify"
)

// ErrRestartOutOfRange is returned when a restart index does not address the database.
var ErrRestartOutOfRange = errors.New("restart index out of range")

// Pair is the rewritten form of one traced command.
type Pair struct {
	Index     int // 1-based trace position
	Category  classify.Category
	Primary   string
	Secondary string // fallback recompilation, device-compile only
	Source    string // device source file, device-compile only
	Skipped   bool
}

// HasSecondary reports whether the pair carries a fallback command.
func (p Pair) HasSecondary() bool { return p.Secondary != "" }

// Database is the ordered sequence of rewritten commands. Entry N always
// corresponds to trace line N.
type Database struct {
	pairs []Pair
}

// NewDatabase returns a database holding pairs, renumbered from 1.
func NewDatabase(pairs ...Pair) *Database {
	db := &Database{}
	for _, p := range pairs {
		db.append(p)
	}
	return db
}

func (d *Database) append(p Pair) Pair {
	p.Index = len(d.pairs) + 1
	d.pairs = append(d.pairs, p)
	return p
}

// Len returns the number of entries.
func (d *Database) Len() int { return len(d.pairs) }

// At returns entry i (1-based).
func (d *Database) At(i int) (Pair, error) {
	if i < 1 || i > len(d.pairs) {
		return Pair{}, fmt.Errorf("%w: %d not in 1..%d", ErrRestartOutOfRange, i, len(d.pairs))
	}
	return d.pairs[i-1], nil
}

// Pairs returns a copy of all entries.
func (d *Database) Pairs() []Pair {
	out := make([]Pair, len(d.pairs))
	copy(out, d.pairs)
	return out
}

// From returns the entries from restart (1-based) to the end. A restart one
// past the last entry yields nothing to do.
func (d *Database) From(restart int) ([]Pair, error) {
	if restart < 1 || restart > len(d.pairs)+1 {
		return nil, fmt.Errorf("%w: %d not in 1..%d", ErrRestartOutOfRange, restart, len(d.pairs))
	}
	out := make([]Pair, len(d.pairs)-(restart-1))
	copy(out, d.pairs[restart-1:])
	return out, nil
}
