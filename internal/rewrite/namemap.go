package rewrite

// Mapping is one renamed artifact base name.
type Mapping struct {
	Original string
	Renamed  string
}

// NameMap records how artifact base names (no directory, no extension) are
// renamed during instrumentation. It is filled in trace order and only read
// by commands that come later in the trace.
type NameMap struct {
	index   map[string]int
	entries []Mapping
}

// NewNameMap returns an empty table.
func NewNameMap() *NameMap {
	return &NameMap{index: make(map[string]int)}
}

// Record maps original to renamed. A later record for the same name replaces
// the earlier one, as when two trace lines compile the same object.
func (m *NameMap) Record(original, renamed string) {
	if i, ok := m.index[original]; ok {
		m.entries[i].Renamed = renamed
		return
	}
	m.index[original] = len(m.entries)
	m.entries = append(m.entries, Mapping{Original: original, Renamed: renamed})
}

// Lookup returns the renamed base name for name.
func (m *NameMap) Lookup(name string) (string, bool) {
	i, ok := m.index[name]
	if !ok {
		return "", false
	}
	return m.entries[i].Renamed, true
}

// Resolve returns the renamed base name, or name itself when it was never renamed.
func (m *NameMap) Resolve(name string) string {
	if renamed, ok := m.Lookup(name); ok {
		return renamed
	}
	return name
}

// Len returns the number of recorded names.
func (m *NameMap) Len() int { return len(m.entries) }

// Entries returns the mappings in the order they were first recorded.
func (m *NameMap) Entries() []Mapping {
	out := make([]Mapping, len(m.entries))
	copy(out, m.entries)
	return out
}
