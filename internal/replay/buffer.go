package replay

import (
	"fmt"
	"sync"
)

// DefaultBufferSize bounds the output kept for one command (1 MiB).
const DefaultBufferSize = 1 << 20

// OutputBuffer captures the combined stdout and stderr of a command. Once
// full it keeps the most recent bytes, since compiler errors come last, and
// counts what it dropped.
type OutputBuffer struct {
	mu      sync.Mutex
	data    []byte
	limit   int
	dropped int64
}

// NewOutputBuffer creates a buffer keeping at most limit bytes.
func NewOutputBuffer(limit int) *OutputBuffer {
	if limit <= 0 {
		limit = DefaultBufferSize
	}
	return &OutputBuffer{limit: limit}
}

// Write implements io.Writer and never fails.
func (b *OutputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if n >= b.limit {
		b.dropped += int64(len(b.data) + n - b.limit)
		b.data = append(b.data[:0], p[n-b.limit:]...)
		return n, nil
	}
	if over := len(b.data) + n - b.limit; over > 0 {
		b.dropped += int64(over)
		b.data = append(b.data[:0], b.data[over:]...)
	}
	b.data = append(b.data, p...)
	return n, nil
}

// Dropped returns how many leading bytes were discarded.
func (b *OutputBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// String returns the captured output, prefixed with a marker when the
// beginning was discarded.
func (b *OutputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dropped > 0 {
		return fmt.Sprintf("[... %d bytes omitted ...]\n%s", b.dropped, b.data)
	}
	return string(b.data)
}
