package replay

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputBuffer_UnderLimit(t *testing.T) {
	b := NewOutputBuffer(16)
	n, err := b.Write([]byte("hello "))
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
	_, _ = b.Write([]byte("world"))

	assert.Equal(t, "hello world", b.String())
	assert.Equal(t, int64(0), b.Dropped())
}

func TestOutputBuffer_KeepsTail(t *testing.T) {
	b := NewOutputBuffer(8)
	_, _ = b.Write([]byte("0123456"))
	_, _ = b.Write([]byte("789"))

	assert.Equal(t, int64(2), b.Dropped())
	assert.Equal(t, "[... 2 bytes omitted ...]\n23456789", b.String())
}

func TestOutputBuffer_SingleLargeWrite(t *testing.T) {
	b := NewOutputBuffer(4)
	_, _ = b.Write([]byte("ab"))
	n, _ := b.Write([]byte("cdefgh"))

	assert.Equal(t, 6, n)
	assert.Equal(t, int64(4), b.Dropped())
	assert.True(t, strings.HasSuffix(b.String(), "\nefgh"))
}

func TestOutputBuffer_DefaultLimit(t *testing.T) {
	b := NewOutputBuffer(0)
	assert.Equal(t, DefaultBufferSize, b.limit)
}

func TestOutputBuffer_ConcurrentWrites(t *testing.T) {
	b := NewOutputBuffer(1 << 10)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = b.Write([]byte("x"))
			}
		}()
	}
	wg.Wait()
	assert.Len(t, b.String(), 800)
}
