package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"nvcc -c kernel.cu -o kernel.o", []string{"nvcc", "-c", "kernel.cu", "-o", "kernel.o"}},
		{`nvcc -I"/opt/my dir/include" -c a.cu`, []string{"nvcc", "-I/opt/my dir/include", "-c", "a.cu"}},
		{`nvcc '-DMSG="hi"' -c a.cu`, []string{"nvcc", `-DMSG="hi"`, "-c", "a.cu"}},
		{`cd build && nvcc -c a.cu`, []string{"cd", "build", "&&", "nvcc", "-c", "a.cu"}},
		{`gcc my\ file.c`, []string{"gcc", "my file.c"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Tokenize(tt.line)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTokenize_UnterminatedQuote(t *testing.T) {
	_, err := Tokenize(`nvcc "-DX=1 -c a.cu`)
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"":                "''",
		"kernel.cu":       "kernel.cu",
		"-DN=4":           "-DN=4",
		"&&":              "&&",
		"2>&1":            "2>&1",
		"my file.cu":      "'my file.cu'",
		`-DMSG="hi"`:      `'-DMSG="hi"'`,
		"it's":            `'it'"'"'s'`,
		"$(rm -rf /)":     "'$(rm -rf /)'",
		"/usr/bin/g++-12": "/usr/bin/g++-12",
	}
	for in, want := range tests {
		assert.Equal(t, want, Quote(in), in)
	}
}

func TestJoin_TokenizeRoundTrip(t *testing.T) {
	argvs := [][]string{
		{"nvcc", "-c", "kernel.cu", "-o", "kernel.o"},
		{"nvcc", `-DMSG="hi there"`, "-I/opt/a b/include", "main.cu"},
		{"clang++", "it's", "a.cu"},
	}
	for _, argv := range argvs {
		got, err := Tokenize(Join(argv))
		require.NoError(t, err)
		if diff := cmp.Diff(argv, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestChain(t *testing.T) {
	got := Chain(
		[]string{"cp", "-f", "a.cu", "a_copy.cu"},
		nil,
		[]string{"clang++", "-c", "a_copy.cu"},
	)
	assert.Equal(t, "cp -f a.cu a_copy.cu && clang++ -c a_copy.cu", got)
	assert.Equal(t, "", Chain())
}
