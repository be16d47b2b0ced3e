package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawWords_MatchesTokenize(t *testing.T) {
	lines := []string{
		"nvcc -c kernel.cu -o kernel.o",
		`nvcc -I"/opt/my dir/include" -c a.cu`,
		`nvcc '-DMSG="hi"' -c a.cu`,
		`gcc my\ file.c -o "$OUT/prog"`,
		`nvcc -c a.cu # trailing comment`,
		`echo '' "a\"b" x#y`,
		"nvcc obj/*.o -o $OUT/prog",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			want, err := Tokenize(line)
			require.NoError(t, err)
			words := rawWords(line)
			got := make([]string, len(words))
			for i, w := range words {
				got[i] = w.text
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("rawWords() text mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewSpelling_KeepsWrittenForm(t *testing.T) {
	s := NewSpelling(`nvcc -I"/opt/my dir" obj/*.o -o $OUT/prog`)
	require.NotNil(t, s)

	assert.Equal(t, `-I"/opt/my dir"`, s.Spell("-I/opt/my dir"))
	assert.Equal(t, "obj/*.o", s.Spell("obj/*.o"))
	assert.Equal(t, "$OUT/prog", s.Spell("$OUT/prog"))
	assert.Equal(t, "'new word'", s.Spell("new word"))
}

func TestNewSpelling_UnterminatedQuote(t *testing.T) {
	assert.Nil(t, NewSpelling(`nvcc "-DX=1 -c a.cu`))
}

func TestSpelling_DerivedWords(t *testing.T) {
	s := NewSpelling(`nvcc $OBJ/b.o "$OUT/prog" $DIR -c $SRC/k.cu`)

	tests := map[string]string{
		"$OUT/prog_fpc":  `"$OUT/prog"_fpc`,
		"$OBJ/b_copy.o":  "$OBJ/b_copy.o",
		"$SRC/k_copy.cu": "$SRC/k_copy.cu",
		// $DIR_fpc would name another variable.
		"$DIR_fpc": "'$DIR_fpc'",
		// No known word in that directory.
		"$LIB/x.o": "'$LIB/x.o'",
	}
	for tok, want := range tests {
		assert.Equal(t, want, s.Spell(tok), tok)
	}
}

func TestSpelling_AmbiguousWordIsQuoted(t *testing.T) {
	s := NewSpelling(`echo $HOME '$HOME'`)
	assert.Equal(t, "'$HOME'", s.Spell("$HOME"))
}

func TestSpelling_NilQuotes(t *testing.T) {
	var s Spelling
	assert.Equal(t, "cp -f 'a b.cu' a_copy.cu && clang++", s.Chain(
		[]string{"cp", "-f", "a b.cu", "a_copy.cu"},
		[]string{"clang++"},
	))
	assert.Equal(t, Join([]string{"$X", "y"}), s.Join([]string{"$X", "y"}))
}
