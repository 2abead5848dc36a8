package chunker

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	t.Run("normalizes line endings", func(t *testing.T) {
		assert.Equal(t, "a\nb\nc", Clean("a\r\nb\rc"))
	})

	t.Run("collapses blank line runs", func(t *testing.T) {
		assert.Equal(t, "a\n\nb", Clean("a\n\n\n\n\nb"))
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		assert.Equal(t, "hello", Clean("  \n hello \t\n"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", Clean(""))
		assert.Equal(t, "", Clean(" \n\r\n "))
	})
}

func TestSplit(t *testing.T) {
	t.Run("empty input yields no chunks", func(t *testing.T) {
		assert.Empty(t, Split("", "doc.txt", 100, 20))
		assert.Empty(t, Split("   \n  ", "doc.txt", 100, 20))
	})

	t.Run("short input yields single chunk", func(t *testing.T) {
		chunks := Split("hello world", "doc.txt", 100, 20)
		require.Len(t, chunks, 1)
		assert.Equal(t, "hello world", chunks[0].Content)
		assert.Equal(t, 0, chunks[0].Index)
		assert.Equal(t, 1, chunks[0].TotalChunks)
		assert.Equal(t, "doc.txt:0", chunks[0].ID)
	})

	t.Run("chunk indexes are contiguous and total is consistent", func(t *testing.T) {
		text := strings.Repeat("palavra ", 500)
		chunks := Split(text, "doc.txt", 120, 40)
		require.Greater(t, len(chunks), 1)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, len(chunks), c.TotalChunks)
			assert.Equal(t, ChunkID("doc.txt", i), c.ID)
			assert.Equal(t, "doc.txt", c.Source)
		}
	})

	t.Run("chunks never exceed the size limit", func(t *testing.T) {
		text := strings.Repeat("uma frase com palavras variadas ", 200)
		for _, c := range Split(text, "doc.txt", 150, 30) {
			// Budget counts one separator per word, so the joined
			// content is always strictly under the limit.
			assert.LessOrEqual(t, len(c.Content)+1, 150)
		}
	})

	t.Run("coverage reconstructs the original word sequence", func(t *testing.T) {
		words := make([]string, 300)
		for i := range words {
			words[i] = "w" + strconv.Itoa(i) // unique words make overlap unambiguous
		}
		text := strings.Join(words, " ")
		chunks := Split(text, "doc.txt", 100, 25)
		require.Greater(t, len(chunks), 1)

		var rebuilt []string
		for i, c := range chunks {
			cw := strings.Fields(c.Content)
			if i == 0 {
				rebuilt = append(rebuilt, cw...)
				continue
			}
			// Strip the overlap prefix shared with what we already have.
			k := 0
			for k < len(cw) && k < len(rebuilt) &&
				equalSuffixPrefix(rebuilt, cw, k+1) {
				k++
			}
			rebuilt = append(rebuilt, cw[k:]...)
		}
		assert.Equal(t, words, rebuilt)
	})

	t.Run("consecutive chunks share boundary words", func(t *testing.T) {
		text := strings.Repeat("conteudo repetido para sobreposicao ", 100)
		chunks := Split(text, "doc.txt", 120, 60)
		require.Greater(t, len(chunks), 1)
		for i := 1; i < len(chunks); i++ {
			prev := strings.Fields(chunks[i-1].Content)
			cur := strings.Fields(chunks[i].Content)
			carry := 60 * len(prev) / 120
			if carry >= len(prev) {
				carry = len(prev) - 1
			}
			require.GreaterOrEqual(t, carry, 1)
			assert.Equal(t, prev[len(prev)-carry:], cur[:carry],
				"chunk %d should start with the tail of chunk %d", i, i-1)
		}
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		text := strings.Repeat("determinismo e a base do teste de idempotencia ", 80)
		a := Split(text, "doc.txt", 200, 50)
		b := Split(text, "doc.txt", 200, 50)
		assert.Equal(t, a, b)
	})

	t.Run("overlap larger than chunk size still progresses", func(t *testing.T) {
		text := strings.Repeat("x ", 500)
		chunks := Split(text, "doc.txt", 20, 40)
		require.NotEmpty(t, chunks)
		assert.Greater(t, len(chunks), 1)
	})
}

// equalSuffixPrefix reports whether the last k elements of have equal the
// first k elements of next.
func equalSuffixPrefix(have, next []string, k int) bool {
	if k > len(have) || k > len(next) {
		return false
	}
	for i := 0; i < k; i++ {
		if have[len(have)-k+i] != next[i] {
			return false
		}
	}
	return true
}
