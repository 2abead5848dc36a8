// Package chunker turns raw document text into ordered, overlapping chunks.
package chunker

import (
	"regexp"
	"strconv"
	"strings"
)

// Chunk is a bounded contiguous slice of a source document, the unit of
// retrieval. For a given source, Index values are contiguous from 0 and
// TotalChunks is identical across all chunks produced in the same run.
type Chunk struct {
	// ID is derived from Source and Index, stable across re-ingestion
	// runs with identical content.
	ID string `json:"id"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Source is the originating document filename.
	Source string `json:"source"`

	// Index is the zero-based position of this chunk within the source.
	Index int `json:"chunk_index"`

	// TotalChunks is the number of chunks the source produced.
	TotalChunks int `json:"total_chunks"`
}

// ChunkID returns the deterministic identifier for a chunk of source at index.
func ChunkID(source string, index int) string {
	return source + ":" + strconv.Itoa(index)
}

var (
	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	blankRuns   = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes line endings to LF, collapses runs of three or more
// newlines to a single blank line, and trims surrounding whitespace.
// Pure and total.
func Clean(raw string) string {
	text := lineEndings.Replace(raw)
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Split breaks text into chunks of at most chunkSize characters, measured
// as word lengths plus one separator per word. When a chunk closes, the
// next one is seeded with the trailing words of the closed chunk; the
// carry count is floor(overlap/chunkSize * wordsInClosedChunk).
//
// Empty input yields no chunks. Input shorter than chunkSize yields a
// single chunk covering the whole input. The result is deterministic:
// identical inputs produce bit-identical chunks.
func Split(text, source string, chunkSize, overlap int) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []Chunk
	var current []string
	currentLen := 0

	emit := func() {
		chunks = append(chunks, Chunk{
			ID:      ChunkID(source, len(chunks)),
			Content: strings.Join(current, " "),
			Source:  source,
			Index:   len(chunks),
		})
	}

	for _, word := range words {
		if currentLen+len(word)+1 > chunkSize && len(current) > 0 {
			emit()

			carry := overlap * len(current) / chunkSize
			if carry >= len(current) {
				// Guarantees forward progress when overlap >= chunkSize.
				carry = len(current) - 1
			}
			seed := make([]string, carry)
			copy(seed, current[len(current)-carry:])
			current = seed
			currentLen = 0
			for _, w := range current {
				currentLen += len(w) + 1
			}
		}
		current = append(current, word)
		currentLen += len(word) + 1
	}

	if len(current) > 0 {
		emit()
	}

	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}
