package processor

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default maximum chunk length in characters.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of characters adjacent chunks share.
const DefaultChunkOverlap = 80

// separators in descending boundary priority. The empty string means a raw
// character cut and must stay last.
var separators = []string{"\n\n", "\n", " ", ""}

// Chunker splits text into overlapping, size-bounded segments by recursively
// cutting at the largest semantic boundary available: paragraph break, then
// line break, then word boundary, then raw characters. Splitting is purely a
// function of the input text, so identical text always yields identical chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewChunker creates a chunker with the given options.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	// Overlap must leave room for new content in every chunk.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 10
	}
	return c
}

// Split chunks text. Empty input yields no chunks; input no longer than the
// chunk size yields exactly one chunk equal to the input. Otherwise every
// chunk is at most chunkSize characters and each adjacent pair shares at
// least overlap characters of context.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= c.chunkSize {
		return []string{text}
	}
	return c.merge(c.splitAtoms(text, separators))
}

// splitAtoms cuts text into pieces no longer than chunkSize-overlap
// characters, preferring the highest-priority separator present. Separators
// stay attached to the preceding piece, so concatenating the pieces
// reconstructs the input exactly.
func (c *Chunker) splitAtoms(text string, seps []string) []string {
	limit := c.chunkSize - c.overlap
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	idx := len(seps) - 1
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			idx = i
			break
		}
	}
	sep := seps[idx]

	if sep == "" {
		runes := []rune(text)
		atoms := make([]string, 0, (len(runes)+limit-1)/limit)
		for start := 0; start < len(runes); start += limit {
			end := start + limit
			if end > len(runes) {
				end = len(runes)
			}
			atoms = append(atoms, string(runes[start:end]))
		}
		return atoms
	}

	parts := strings.SplitAfter(text, sep)
	var atoms []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= limit {
			atoms = append(atoms, part)
		} else {
			atoms = append(atoms, c.splitAtoms(part, seps[idx+1:])...)
		}
	}
	return atoms
}

// merge packs atoms into chunks up to chunkSize characters, seeding each new
// chunk with the trailing overlap characters of the one it just closed.
func (c *Chunker) merge(atoms []string) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	for _, atom := range atoms {
		atomLen := utf8.RuneCountInString(atom)
		if curLen > 0 && curLen+atomLen > c.chunkSize {
			chunk := cur.String()
			chunks = append(chunks, chunk)

			tail := tailRunes(chunk, c.overlap)
			cur.Reset()
			cur.WriteString(tail)
			curLen = utf8.RuneCountInString(tail)
		}
		cur.WriteString(atom)
		curLen += atomLen
	}
	if curLen > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
