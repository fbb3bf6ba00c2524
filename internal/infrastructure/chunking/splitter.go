package chunking

import (
	"strings"
	"unicode/utf8"
)

// defaultSeparators are tried in order of preference, from paragraph breaks
// down to single characters. Legal text tends to carry meaning at clause
// boundaries, so "; " and ", " sit between sentence and word splits.
var defaultSeparators = []string{"\n\n", "\n", ". ", "; ", ", ", " ", ""}

type Splitter struct {
	ChunkSize int
	Overlap   int

	separators []string
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 600
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize:  chunkSize,
		Overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split breaks text into chunks of at most ChunkSize characters, splitting
// at the coarsest separator that fits and carrying the last Overlap
// characters of each chunk into the next. Identical input always yields an
// identical chunk sequence.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.merge(s.splitRecursive(text, s.separators))
}

// splitRecursive cuts text into pieces no longer than ChunkSize, keeping
// each separator attached to the piece it terminates so that concatenating
// the pieces reproduces the input exactly.
func (s *Splitter) splitRecursive(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= s.ChunkSize {
		return []string{text}
	}

	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" {
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		// No separator left: fall back to single characters so merge can
		// still build exact-size chunks with exact overlap.
		runes := []rune(text)
		out := make([]string, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out
	}

	var out []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) <= s.ChunkSize {
			out = append(out, piece)
			continue
		}
		out = append(out, s.splitRecursive(piece, rest)...)
	}
	return out
}

// merge packs pieces into chunks up to ChunkSize and seeds each new chunk
// with the trailing Overlap characters of the previous one. When a carried
// overlap cannot host the next piece without exceeding ChunkSize, the
// overlap is dropped rather than emitting an oversized chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	current := make([]rune, 0, s.ChunkSize)
	hasNew := false

	for _, piece := range pieces {
		runes := []rune(piece)
		if len(runes) == 0 {
			continue
		}

		if len(current)+len(runes) > s.ChunkSize {
			if hasNew {
				chunks = appendChunk(chunks, current)
				current = carryOverlap(current, s.Overlap)
				hasNew = false
			}
			if len(current)+len(runes) > s.ChunkSize {
				current = current[:0]
			}
		}

		current = append(current, runes...)
		hasNew = true
	}

	if hasNew {
		chunks = appendChunk(chunks, current)
	}
	return chunks
}

func carryOverlap(chunk []rune, overlap int) []rune {
	if overlap <= 0 {
		return nil
	}
	if len(chunk) > overlap {
		chunk = chunk[len(chunk)-overlap:]
	}
	out := make([]rune, len(chunk))
	copy(out, chunk)
	return out
}

func appendChunk(chunks []string, current []rune) []string {
	chunk := strings.TrimSpace(string(current))
	if chunk == "" {
		return chunks
	}
	return append(chunks, chunk)
}
