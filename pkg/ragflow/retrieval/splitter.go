package retrieval

import (
	"strings"
	"unicode/utf8"
)

// Splitter cuts text into overlapping chunks, preferring paragraph breaks,
// then line breaks, then spaces, then individual characters.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// DefaultSplitter returns 1000-character chunks with 200 characters of overlap.
func DefaultSplitter() Splitter {
	return Splitter{ChunkSize: 1000, ChunkOverlap: 200}
}

var separators = []string{"\n\n", "\n", " ", ""}

// Split returns the chunks of text. Whitespace-only chunks are dropped.
func (s Splitter) Split(text string) []string {
	if s.ChunkSize <= 0 {
		s = DefaultSplitter()
	}
	if s.ChunkOverlap >= s.ChunkSize {
		s.ChunkOverlap = s.ChunkSize / 5
	}
	return s.split(text, separators)
}

func (s Splitter) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, good []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if length(p) < s.ChunkSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good, sep)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, p)
		} else {
			out = append(out, s.split(p, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, s.merge(good, sep)...)
	}
	return out
}

// merge packs pieces into chunks no longer than ChunkSize, carrying up to
// ChunkOverlap characters of trailing pieces into the next chunk.
func (s Splitter) merge(pieces []string, sep string) []string {
	sepLen := length(sep)
	var out, current []string
	total := 0

	joinedLen := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return total + n
	}

	for _, p := range pieces {
		n := length(p)
		if joinedLen(n) > s.ChunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
				out = append(out, chunk)
			}
			for total > s.ChunkOverlap || (joinedLen(n) > s.ChunkSize && total > 0) {
				total -= length(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		total = joinedLen(n)
		current = append(current, p)
	}
	if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
