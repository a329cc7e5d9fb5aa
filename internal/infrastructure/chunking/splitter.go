package chunking

import "strings"

// sentenceSearchMargin is how far back from a nominal cut point the splitter
// looks for a sentence-terminating character.
const sentenceSearchMargin = 100

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split slides a ChunkSize window across the text advancing by
// ChunkSize-Overlap, preferring to end each chunk just after the right-most
// sentence terminator found within the last sentenceSearchMargin characters
// of the window. When no terminator is found the raw cut is used, even
// mid-word. Chunks are edge-trimmed and empty ones dropped. Deterministic.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []string{text}
	}

	out := make([]string, 0, len(runes)/(s.ChunkSize-s.Overlap)+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			// The terminator itself must sit strictly inside the window;
			// one at the very start would leave a single-rune chunk.
			if cut := lastSentenceEnd(runes, start, end); cut-1 > start {
				end = cut
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			// Overlap swallowed the whole sentence-adjusted window;
			// advance past it to guarantee forward progress.
			next = end
		}
		start = next
	}
	return out
}

// lastSentenceEnd returns the index just after the right-most '.', '?' or '!'
// within the margin preceding end, or -1 when none qualifies.
func lastSentenceEnd(runes []rune, start, end int) int {
	from := end - sentenceSearchMargin
	if from < start {
		from = start
	}
	for i := end - 1; i >= from; i-- {
		switch runes[i] {
		case '.', '?', '!':
			return i + 1
		}
	}
	return -1
}
