package chunk

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200

	// sentenceScanWindow bounds the backward search for a sentence
	// terminator at each window boundary. Keeping it bounded avoids
	// quadratic behavior on texts with no punctuation.
	sentenceScanWindow = 200
)

// Splitter cuts text into overlapping windows, preferring to cut at
// sentence boundaries. Splitting is pure: identical input always yields
// identical chunks.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. overlap must be smaller than size; this is the
// invariant that guarantees forward progress and seam coverage.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, goerr.New("chunk size must be positive", goerr.V("size", size))
	}
	if overlap < 0 || overlap >= size {
		return nil, goerr.New("overlap must be in [0, size)",
			goerr.V("size", size), goerr.V("overlap", overlap))
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split cuts text into chunks of up to size runes. When a window boundary
// falls mid-sentence, the cut moves back to the nearest terminator within
// the scan window; if none is found, or the only terminators sit inside
// the overlap region of the current window, the original boundary stands.
// Each
// window after the first starts overlap runes before the previous end, so
// adjacent chunks share context across the seam.
func (s *Splitter) Split(docID model.DocumentID, text string) []model.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	if n <= s.size {
		return []model.Chunk{{
			DocumentID: docID,
			Index:      0,
			Text:       text,
			Start:      0,
			End:        n,
		}}
	}

	scan := sentenceScanWindow
	if scan > s.size {
		scan = s.size
	}

	var chunks []model.Chunk
	start := 0
	for start < n {
		end := start + s.size
		if end >= n {
			end = n
		} else {
			// Never cut at or before start+overlap: the next window
			// starts at end-overlap, and a cut inside the overlap
			// region would move it backward.
			limit := end - scan
			if floor := start + s.overlap; limit < floor {
				limit = floor
			}
			for i := end; i > limit; i-- {
				if isTerminator(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		chunks = append(chunks, model.Chunk{
			DocumentID: docID,
			Index:      len(chunks),
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
		})

		if end >= n {
			break
		}
		start = end - s.overlap
	}

	return chunks
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '\n':
		return true
	}
	return false
}
