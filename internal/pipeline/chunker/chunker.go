// Package chunker implements recursive text splitting into overlapping
// fragments, honoring paragraph and sentence boundaries where possible.
package chunker

import (
	"strings"
	"unicode"

	"github.com/turtacn/tender-intel/internal/domain/document"
)

// Config controls chunk sizing. Values are byte lengths of the UTF-8 text
// (equal to character counts for ASCII), not tokens, so windows are
// deterministic independent of any tokenizer.
type Config struct {
	WindowSize int // target window size in bytes, e.g. 1000
	Overlap    int // target overlap in bytes, e.g. 200
}

// DefaultConfig returns the window/overlap targets from the chunking contract.
func DefaultConfig() Config {
	return Config{WindowSize: 1000, Overlap: 200}
}

// Chunker splits normalized document text into ordered, overlapping fragments.
type Chunker struct {
	cfg Config
}

// New constructs a Chunker with the given configuration.
func New(cfg Config) *Chunker {
	if cfg.WindowSize <= 0 {
		cfg = DefaultConfig()
	}
	return &Chunker{cfg: cfg}
}

// Split breaks text into Fragments for docID, each at most 1.25x the target
// window, none empty, with charSpans that overlap by approximately
// cfg.Overlap characters between consecutive fragments.
func (c *Chunker) Split(docID, text string) []document.Fragment {
	if text == "" {
		return nil
	}

	breaks := splitPoints(text)
	var fragments []document.Fragment
	maxLen := int(float64(c.cfg.WindowSize) * 1.25)

	start := 0
	ordinal := 0
	for start < len(text) {
		end := nextWindowEnd(text, breaks, start, c.cfg.WindowSize, maxLen)
		if end <= start {
			end = len(text)
		}
		chunk := text[start:end]
		if strings.TrimSpace(chunk) != "" {
			fragments = append(fragments, document.Fragment{
				FragID:  docID + "#" + itoa(ordinal),
				DocID:   docID,
				Ordinal: ordinal,
				Text:    chunk,
				CharSpan: document.CharSpan{Start: start, End: end},
			})
			ordinal++
		}
		if end >= len(text) {
			break
		}
		next := end - c.cfg.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return fragments
}

// splitPoints collects paragraph-break offsets (just past each blank line).
// Sentence and whitespace fallbacks are searched by nextWindowEnd.
func splitPoints(text string) []int {
	var points []int
	for i, r := range text {
		if r == '\n' && i+1 < len(text) && text[i+1] == '\n' {
			points = append(points, i+2)
		}
	}
	return points
}

// nextWindowEnd finds the best break offset at or beyond start+target,
// preferring a paragraph/sentence/whitespace boundary, falling back to a
// hard cut at start+maxLen.
func nextWindowEnd(text string, breaks []int, start, target, maxLen int) int {
	desired := start + target
	hardCap := start + maxLen
	if hardCap > len(text) {
		hardCap = len(text)
	}
	if desired >= len(text) {
		return len(text)
	}

	best := -1
	for _, b := range breaks {
		if b > start && b <= hardCap && b >= desired {
			if best == -1 || b < best {
				best = b
			}
		}
	}
	if best != -1 {
		return best
	}

	// Sentence boundary search within [desired, hardCap].
	for i := desired; i < hardCap && i < len(text); i++ {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' {
			if i+1 < len(text) && unicode.IsSpace(rune(text[i+1])) {
				return i + 1
			}
		}
	}

	// Whitespace fallback within [desired, hardCap].
	for i := desired; i < hardCap && i < len(text); i++ {
		if unicode.IsSpace(rune(text[i])) {
			return i
		}
	}

	return hardCap
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
