package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitText splits text into chunks of at most maxSize characters,
// packing greedily at paragraph boundaries. Text that already fits is
// returned as a single chunk, untouched. When a buffer overflows it is
// flushed and the next buffer is seeded with the last overlap
// characters of the flushed chunk, trimmed forward past the most
// recent ". " if one occurs inside the tail. A paragraph that cannot
// fit even into a freshly seeded buffer is packed sentence by sentence
// under the same overflow rule; a single sentence longer than maxSize
// is emitted oversized rather than split mid-word. Lengths are
// measured in runes.
func SplitText(text string, maxSize, overlap int) []string {
	if utf8.RuneCountInString(text) <= maxSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	current := ""

	for _, para := range strings.Split(text, "\n\n") {
		candidate := join(current, "\n\n", para)
		if utf8.RuneCountInString(candidate) <= maxSize {
			current = candidate
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
			current = overlapTail(current, overlap)
			candidate = join(current, "\n\n", para)
			if utf8.RuneCountInString(candidate) <= maxSize {
				current = candidate
				continue
			}
		}

		// Paragraph alone exceeds the budget: descend to sentences,
		// packing into the seeded (or empty) buffer.
		for _, sent := range splitSentences(para) {
			candidate = join(current, " ", sent)
			if utf8.RuneCountInString(candidate) <= maxSize {
				current = candidate
				continue
			}
			if current != "" {
				chunks = append(chunks, current)
				current = overlapTail(current, overlap)
				candidate = join(current, " ", sent)
				if utf8.RuneCountInString(candidate) <= maxSize {
					current = candidate
					continue
				}
			}
			// A lone sentence over the budget carries forward as-is.
			current = candidate
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func join(current, sep, next string) string {
	if current == "" {
		return next
	}
	return strings.TrimSpace(current + sep + next)
}

// overlapTail returns the seed for the buffer following a flushed
// chunk: its last overlap runes, trimmed to start after the last ". "
// inside the tail when one exists past the tail's first character.
// Chunks no longer than the overlap produce no seed. When the tail has
// no sentence boundary the raw tail is kept, even mid-word.
func overlapTail(chunk string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	runes := []rune(chunk)
	if len(runes) <= overlap {
		return ""
	}
	tail := string(runes[len(runes)-overlap:])
	if idx := strings.LastIndex(tail, ". "); idx > 0 {
		tail = tail[idx+2:]
	}
	return tail
}

// splitSentences splits text after runs of '.', '!' or '?' followed by
// whitespace. The separating whitespace is consumed. Text without
// sentence punctuation comes back whole.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	i := 0
	for i < len(runes) {
		if unicode.IsSpace(runes[i]) && i > 0 && isSentenceEnd(runes[i-1]) {
			out = append(out, string(runes[start:i]))
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			start = i
			continue
		}
		i++
	}
	out = append(out, string(runes[start:]))
	return out
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
