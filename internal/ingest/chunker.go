package ingest

import (
	"strings"
	"unicode"
)

// splitSentences breaks text into sentences on terminal punctuation
// followed by whitespace. Whitespace runs inside a sentence collapse to
// single spaces.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	terminal := false

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsSpace(r) {
			if terminal {
				flush()
				terminal = false
				continue
			}
			if current.Len() > 0 {
				current.WriteRune(' ')
			}
			continue
		}
		current.WriteRune(r)
		terminal = r == '.' || r == '?' || r == '!'
	}
	flush()

	return sentences
}

// splitText builds chunks of at most chunkSize characters from whole
// sentences, starting each new chunk roughly overlap characters before
// the end of the previous one. A sentence longer than chunkSize becomes
// a chunk of its own rather than being split mid-sentence.
func splitText(text string, chunkSize, overlap int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		size := 0
		j := i
		for j < len(sentences) {
			add := len(sentences[j])
			if size > 0 {
				add++ // joining space
			}
			if size+add > chunkSize && size > 0 {
				break
			}
			size += add
			j++
		}

		chunks = append(chunks, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		// Walk back whole sentences until the overlap budget is spent.
		next := j
		carried := 0
		for next > i+1 && carried+len(sentences[next-1]) <= overlap {
			carried += len(sentences[next-1]) + 1
			next--
		}
		i = next
	}

	return chunks
}
