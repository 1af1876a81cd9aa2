package label

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkLen is the retrieval chunk size bound, in runes.
const DefaultMaxChunkLen = 1000

// sentenceEndRe marks a sentence boundary: terminal punctuation followed by a
// whitespace run. The delimiter stays with the preceding sentence.
var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// SplitText splits raw section text into retrieval-sized chunks of at most
// maxLen runes, preferring sentence boundaries. Sentences are accumulated
// greedily; a sentence is never split, so a single sentence longer than maxLen
// becomes its own oversized chunk. Chunks are trimmed and emitted in source
// order; empty input yields nil.
func SplitText(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLen
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{trimmed}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	for _, sentence := range splitSentences(text) {
		sentenceLen := utf8.RuneCountInString(sentence)
		if currentLen > 0 && currentLen+sentenceLen > maxLen {
			if chunk := strings.TrimSpace(current.String()); chunk != "" {
				chunks = append(chunks, chunk)
			}
			current.Reset()
			currentLen = 0
		}
		current.WriteString(sentence)
		currentLen += sentenceLen
	}
	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitSentences cuts text after every sentence-ending delimiter, keeping the
// delimiter (punctuation plus trailing whitespace) with the sentence before it.
func splitSentences(text string) []string {
	bounds := sentenceEndRe.FindAllStringIndex(text, -1)
	if len(bounds) == 0 {
		return []string{text}
	}
	sentences := make([]string, 0, len(bounds)+1)
	start := 0
	for _, b := range bounds {
		sentences = append(sentences, text[start:b[1]])
		start = b[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}
