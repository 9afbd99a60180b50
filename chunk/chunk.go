// Package chunk implements the sentence-boundary chunk-and-reduce
// strategy of spec.md §4.G, generalized from the teacher's word-count
// batching (app/services/summary/service.go's splitText/processChunk/
// combineSummaries) to sentence-boundary greedy packing with an explicit
// char budget, and from "combine only if over threshold" to "always
// reduce once with the user's requested length/format".
package chunk

import (
	"context"
	"regexp"
	"strings"

	"github.com/corvidlabs/vidsum/summarizer"
)

var sentenceBoundary = regexp.MustCompile(`([.!?])(\s+)`)

// Split breaks text into sentences and greedy-packs them into chunks
// bounded by [minChars, maxChars]. A new chunk starts when adding the
// next sentence would exceed maxChars and the current chunk already
// meets minChars, per spec.md §4.G.
func Split(text string, minChars, maxChars int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		candidateLen := current.Len()
		if candidateLen > 0 {
			candidateLen++ // joining space
		}
		candidateLen += len(sentence)

		if current.Len() > 0 && candidateLen > maxChars && current.Len() >= minChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// splitSentences divides text on end-of-sentence punctuation followed by
// whitespace, keeping the punctuation attached to the preceding sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	indices := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(indices) == 0 {
		return []string{text}
	}

	var sentences []string
	start := 0
	for _, loc := range indices {
		boundaryEnd := loc[1]
		sentences = append(sentences, strings.TrimSpace(text[start:loc[0]+1]))
		start = boundaryEnd
	}
	if start < len(text) {
		sentences = append(sentences, strings.TrimSpace(text[start:]))
	}

	return sentences
}

// SummarizeFunc performs one summarizer call; bound to a Provider by the
// job driver so this package stays free of provider wiring concerns.
type SummarizeFunc func(ctx context.Context, text, length, format string) (summarizer.Result, error)

// Reduce orchestrates the map/reduce strategy: below threshold, a single
// call at the user's requested length/format; otherwise a per-chunk map
// pass at length=standard,format=paragraph followed by exactly one
// reduce pass at the user's requested length/format, per spec.md §4.G.
// threshold is the single-call-vs-chunk decision point ("if
// len(transcript) <= threshold, a single call is made"); minChars/maxChars
// are the independent packing bounds given to Split once chunking is
// triggered.
func Reduce(ctx context.Context, text string, threshold, minChars, maxChars int, length, format string, summarize SummarizeFunc) (summarizer.Result, error) {
	if len(text) <= threshold {
		return summarize(ctx, text, length, format)
	}

	chunks := Split(text, minChars, maxChars)

	mapped := make([]string, 0, len(chunks))
	for _, c := range chunks {
		result, err := summarize(ctx, c, "standard", "paragraph")
		if err != nil {
			return summarizer.Result{}, err
		}
		mapped = append(mapped, result.Summary)
	}

	combined := strings.Join(mapped, "\n\n")
	return summarize(ctx, combined, length, format)
}
