package embedding

import "strings"

// CLIP text encoder special token IDs (openai/clip-vit-base-patch32 vocab).
const (
	clipStartToken = 49406
	clipEndToken   = 49407
	clipVocabSize  = 49408
)

// Tokenizer produces padded token IDs and an attention mask for a CLIP-style
// text encoder.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64)
}

// SimpleTokenizer is a word-split tokenizer with hash-derived token IDs.
// It is not the real CLIP BPE vocabulary, but it is deterministic and maps
// equal words to equal IDs, which is enough for models exported with a
// matching preprocessing step and for tests.
type SimpleTokenizer struct{}

// Tokenize lowercases and splits text into words, mapping each word to a
// stable token ID, wrapped in start/end tokens and padded to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask []int64) {
	if maxTokens <= 0 {
		maxTokens = 77
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)

	inputIDs[0] = clipStartToken
	attentionMask[0] = 1

	pos := 1
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if pos >= maxTokens-1 {
			break
		}
		// Avoid colliding with the special token IDs at the top of the vocab.
		inputIDs[pos] = int64(hashString(word)%(clipVocabSize-1000)) + 500
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = clipEndToken
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask
}
