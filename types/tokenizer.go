package types

import "unicode"

// Tokenizer defines the interface for token counting over conversation
// content. The engine only needs rough counts for history budgeting, so
// implementations do not return errors.
type Tokenizer interface {
	// CountTokens counts tokens in a text string.
	CountTokens(text string) int
	// CountMessageTokens counts tokens in a single message.
	CountMessageTokens(msg Message) int
	// CountMessagesTokens counts total tokens in a message slice.
	CountMessagesTokens(msgs []Message) int
}

// EstimateTokenizer provides a simple character-based token estimation.
// CJK characters count as one token each; other text is estimated at four
// characters per token. Use history.NewTiktokenCounter for exact counts.
type EstimateTokenizer struct {
	charsPerToken float64
	msgOverhead   int
}

// NewEstimateTokenizer creates a new EstimateTokenizer.
func NewEstimateTokenizer() *EstimateTokenizer {
	return &EstimateTokenizer{
		charsPerToken: 4.0,
		msgOverhead:   4,
	}
}

// CountTokens counts tokens in text.
func (t *EstimateTokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	var cjkCount, otherCount int
	for _, r := range text {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjkCount++
		} else {
			otherCount++
		}
	}
	tokens := cjkCount + int(float64(otherCount)/t.charsPerToken)
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

// CountMessageTokens counts tokens in a single message including the
// per-message envelope overhead.
func (t *EstimateTokenizer) CountMessageTokens(msg Message) int {
	return t.CountTokens(msg.Content) + t.CountTokens(msg.Name) + t.msgOverhead
}

// CountMessagesTokens counts total tokens in a message slice.
func (t *EstimateTokenizer) CountMessagesTokens(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += t.CountMessageTokens(m)
	}
	return total
}
