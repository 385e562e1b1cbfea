package history

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/BaSui01/agentrelay/types"
)

// TiktokenCounter counts tokens with a real BPE encoding, for exact history
// budgeting. Prefer types.NewEstimateTokenizer when approximate counts are
// acceptable or the encoding data cannot be fetched.
type TiktokenCounter struct {
	enc         *tiktoken.Tiktoken
	msgOverhead int
}

// NewTiktokenCounter creates a counter for the given encoding name.
// An empty name selects cl100k_base.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc, msgOverhead: 4}, nil
}

// CountTokens counts tokens in text.
func (c *TiktokenCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// CountMessageTokens counts tokens in a single message including the
// per-message envelope overhead.
func (c *TiktokenCounter) CountMessageTokens(msg types.Message) int {
	return c.CountTokens(msg.Content) + c.CountTokens(msg.Name) + c.msgOverhead
}

// CountMessagesTokens counts total tokens in a message slice.
func (c *TiktokenCounter) CountMessagesTokens(msgs []types.Message) int {
	total := 0
	for _, m := range msgs {
		total += c.CountMessageTokens(m)
	}
	return total
}

var _ types.Tokenizer = (*TiktokenCounter)(nil)
