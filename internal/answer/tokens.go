package answer

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens in text for usage accounting.
type TokenCounter interface {
	Count(text string) int
}

// tiktokenCounter counts tokens with the model's BPE encoding.
type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// heuristicCounter approximates tokens as one per four characters. Used
// when no encoding is available for the model.
type heuristicCounter struct{}

func (heuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

func (c *tiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// NewTokenCounter returns a counter for the given model. It falls back to
// the cl100k_base encoding for unknown models, and to a character
// heuristic if no encoding data can be loaded at all.
func NewTokenCounter(model string) TokenCounter {
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		return &tiktokenCounter{encoding: enc}
	}
	if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
		return &tiktokenCounter{encoding: enc}
	}
	return heuristicCounter{}
}
