package router

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// countTokens estimates the prompt token count for debug logging and
// metrics. Initialization may fail offline (the encoding is fetched on
// first use); the char/4 fallback keeps the estimate usable.
func countTokens(model, text string) int {
	encOnce.Do(func() {
		name := "cl100k_base"
		if strings.HasPrefix(model, "gpt-4o") {
			name = "o200k_base"
		}
		e, err := tiktoken.GetEncoding(name)
		if err != nil {
			return
		}
		enc = e
	})
	if enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
