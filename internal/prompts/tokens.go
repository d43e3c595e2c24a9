package prompts

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// CountTokens returns a token count using the cl100k_base encoding, falling
// back to a character heuristic when tiktoken is unavailable (e.g. the
// encoding file cannot be loaded in an offline environment).
func CountTokens(text string) int {
	encodingOnce.Do(func() {
		if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			encoding = enc
		}
	})
	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}
	// ~4 characters per token is close enough for budgeting.
	return utf8.RuneCountInString(text)/4 + 1
}
