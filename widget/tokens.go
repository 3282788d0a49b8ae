package widget

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// NewTokenCounter returns a counter over the given tiktoken encoding. The
// encoding is loaded on first use.
func NewTokenCounter(encoding string) TokenCounter {
	var (
		once sync.Once
		enc  *tiktoken.Tiktoken
		err  error
	)
	return func(text string) (int, error) {
		once.Do(func() {
			enc, err = tiktoken.GetEncoding(encoding)
		})
		if err != nil {
			return 0, err
		}
		return len(enc.Encode(text, nil, nil)), nil
	}
}
