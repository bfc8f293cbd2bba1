package vocabulary

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/mgpai22/lingo/internal/language"
)

// Reader produces bracketed pronunciations for words the model left without one.
type Reader struct {
	once sync.Once
	tok  *tokenizer.Tokenizer
	err  error
}

func NewReader() *Reader {
	return &Reader{}
}

// Pronounce returns the bracketed reading of word in lang. Japanese words get
// their katakana reading when the tokenizer knows every part; everything else
// is the word itself in brackets.
func (r *Reader) Pronounce(word, lang string) string {
	if language.Equal(lang, language.Japanese) {
		if reading, ok := r.japanese(word); ok {
			return "[" + reading + "]"
		}
	}
	return "[" + word + "]"
}

func (r *Reader) japanese(word string) (string, bool) {
	r.once.Do(func() {
		r.tok, r.err = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
		if r.err != nil {
			r.err = fmt.Errorf("init tokenizer: %w", r.err)
		}
	})
	if r.err != nil {
		return "", false
	}

	var sb strings.Builder
	for _, token := range r.tok.Tokenize(word) {
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}
		if token.Class == tokenizer.DUMMY {
			return "", false
		}
		// IPA features: index 7 is the katakana reading
		features := token.Features()
		if len(features) <= 7 || features[7] == "*" {
			return "", false
		}
		sb.WriteString(features[7])
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}
