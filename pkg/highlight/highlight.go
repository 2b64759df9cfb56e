// Package highlight tokenizes source code for code boxes using chroma.
package highlight

import (
	"image/color"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/style"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// DefaultTheme is the chroma style used when none is configured.
const DefaultTheme = "github"

// Tokenizer implements [text.Tokenizer] over chroma lexers.
type Tokenizer struct {
	theme *chroma.Style
}

// New returns a Tokenizer using the named chroma style. Unknown names fall
// back to chroma's default style.
func New(theme string) *Tokenizer {
	if theme == "" {
		theme = DefaultTheme
	}
	return &Tokenizer{theme: styles.Get(theme)}
}

// Tokenize splits src into spans colored by the theme. Unknown languages are
// rendered as plain text. The concatenated span text always equals src with
// its line endings normalized to "\n".
func (t *Tokenizer) Tokenize(language, src string) ([]text.Span, error) {
	src = text.NormalizeNewlines(src)
	lexer := lexerFor(language, src)
	it, err := chroma.Coalesce(lexer).Tokenise(nil, src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "tokenize %s", language)
	}

	var (
		spans []text.Span
		used  int
	)
	for tok := it(); tok != chroma.EOF; tok = it() {
		v := tok.Value
		if used+len(v) > len(src) {
			v = v[:len(src)-used]
		}
		if v == "" {
			continue
		}
		used += len(v)
		spans = append(spans, text.Span{Text: v, Style: t.partial(tok.Type)})
	}
	if used < len(src) {
		spans = append(spans, text.Span{Text: src[used:]})
	}
	return spans, nil
}

func lexerFor(language, src string) chroma.Lexer {
	var l chroma.Lexer
	if language != "" {
		l = lexers.Get(strings.ToLower(language))
	} else {
		l = lexers.Analyse(src)
	}
	if l == nil {
		l = lexers.Fallback
	}
	return l
}

func (t *Tokenizer) partial(tt chroma.TokenType) style.Partial {
	e := t.theme.Get(tt)
	var p style.Partial
	if e.Colour.IsSet() {
		p.Color = style.RGBA(color.RGBA{R: e.Colour.Red(), G: e.Colour.Green(), B: e.Colour.Blue(), A: 0xff})
	}
	if e.Bold == chroma.Yes {
		p.Bold = style.Bool(true)
	}
	if e.Italic == chroma.Yes {
		p.Italic = style.Bool(true)
	}
	return p
}

// Languages returns the names of all registered lexers.
func Languages() []string {
	return lexers.Names(false)
}
