package scanner

import "github.com/lemonberrylabs/kitty/pkg/token"

// commentFilter hides Comment lexemes from its consumer.
type commentFilter struct {
	src TokenSource
}

// SkipComments wraps src so that Comment lexemes are never returned. The
// parser is fed through this adapter; tooling that needs comments reads the
// scanner directly.
func SkipComments(src TokenSource) TokenSource {
	return &commentFilter{src: src}
}

func (f *commentFilter) Peek() (token.Lexeme, bool) {
	for {
		lex, ok := f.src.Peek()
		if !ok || lex.Kind != token.Comment {
			return lex, ok
		}
		f.src.Next()
	}
}

func (f *commentFilter) Next() (token.Lexeme, bool) {
	if _, ok := f.Peek(); !ok {
		return token.Lexeme{}, false
	}
	return f.src.Next()
}
