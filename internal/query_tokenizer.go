package internal

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// queryTokenKind classifies a span of query text.
type queryTokenKind int

const (
	tokenSpace       queryTokenKind = iota // whitespace run
	tokenComment                           // -- line or /* block */ comment
	tokenIdent                             // bare identifier or keyword
	tokenQuotedIdent                       // "quoted" or `quoted` identifier
	tokenString                            // 'literal', E'..' body or $tag$ body $tag$
	tokenNumber                            // 42, 3.14, 1e10
	tokenPlaceholder                       // $1 or ?
	tokenPunct                             // any other single rune
)

// queryToken is a span of the original query text. Concatenating the Text of
// every token reproduces the input exactly.
type queryToken struct {
	Kind queryTokenKind
	Text string
}

// identName returns the identifier the token names, unquoting quoted
// identifiers. ok is false for tokens that are not identifiers.
func (t queryToken) identName() (name string, ok bool) {
	switch t.Kind {
	case tokenIdent:
		return t.Text, true
	case tokenQuotedIdent:
		if len(t.Text) < 2 {
			return "", false
		}
		quote := t.Text[:1]
		body := t.Text[1:]
		if strings.HasSuffix(body, quote) {
			body = body[:len(body)-1]
		}
		return strings.ReplaceAll(body, quote+quote, quote), true
	default:
		return "", false
	}
}

// renamed returns a copy of an identifier token naming name instead,
// keeping the original quoting style.
func (t queryToken) renamed(name string) queryToken {
	if t.Kind != tokenQuotedIdent {
		return queryToken{Kind: t.Kind, Text: name}
	}
	quote := t.Text[:1]
	return queryToken{
		Kind: tokenQuotedIdent,
		Text: quote + strings.ReplaceAll(name, quote, quote+quote) + quote,
	}
}

// queryLexer splits query text into spans without discarding anything.
type queryLexer struct {
	input string
	pos   int // start of the current rune
	width int // byte width of the current rune
	ch    rune
}

func newQueryLexer(input string) *queryLexer {
	l := &queryLexer{input: input}
	l.decode()
	return l
}

// decode loads the rune at pos.
func (l *queryLexer) decode() {
	if l.pos >= len(l.input) {
		l.ch, l.width = 0, 0
		return
	}
	l.ch, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
}

// advance moves past the current rune.
func (l *queryLexer) advance() {
	l.pos += l.width
	l.decode()
}

// peek returns the rune after the current one without advancing.
func (l *queryLexer) peek() rune {
	next := l.pos + l.width
	if next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[next:])
	return r
}

func (l *queryLexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// tokenizeQuery splits query into tokens.
func tokenizeQuery(query string) []queryToken {
	l := newQueryLexer(query)
	tokens := make([]queryToken, 0, len(query)/3+1)
	for !l.atEOF() {
		tokens = append(tokens, l.next())
	}
	return tokens
}

// joinQueryTokens is the inverse of tokenizeQuery.
func joinQueryTokens(tokens []queryToken) string {
	var builder strings.Builder
	for _, tok := range tokens {
		builder.WriteString(tok.Text)
	}
	return builder.String()
}

func (l *queryLexer) next() queryToken {
	start := l.pos

	switch {
	case unicode.IsSpace(l.ch):
		for !l.atEOF() && unicode.IsSpace(l.ch) {
			l.advance()
		}
		return l.emit(tokenSpace, start)
	case l.ch == '-' && l.peek() == '-':
		for !l.atEOF() && l.ch != '\n' {
			l.advance()
		}
		return l.emit(tokenComment, start)
	case l.ch == '/' && l.peek() == '*':
		l.advance()
		l.advance()
		for !l.atEOF() {
			if l.ch == '*' && l.peek() == '/' {
				l.advance()
				l.advance()
				break
			}
			l.advance()
		}
		return l.emit(tokenComment, start)
	case l.ch == '\'':
		l.readQuoted('\'', false)
		return l.emit(tokenString, start)
	case l.ch == '"' || l.ch == '`':
		l.readQuoted(l.ch, false)
		return l.emit(tokenQuotedIdent, start)
	case l.ch == '$':
		return l.readDollar(start)
	case l.ch == '?':
		l.advance()
		return l.emit(tokenPlaceholder, start)
	case isIdentStart(l.ch):
		for !l.atEOF() && isIdentPart(l.ch) {
			l.advance()
		}
		if l.ch == '\'' && (l.input[start:l.pos] == "E" || l.input[start:l.pos] == "e") {
			// E'...' escape string
			l.readQuoted('\'', true)
			return l.emit(tokenString, start)
		}
		return l.emit(tokenIdent, start)
	case isDigit(l.ch):
		l.readNumber()
		return l.emit(tokenNumber, start)
	}

	l.advance()
	return l.emit(tokenPunct, start)
}

func (l *queryLexer) emit(kind queryTokenKind, start int) queryToken {
	return queryToken{Kind: kind, Text: l.input[start:l.pos]}
}

// readQuoted consumes a quoted span, treating a doubled quote as an escaped
// quote. Backslash escapes are honoured only when backslashEscapes is set,
// and a backslash always takes the next rune with it. An unterminated span
// runs to the end of input.
func (l *queryLexer) readQuoted(quote rune, backslashEscapes bool) {
	l.advance() // opening quote
	for !l.atEOF() {
		if backslashEscapes && l.ch == '\\' {
			l.advance()
			if !l.atEOF() {
				l.advance()
			}
			continue
		}
		if l.ch == quote {
			if l.peek() == quote {
				l.advance()
				l.advance()
				continue
			}
			l.advance() // closing quote
			return
		}
		l.advance()
	}
}

// readDollar handles $1 placeholders and $tag$ ... $tag$ string bodies.
// A lone $ is punctuation.
func (l *queryLexer) readDollar(start int) queryToken {
	l.advance() // $
	if isDigit(l.ch) {
		for !l.atEOF() && isDigit(l.ch) {
			l.advance()
		}
		return l.emit(tokenPlaceholder, start)
	}

	tagStart := l.pos
	for !l.atEOF() && (isIdentStart(l.ch) || isDigit(l.ch)) {
		l.advance()
	}
	if l.ch != '$' {
		// not a dollar-quote opener; rewind to just after the $
		l.pos = tagStart
		l.decode()
		return l.emit(tokenPunct, start)
	}
	l.advance() // closing $ of the opening tag
	delimiter := l.input[start:l.pos]
	if end := strings.Index(l.input[l.pos:], delimiter); end >= 0 {
		l.pos += end + len(delimiter)
	} else {
		l.pos = len(l.input)
	}
	l.decode()
	return l.emit(tokenString, start)
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *queryLexer) readNumber() {
	for isDigit(l.ch) {
		l.advance()
	}
	if l.ch == '.' && isDigit(l.peek()) {
		l.advance()
		for isDigit(l.ch) {
			l.advance()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peek()) || l.peek() == '+' || l.peek() == '-') {
		l.advance()
		if l.ch == '+' || l.ch == '-' {
			l.advance()
		}
		for isDigit(l.ch) {
			l.advance()
		}
	}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
