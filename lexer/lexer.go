/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package lexer turns C++ source text into a finite token stream. It never
// fails: characters it does not recognize become Unknown tokens.
package lexer

import (
	"iter"
	"strings"
	"unicode/utf8"

	"naive.systems/cxxlint/source"
)

// Lexer yields tokens lazily. A Lexer is not safe for concurrent use; create
// one per goroutine.
type Lexer struct {
	src       string
	pos       int
	line      int
	column    int
	lineStart bool // only whitespace seen since the last newline
	done      bool
}

func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, column: 1, lineStart: true}
}

// Tokenize lexes the whole input. The result always ends with an EOF token.
func Tokenize(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

// All returns a restartable sequence of the tokens of src, EOF excluded.
func All(src string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		l := New(src)
		for {
			tok := l.Next()
			if tok.Kind == EOF || !yield(tok) {
				return
			}
		}
	}
}

// Next returns the next token. Once the input is exhausted it keeps returning
// EOF.
func (l *Lexer) Next() Token {
	l.skipSpace()
	if l.pos >= len(l.src) {
		l.done = true
		p := l.here()
		return Token{Kind: EOF, Pos: p, End: p, Offset: l.pos, EndOffset: l.pos}
	}
	start := l.pos
	startPos := l.here()
	atLineStart := l.lineStart
	l.lineStart = false
	kind := l.scan(atLineStart)
	return Token{
		Kind:      kind,
		Text:      l.src[start:l.pos],
		Pos:       startPos,
		End:       l.here(),
		Offset:    start,
		EndOffset: l.pos,
	}
}

func (l *Lexer) here() source.Pos {
	return source.Pos{Line: l.line, Column: l.column}
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}
	return 0
}

// advance moves past one rune.
func (l *Lexer) advance() {
	if l.pos >= len(l.src) {
		return
	}
	if l.src[l.pos] == '\n' {
		l.line++
		l.column = 1
		l.lineStart = true
		l.pos++
		return
	}
	_, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	l.column++
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n', '\f', '\v':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) scan(atLineStart bool) Kind {
	ch := l.src[l.pos]
	switch {
	case ch == '/' && l.peekAt(1) == '/':
		l.skipLine()
		return Comment
	case ch == '/' && l.peekAt(1) == '*':
		l.advanceN(2)
		for l.pos < len(l.src) {
			if l.src[l.pos] == '*' && l.peekAt(1) == '/' {
				l.advanceN(2)
				return Comment
			}
			l.advance()
		}
		// unterminated block comment runs to EOF
		return Comment
	case ch == '#' && atLineStart:
		l.skipDirective()
		return Directive
	case ch == '"' || ch == '\'':
		return l.scanQuoted(ch)
	case isIdentStart(ch):
		return l.scanWord()
	case isDigit(ch) || (ch == '.' && isDigit(l.peekAt(1))):
		l.scanNumber()
		return Number
	case strings.IndexByte(punctuators, ch) >= 0:
		l.advance()
		return Punct
	}
	for _, op := range operators {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.advanceN(len(op))
			return Operator
		}
	}
	// one Unknown token per rune, including non-ASCII text outside literals
	l.advance()
	return Unknown
}

func (l *Lexer) skipLine() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.advance()
	}
}

func (l *Lexer) skipDirective() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		// Handle line continuation
		if l.src[l.pos] == '\\' && (l.peekAt(1) == '\n' || (l.peekAt(1) == '\r' && l.peekAt(2) == '\n')) {
			l.advance()
			if l.src[l.pos] == '\r' {
				l.advance()
			}
			l.advance()
			continue
		}
		if l.src[l.pos] == '/' && l.peekAt(1) == '/' {
			// a trailing comment belongs to its own token
			return
		}
		l.advance()
	}
}

// scanQuoted reads a string or character literal. An unterminated literal
// becomes an Unknown token that runs to the end of the line.
func (l *Lexer) scanQuoted(quote byte) Kind {
	l.advance()
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.advance()
			if l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		case '\n':
			return Unknown
		case quote:
			l.advance()
			if quote == '"' {
				return String
			}
			return Char
		default:
			l.advance()
		}
	}
	return Unknown
}

// scanRaw reads the rest of a raw string literal, starting at the opening
// quote: R"delim( ... )delim".
func (l *Lexer) scanRaw() Kind {
	l.advance()
	open := strings.IndexByte(l.src[l.pos:], '(')
	if open < 0 || strings.ContainsAny(l.src[l.pos:l.pos+open], " \\)\n") {
		l.skipLine()
		return Unknown
	}
	closing := ")" + l.src[l.pos:l.pos+open] + "\""
	end := strings.Index(l.src[l.pos+open:], closing)
	if end < 0 {
		for l.pos < len(l.src) {
			l.advance()
		}
		return Unknown
	}
	target := l.pos + open + end + len(closing)
	for l.pos < target {
		l.advance()
	}
	return String
}

func (l *Lexer) scanWord() Kind {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.advance()
	}
	word := l.src[start:l.pos]
	if l.pos < len(l.src) {
		switch next := l.src[l.pos]; {
		case next == '"' && isStringPrefix(word):
			if strings.HasSuffix(word, "R") {
				return l.scanRaw()
			}
			return l.scanQuoted('"')
		case next == '\'' && isCharPrefix(word):
			return l.scanQuoted('\'')
		}
	}
	if keywords[word] {
		return Keyword
	}
	return Ident
}

func (l *Lexer) scanNumber() {
	start := l.pos
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		switch {
		case isIdentPart(ch) || ch == '.':
			l.advance()
			hex := strings.HasPrefix(l.src[start:l.pos], "0x") || strings.HasPrefix(l.src[start:l.pos], "0X")
			exponent := ch == 'p' || ch == 'P' || (!hex && (ch == 'e' || ch == 'E'))
			if exponent && (l.peekAt(0) == '+' || l.peekAt(0) == '-') {
				l.advance()
			}
		case ch == '\'' && isIdentPart(l.peekAt(1)):
			// digit separator
			l.advance()
		default:
			return
		}
	}
}

func isStringPrefix(word string) bool {
	switch word {
	case "L", "u", "U", "u8", "R", "LR", "uR", "UR", "u8R":
		return true
	}
	return false
}

func isCharPrefix(word string) bool {
	switch word {
	case "L", "u", "U", "u8":
		return true
	}
	return false
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
