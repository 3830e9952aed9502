/*
Copyright (C) 2026  Carl-Philip Hänsch

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

// Package parser turns SLisp source text into internal/ast.Node values.
// The tokenizer is a small numbered state machine in the style of
// scm.tokenize: whitespace/number/symbol/string/escape/comment states,
// rather than a table-driven lexer generator.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/launix-de/slisp/internal/ast"
)

// ParseError reports a lexical or structural failure with 1-based line and
// column so a driver can point at the offending source span.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

type token struct {
	text   string
	kind   tokenKind
	line   int
	column int
}

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
	tokHashBrace // #{
	tokString
	tokAtom // number, symbol or keyword; distinguished when read
)

const (
	stExpecting = iota
	stNumber
	stSymbol
	stString
	stStringEscape
	stLineComment
)

var stringEscapes = strings.NewReplacer(
	`\n`, "\n",
	`\t`, "\t",
	`\"`, "\"",
	`\\`, "\\",
)

// tokenize splits source into tokens, tracking line/column for error
// reporting. Mirrors scm.tokenize's numbered-state loop, generalized to
// SLisp's extra delimiters ([ ] { } #{) and ';' line comments.
func tokenize(source string) ([]token, error) {
	var tokens []token
	state := stExpecting
	line, col := 1, 1
	var buf strings.Builder
	var startLine, startCol int

	advance := func(ch rune) {
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	flushAtom := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, token{text: buf.String(), kind: tokAtom, line: startLine, column: startCol})
			buf.Reset()
		}
		state = stExpecting
	}

	runes := []rune(source)
	i := 0
	for i < len(runes) {
		ch := runes[i]
		switch state {
		case stExpecting:
			switch {
			case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == ',':
				advance(ch)
				i++
			case ch == ';':
				state = stLineComment
				advance(ch)
				i++
			case ch == '(':
				tokens = append(tokens, token{text: "(", kind: tokLParen, line: line, column: col})
				advance(ch)
				i++
			case ch == ')':
				tokens = append(tokens, token{text: ")", kind: tokRParen, line: line, column: col})
				advance(ch)
				i++
			case ch == '[':
				tokens = append(tokens, token{text: "[", kind: tokLBracket, line: line, column: col})
				advance(ch)
				i++
			case ch == ']':
				tokens = append(tokens, token{text: "]", kind: tokRBracket, line: line, column: col})
				advance(ch)
				i++
			case ch == '#' && i+1 < len(runes) && runes[i+1] == '{':
				tokens = append(tokens, token{text: "#{", kind: tokHashBrace, line: line, column: col})
				advance(ch)
				i++
				advance(runes[i])
				i++
			case ch == '{':
				tokens = append(tokens, token{text: "{", kind: tokLBrace, line: line, column: col})
				advance(ch)
				i++
			case ch == '}':
				tokens = append(tokens, token{text: "}", kind: tokRBrace, line: line, column: col})
				advance(ch)
				i++
			case ch == '"':
				startLine, startCol = line, col
				state = stString
				advance(ch)
				i++
			case ch >= '0' && ch <= '9':
				startLine, startCol = line, col
				state = stNumber
				buf.WriteRune(ch)
				advance(ch)
				i++
			case ch == '-' && i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9':
				startLine, startCol = line, col
				state = stNumber
				buf.WriteRune(ch)
				advance(ch)
				i++
			default:
				startLine, startCol = line, col
				state = stSymbol
				buf.WriteRune(ch)
				advance(ch)
				i++
			}
		case stNumber, stSymbol:
			if isDelimiter(ch) {
				flushAtom()
			} else {
				buf.WriteRune(ch)
				advance(ch)
				i++
			}
		case stString:
			switch ch {
			case '\\':
				state = stStringEscape
				buf.WriteRune(ch)
				advance(ch)
				i++
			case '"':
				text := stringEscapes.Replace(buf.String())
				tokens = append(tokens, token{text: text, kind: tokString, line: startLine, column: startCol})
				buf.Reset()
				state = stExpecting
				advance(ch)
				i++
			default:
				buf.WriteRune(ch)
				advance(ch)
				i++
			}
		case stStringEscape:
			buf.WriteRune(ch)
			state = stString
			advance(ch)
			i++
		case stLineComment:
			if ch == '\n' {
				state = stExpecting
			}
			advance(ch)
			i++
		}
	}

	switch state {
	case stString, stStringEscape:
		return nil, &ParseError{Line: startLine, Column: startCol, Message: "unterminated string literal"}
	case stNumber, stSymbol:
		flushAtom()
	}

	return tokens, nil
}

func isDelimiter(ch rune) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', ',', '(', ')', '[', ']', '{', '}', '"', ';':
		return true
	}
	return false
}

// ParseProgram parses every top-level form in source. When reading form k
// fails it returns the forms successfully parsed before it (0..k-1)
// together with the error. A lexical error (an unterminated string) is
// found before any form is read, so it returns no forms at all.
func ParseProgram(source string) ([]ast.Node, error) {
	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}
	var forms []ast.Node
	pos := 0
	for pos < len(tokens) {
		n, next, err := readForm(tokens, pos)
		if err != nil {
			return forms, err
		}
		forms = append(forms, n)
		pos = next
	}
	return forms, nil
}

// ParseOne parses exactly one top-level form, for the --eval REPL.
func ParseOne(source string) (ast.Node, error) {
	tokens, err := tokenize(source)
	if err != nil {
		return ast.Node{}, err
	}
	if len(tokens) == 0 {
		return ast.Node{}, &ParseError{Line: 1, Column: 1, Message: "empty input where a form is required"}
	}
	n, _, err := readForm(tokens, 0)
	return n, err
}

func readForm(tokens []token, pos int) (ast.Node, int, error) {
	if pos >= len(tokens) {
		return ast.Node{}, pos, &ParseError{Line: 0, Column: 0, Message: "empty input where a form is required"}
	}
	t := tokens[pos]
	switch t.kind {
	case tokLParen:
		return readSeq(tokens, pos+1, tokRParen, ast.KindList, "(")
	case tokLBracket:
		return readSeq(tokens, pos+1, tokRBracket, ast.KindVector, "[")
	case tokRParen, tokRBracket, tokRBrace:
		return ast.Node{}, pos, &ParseError{Line: t.line, Column: t.column, Message: "mismatched delimiter: unexpected " + t.text}
	case tokLBrace:
		// { ... } lowers to (hash-map ...)
		n, next, err := readSeq(tokens, pos+1, tokRBrace, ast.KindList, "{")
		if err != nil {
			return n, next, err
		}
		n.Children = append([]ast.Node{ast.NewSymbol("hash-map")}, n.Children...)
		return n, next, nil
	case tokHashBrace:
		n, next, err := readSeq(tokens, pos+1, tokRBrace, ast.KindList, "#{")
		if err != nil {
			return n, next, err
		}
		n.Children = append([]ast.Node{ast.NewSymbol("hash-set")}, n.Children...)
		return n, next, nil
	case tokString:
		return ast.NewStringNode(t.text), pos + 1, nil
	case tokAtom:
		return readAtom(t), pos + 1, nil
	}
	return ast.Node{}, pos, &ParseError{Line: t.line, Column: t.column, Message: "unrecognized token"}
}

func readSeq(tokens []token, pos int, closing tokenKind, kind ast.NodeKind, opener string) (ast.Node, int, error) {
	var children []ast.Node
	open := tokens[pos-1]
	for {
		if pos >= len(tokens) {
			return ast.Node{}, pos, &ParseError{Line: open.line, Column: open.column, Message: "unterminated form starting with " + opener}
		}
		if tokens[pos].kind == closing {
			n := ast.Node{Kind: kind, Children: children}
			return n, pos + 1, nil
		}
		n, next, err := readForm(tokens, pos)
		if err != nil {
			return ast.Node{}, pos, err
		}
		children = append(children, n)
		pos = next
	}
}

// readAtom classifies a bare atom token as a number, keyword, or symbol.
// Keywords (":foo") are represented as Symbol nodes whose text retains the
// leading colon, since Node's closed variant set has no dedicated
// Keyword case; the compiler and evaluator recognize the prefix.
func readAtom(t token) ast.Node {
	if n, err := strconv.ParseInt(t.text, 10, 64); err == nil {
		return ast.NewNumber(n)
	}
	return ast.NewSymbol(t.text)
}
