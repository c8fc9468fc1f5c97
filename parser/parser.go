package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/scanner"
)

const (
	_EOF = 0
	// negative values so they cannot collide with single-rune tokens
	_EOL = -(iota + 100)
	_IDENT
	_LITERAL
)

type lexToken struct {
	tok  int
	text string
	pos  scanner.Position
}

func (t lexToken) describe() string {
	switch t.tok {
	case _EOF:
		return "end-of-input"
	case _EOL:
		return "end-of-line"
	case _IDENT:
		return fmt.Sprintf("identifier %q", t.text)
	case _LITERAL:
		return fmt.Sprintf("literal %s", t.text)
	default:
		return fmt.Sprintf("%q", rune(t.tok))
	}
}

type annoLex struct {
	src string
	err error

	peeked *lexToken

	s scanner.Scanner
}

func newLexer(filename string, src string) *annoLex {
	l := annoLex{src: src}
	l.s.Init(strings.NewReader(src))
	l.s.Filename = filename
	l.s.Mode = l.s.Mode &^ (scanner.ScanComments | scanner.SkipComments)
	l.s.Whitespace = 0
	l.s.Error = func(s *scanner.Scanner, msg string) {
		l.err = errors.New(msg)
	}
	return &l
}

func (l *annoLex) peek() lexToken {
	if l.peeked == nil {
		t := l.lex()
		l.peeked = &t
	}
	return *l.peeked
}

func (l *annoLex) next() lexToken {
	t := l.peek()
	l.peeked = nil
	return t
}

func (l *annoLex) lex() lexToken {
	for {
		r := l.s.Scan()
		// we handle whitespace ourselves so newlines can be reported
		if r == ' ' || r == '\t' || r == '\r' {
			continue
		}
		t := lexToken{tok: int(r), text: l.s.TokenText(), pos: l.s.Position}
		switch r {
		case scanner.EOF:
			t.tok = _EOF
			t.pos = l.s.Pos()
		case '\n':
			t.tok = _EOL
		case scanner.Ident:
			t.tok = _IDENT
		case scanner.Int, scanner.Float, scanner.Char, scanner.String, scanner.RawString:
			t.tok = _LITERAL
		}
		return t
	}
}

type ParseError struct {
	err error
	pos scanner.Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.pos.Line, e.pos.Column, e.err)
}

func (e *ParseError) Underlying() error {
	return e.err
}

func (e *ParseError) Pos() scanner.Position {
	return e.pos
}

// ParseAnnotations parses the annotations in the given text. The text must
// consist of annotations, each one starting with '@'. Several annotations may
// share a line. Arguments, in parentheses or braces, may span multiple lines.
func ParseAnnotations(filename string, r io.Reader) ([]Annotation, *ParseError) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{err: err, pos: scanner.Position{Filename: filename}}
	}
	l := newLexer(filename, string(data))
	var res []Annotation
	for {
		t := l.next()
		if l.err != nil {
			return nil, &ParseError{err: l.err, pos: t.pos}
		}
		switch t.tok {
		case _EOF:
			return res, nil
		case _EOL:
			continue
		case '@':
			a, err := l.parseAnnotation(t.pos)
			if err != nil {
				return nil, err
			}
			res = append(res, a)
			if nt := l.peek(); nt.tok != _EOL && nt.tok != _EOF && nt.tok != '@' {
				return nil, &ParseError{err: fmt.Errorf("syntax error: unexpected %s after %s, expecting end-of-line", nt.describe(), a), pos: nt.pos}
			}
		default:
			return nil, &ParseError{err: fmt.Errorf("syntax error: unexpected %s, expecting '@'", t.describe()), pos: t.pos}
		}
	}
}

func (l *annoLex) parseAnnotation(pos scanner.Position) (Annotation, *ParseError) {
	a := Annotation{Pos: pos}
	t := l.next()
	if t.tok != _IDENT {
		return a, &ParseError{err: fmt.Errorf("syntax error: unexpected %s, expecting annotation name", t.describe()), pos: t.pos}
	}
	parts := []string{t.text}
	a.Type.Pos = t.pos
	for l.peek().tok == '.' {
		l.next()
		t = l.next()
		if t.tok != _IDENT {
			return a, &ParseError{err: fmt.Errorf("syntax error: unexpected %s, expecting identifier after '.'", t.describe()), pos: t.pos}
		}
		parts = append(parts, t.text)
	}
	a.Type.Name = parts[len(parts)-1]
	a.Type.PackageAlias = strings.Join(parts[:len(parts)-1], ".")

	if open := l.peek(); open.tok == '(' || open.tok == '{' {
		l.next()
		end, err := l.skipBalanced(open)
		if err != nil {
			return a, err
		}
		a.HasArgs = true
		a.Args = strings.TrimSpace(l.src[open.pos.Offset+1 : end.Offset])
	}
	return a, nil
}

var closers = map[int]int{'(': ')', '{': '}', '[': ']'}

// skipBalanced consumes tokens up to and including the one that closes the
// given opening bracket. It returns the position of the closing bracket.
func (l *annoLex) skipBalanced(open lexToken) (scanner.Position, *ParseError) {
	stack := []int{closers[open.tok]}
	for {
		t := l.next()
		if l.err != nil {
			return t.pos, &ParseError{err: l.err, pos: t.pos}
		}
		switch t.tok {
		case _EOF:
			return t.pos, &ParseError{err: fmt.Errorf("syntax error: unexpected end-of-input, expecting %q", rune(stack[len(stack)-1])), pos: t.pos}
		case '(', '{', '[':
			stack = append(stack, closers[t.tok])
		case ')', '}', ']':
			if want := stack[len(stack)-1]; t.tok != want {
				return t.pos, &ParseError{err: fmt.Errorf("syntax error: unexpected %s, expecting %q", t.describe(), rune(want)), pos: t.pos}
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return t.pos, nil
			}
		}
	}
}
