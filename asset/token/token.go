// Package token splits the line-oriented OBJ and MTL text formats into
// classified tokens. It knows nothing about directives.
package token

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
	"golang.org/x/text/transform"

	"github.com/mogaika/obj_scene_viewer/config"
)

const (
	TOKEN_NUMBER = iota
	TOKEN_CORNER
	TOKEN_WORD
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	// order matters: on equal match length the earlier pattern wins
	lexer.Add([]byte(`[\+\-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][\+\-]?[0-9]+)?`), getToken(TOKEN_NUMBER))
	lexer.Add([]byte(`[\-]?[0-9]+/[\-]?[0-9]*(/[\-]?[0-9]+)?`), getToken(TOKEN_CORNER))
	lexer.Add([]byte(`[^ \t\r\n#]+`), getToken(TOKEN_WORD))
	lexer.Add([]byte(`#[^\n]*`), skip)
	lexer.Add([]byte(`( |\t|\r)+`), skip)
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

type Token struct {
	Type int
	Text string
}

func (t Token) IsNumber() bool { return t.Type == TOKEN_NUMBER }

func (t Token) Float() (float32, error) {
	if t.Type != TOKEN_NUMBER {
		return 0, errors.Errorf("expected number, got %q", t.Text)
	}
	f, err := strconv.ParseFloat(t.Text, 32)
	if err != nil {
		return 0, errors.Errorf("bad number %q", t.Text)
	}
	return float32(f), nil
}

func (t Token) Int() (int, error) {
	if t.Type != TOKEN_NUMBER {
		return 0, errors.Errorf("expected integer, got %q", t.Text)
	}
	i, err := strconv.Atoi(t.Text)
	if err != nil {
		return 0, errors.Errorf("bad integer %q", t.Text)
	}
	return i, nil
}

// Line is one non-empty source line. Num is 1-based.
type Line struct {
	Num    int
	Text   string
	Tokens []Token
}

func (l *Line) Directive() string {
	if len(l.Tokens) == 0 {
		return ""
	}
	return l.Tokens[0].Text
}

// Args are the tokens following the directive.
func (l *Line) Args() []Token {
	if len(l.Tokens) == 0 {
		return nil
	}
	return l.Tokens[1:]
}

// Lex tokenizes a single line. Comment-only and blank lines give no tokens.
func Lex(text string) ([]Token, error) {
	scanner, err := lexer.Scanner([]byte(text))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	var tokens []Token
	for itok, err, eos := scanner.Next(); !eos; itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := itok.(*lexmachine.Token)
		tokens = append(tokens, Token{Type: tok.Type, Text: tok.Value.(string)})
	}
	return tokens, nil
}

// Decode wraps r with the configured input charmap, if any.
func Decode(r io.Reader) io.Reader {
	if cm := config.GetEncoding(); cm != nil {
		return transform.NewReader(r, cm.NewDecoder())
	}
	return r
}

// Scanner yields lexed lines of r. Blank and comment-only lines are skipped,
// line numbers still count them.
type Scanner struct {
	s    *bufio.Scanner
	line Line
	num  int
	err  error
}

func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(Decode(r))
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Scanner{s: s}
}

// Scan advances to the next non-empty line. A line the lexer rejects is
// returned with a nil token list and LexErr set.
func (s *Scanner) Scan() bool {
	for s.s.Scan() {
		s.num++
		text := s.s.Text()
		tokens, err := Lex(text)
		s.line = Line{Num: s.num, Text: text, Tokens: tokens}
		s.err = err
		if err != nil || len(tokens) != 0 {
			return true
		}
	}
	return false
}

func (s *Scanner) Line() *Line { return &s.line }

// LexErr is the lexer failure for the current line.
func (s *Scanner) LexErr() error { return s.err }

// Err is the first read error.
func (s *Scanner) Err() error { return s.s.Err() }
