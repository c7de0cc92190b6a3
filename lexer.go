// Package altar implements a Jinja/Django-syntax template engine.
package altar

import (
	"strings"
	"unicode/utf8"

	"github.com/juju/errors"
)

// EOF is the rune returned by lexer.next() once the input is exhausted.
// -1 can never appear in valid UTF-8 input, so it doubles as a sentinel.
const EOF rune = -1

// TokenType classifies a single lexical token produced by the lexer.
type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF
	TokenText
	TokenVariableStart
	TokenVariableEnd
	TokenBlockStart
	TokenBlockEnd
	TokenName
	TokenString
	TokenNumber
	TokenOperator
	TokenPunct
	TokenRawContent
)

func (t TokenType) String() string {
	switch t {
	case TokenError:
		return "Error"
	case TokenEOF:
		return "EOF"
	case TokenText:
		return "Text"
	case TokenVariableStart:
		return "VariableStart"
	case TokenVariableEnd:
		return "VariableEnd"
	case TokenBlockStart:
		return "BlockStart"
	case TokenBlockEnd:
		return "BlockEnd"
	case TokenName:
		return "Name"
	case TokenString:
		return "String"
	case TokenNumber:
		return "Number"
	case TokenOperator:
		return "Operator"
	case TokenPunct:
		return "Punct"
	case TokenRawContent:
		return "RawContent"
	default:
		return "Unknown"
	}
}

// Token is a single lexical element: the output of the lexer and the
// input to the parser.
type Token struct {
	Filename string
	Typ      TokenType
	Val      string
	Line     int
	Col      int

	// TrimLeft/TrimRight record whether this delimiter carried a '-' trim
	// marker ({{- -}} {%- -%} {#- -#}).
	TrimLeft  bool
	TrimRight bool
}

func (t *Token) String() string {
	val := t.Val
	if len(val) > 60 {
		val = val[:57] + "..."
	}
	return "<Token " + t.Typ.String() + " '" + val + "'>"
}

// LexerConfig holds the immutable, per-Engine delimiter and line-prefix
// configuration used to build a lexer. There is no package-level mutable
// delimiter state: an Engine owns its config, and a fresh lexer is built
// per parse with that config passed in explicitly.
type LexerConfig struct {
	VariableStart string
	VariableEnd   string
	BlockStart    string
	BlockEnd      string
	CommentStart  string
	CommentEnd    string

	// LineStatementPrefix, when non-empty, makes a source line whose
	// first non-whitespace characters equal this prefix behave as if the
	// remainder of the line were wrapped in BlockStart/BlockEnd.
	LineStatementPrefix string

	// LineCommentPrefix, when non-empty, discards everything from the
	// prefix to end-of-line without affecting trim behavior.
	LineCommentPrefix string
}

// DefaultLexerConfig returns the engine's default delimiter set.
func DefaultLexerConfig() LexerConfig {
	return LexerConfig{
		VariableStart: "{{",
		VariableEnd:   "}}",
		BlockStart:    "{%",
		BlockEnd:      "%}",
		CommentStart:  "{#",
		CommentEnd:    "#}",
	}
}

var (
	identStartChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
	identChars      = identStartChars + "0123456789"
	digitChars      = "0123456789"
	spaceChars      = " \t\r"

	stringEscapeReplacer = strings.NewReplacer(
		`\\`, `\`,
		`\"`, `"`,
		`\'`, `'`,
		`\n`, "\n",
		`\t`, "\t",
		`\r`, "\r",
	)

	// operatorSymbols and punctSymbols classify the non-alphanumeric
	// symbols found inside {{ }} / {% %}, longest-match first so that
	// e.g. "==" is matched before "=".
	operatorSymbols = []string{
		"**", "//", "==", "!=", "<=", ">=", "~",
		"+", "-", "*", "/", "%", "<", ">", "=",
	}
	punctSymbols = []string{
		",", ":", "[", "]", "(", ")", "{", "}", ".", "|",
	}
)

// lexer implements a hand-written, single-pass tokenizer for template
// source. It keeps its own cursor (start/pos) over the input string and
// appends directly to tokens, in the style of the teacher's stateFn
// lexer but without the indirection, since altar's mode transitions
// (text / code / raw / comment) nest more deeply than the teacher's.
type lexer struct {
	cfg LexerConfig

	name  string
	input string

	start int
	pos   int
	width int

	tokens []*Token
	err    error

	startLine, startCol int
	line, col           int
}

func lex(name, input string, cfg LexerConfig) ([]*Token, error) {
	l := &lexer{
		cfg:       cfg,
		name:      name,
		input:     input,
		tokens:    make([]*Token, 0, 64),
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
	}
	l.run()
	if l.err != nil {
		return nil, l.err
	}
	return l.tokens, nil
}

func (l *lexer) value() string { return l.input[l.start:l.pos] }

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return EOF
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) backup() {
	l.pos -= l.width
	if l.pos < len(l.input) && l.input[l.pos] == '\n' {
		l.line--
	} else {
		l.col--
	}
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) ignore() {
	l.start = l.pos
	l.startLine = l.line
	l.startCol = l.col
}

func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
}

func (l *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

func (l *lexer) advance(n int) {
	l.pos += n
	l.col += n
}

func (l *lexer) emit(t TokenType) *Token {
	tok := &Token{
		Filename: l.name,
		Typ:      t,
		Val:      l.value(),
		Line:     l.startLine,
		Col:      l.startCol,
	}
	if t == TokenString {
		tok.Val = stringEscapeReplacer.Replace(tok.Val)
	}
	l.tokens = append(l.tokens, tok)
	l.ignore()
	return tok
}

func (l *lexer) errorf(format string, args ...interface{}) {
	if l.err != nil {
		return
	}
	l.err = &Error{
		Kind:         LexError,
		TemplateName: l.name,
		Line:         l.startLine,
		Column:       l.startCol,
		Sender:       "lexer",
		Err:          errors.Errorf(format, args...),
	}
}

func (l *lexer) emitRemainingText() {
	if l.pos > l.start {
		l.emit(TokenText)
	}
}

// lastTextToken returns the most recently emitted TokenText, or nil.
func (l *lexer) lastTextToken() *Token {
	if n := len(l.tokens); n > 0 && l.tokens[n-1].Typ == TokenText {
		return l.tokens[n-1]
	}
	return nil
}

// trimLeft strips trailing horizontal whitespace, and at most one
// trailing newline (plus any horizontal whitespace before that newline),
// from the most recently emitted text token.
func (l *lexer) trimLeft() {
	tok := l.lastTextToken()
	if tok == nil {
		return
	}
	v := tok.Val
	end := len(v)
	for end > 0 && (v[end-1] == ' ' || v[end-1] == '\t' || v[end-1] == '\r') {
		end--
	}
	if end > 0 && v[end-1] == '\n' {
		end--
		for end > 0 && (v[end-1] == ' ' || v[end-1] == '\t' || v[end-1] == '\r') {
			end--
		}
	}
	tok.Val = v[:end]
}

// skipTrimRight consumes leading horizontal whitespace in the remaining
// input, plus at most one following newline.
func (l *lexer) skipTrimRight() {
	for {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.next()
			continue
		}
		break
	}
	if l.peek() == '\n' {
		l.next()
	}
	l.ignore()
}

// atLineStart reports whether l.pos is right after a newline or at the
// very start of the input.
func (l *lexer) atLineStart() bool {
	return l.pos == 0 || l.input[l.pos-1] == '\n'
}

func (l *lexer) run() {
	inRaw := false
	for l.err == nil {
		if inRaw {
			name, ok := l.consumeRawUntilEndraw()
			if l.err != nil {
				return
			}
			if !ok {
				return
			}
			_ = name
			inRaw = false
			continue
		}

		if l.cfg.LineStatementPrefix != "" && l.atLineStart() && l.matchesLinePrefix(l.cfg.LineStatementPrefix) {
			l.consumeLineStatement()
			continue
		}
		if l.cfg.LineCommentPrefix != "" && l.atLineStart() && l.matchesLinePrefix(l.cfg.LineCommentPrefix) {
			l.consumeLineComment()
			continue
		}
		if l.hasPrefix(l.cfg.CommentStart) {
			l.consumeComment()
			continue
		}
		if l.hasPrefix(l.cfg.VariableStart) {
			l.consumeTag(TokenVariableStart, l.cfg.VariableEnd)
			continue
		}
		if l.hasPrefix(l.cfg.BlockStart) {
			name := l.consumeTag(TokenBlockStart, l.cfg.BlockEnd)
			if name == "raw" {
				inRaw = true
			}
			continue
		}

		if l.next() == EOF {
			l.backup()
			break
		}
	}
	if l.err == nil {
		l.emitRemainingText()
		if inRaw {
			l.errorf("unterminated {%% raw %%} block, got EOF")
		}
	}
}

// matchesLinePrefix reports whether, ignoring leading horizontal
// whitespace from the current position, the input continues with prefix.
func (l *lexer) matchesLinePrefix(prefix string) bool {
	i := l.pos
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	return strings.HasPrefix(l.input[i:], prefix)
}

// consumeLineStatement treats the remainder of the current line as the
// body of a block tag, consuming the trailing newline.
func (l *lexer) consumeLineStatement() {
	l.emitRemainingText()
	for l.peek() == ' ' || l.peek() == '\t' {
		l.next()
	}
	l.ignore()
	l.advance(len(l.cfg.LineStatementPrefix))
	l.tokens = append(l.tokens, &Token{Filename: l.name, Typ: TokenBlockStart, Line: l.startLine, Col: l.startCol})
	l.ignore()

	for {
		r := l.peek()
		if r == '\n' || r == EOF {
			break
		}
		l.lexOneCodeToken()
		if l.err != nil {
			return
		}
	}
	l.tokens = append(l.tokens, &Token{Filename: l.name, Typ: TokenBlockEnd, Line: l.line, Col: l.col})
	l.ignore()
	if l.peek() == '\n' {
		l.next()
	}
	l.ignore()
}

func (l *lexer) consumeLineComment() {
	l.emitRemainingText()
	for l.peek() != '\n' && l.peek() != EOF {
		l.next()
	}
	l.ignore()
}

// consumeTag lexes one {{ ... }} or {% ... %} tag in full, from its
// opening delimiter to its closing delimiter (handling both trim
// markers), and returns the tag's first NAME token value (the statement
// keyword, for block tags) or "" if there wasn't one. The raw and
// endraw tags only switch the lexer's mode, so no tokens are kept for
// them.
func (l *lexer) consumeTag(startTyp TokenType, closeDelim string) string {
	l.emitRemainingText()
	openDelim := l.cfg.VariableStart
	if startTyp == TokenBlockStart {
		openDelim = l.cfg.BlockStart
	}
	l.advance(len(openDelim))
	trimLeft := false
	if l.peek() == '-' {
		l.next()
		trimLeft = true
	}
	tagStart := len(l.tokens)
	l.tokens = append(l.tokens, &Token{Filename: l.name, Typ: startTyp, Line: l.startLine, Col: l.startCol, TrimLeft: trimLeft})
	l.ignore()
	if trimLeft {
		l.trimLeft()
	}

	firstName := ""
	for {
		if l.hasPrefix(closeDelim) || l.hasPrefix("-"+closeDelim) {
			trimRight := false
			if l.peek() == '-' {
				l.next()
				trimRight = true
			}
			l.advance(len(closeDelim))
			l.tokens = append(l.tokens, &Token{Filename: l.name, Typ: l.matchingEndType(startTyp), Line: l.startLine, Col: l.startCol, TrimRight: trimRight})
			l.ignore()
			if trimRight {
				l.skipTrimRight()
			}
			if startTyp == TokenBlockStart && (firstName == "raw" || firstName == "endraw") {
				l.tokens = l.tokens[:tagStart]
			}
			return firstName
		}
		if l.peek() == EOF {
			l.errorf("unexpected EOF, unterminated tag/variable")
			return firstName
		}
		before := len(l.tokens)
		l.lexOneCodeToken()
		if l.err != nil {
			return firstName
		}
		if firstName == "" && len(l.tokens) > before && l.tokens[len(l.tokens)-1].Typ == TokenName {
			firstName = l.tokens[len(l.tokens)-1].Val
		}
	}
}

func (l *lexer) matchingEndType(startTyp TokenType) TokenType {
	if startTyp == TokenBlockStart {
		return TokenBlockEnd
	}
	return TokenVariableEnd
}

// lexOneCodeToken tokenizes exactly one identifier/number/string/symbol
// inside a tag or expression (or skips whitespace), setting l.err on
// failure.
func (l *lexer) lexOneCodeToken() {
	switch {
	case l.accept(spaceChars):
		l.acceptRun(spaceChars)
		l.ignore()
		return
	case l.peek() == '\n':
		l.errorf("newline not allowed within a tag or expression")
		return
	case l.accept(identStartChars):
		l.acceptRun(identChars)
		l.emit(TokenName)
		return
	case l.accept(digitChars):
		l.lexNumber()
		return
	case l.accept(`"'`):
		l.lexString()
		return
	}

	for _, sym := range operatorSymbols {
		if l.hasPrefix(sym) {
			l.advance(len(sym))
			l.emit(TokenOperator)
			return
		}
	}
	for _, sym := range punctSymbols {
		if l.hasPrefix(sym) {
			l.advance(len(sym))
			l.emit(TokenPunct)
			return
		}
	}

	l.errorf("unknown character %q", l.peek())
}

// lexNumber lexes an integer or float literal: digits, optionally a '.'
// and more digits, optionally an exponent.
func (l *lexer) lexNumber() {
	l.acceptRun(digitChars)
	if l.peek() == '.' {
		save, saveLine, saveCol := l.pos, l.line, l.col
		l.next()
		if l.accept(digitChars) {
			l.acceptRun(digitChars)
			if r := l.peek(); r == 'e' || r == 'E' {
				mark, markLine, markCol := l.pos, l.line, l.col
				l.next()
				l.accept("+-")
				if l.accept(digitChars) {
					l.acceptRun(digitChars)
				} else {
					l.pos, l.line, l.col = mark, markLine, markCol
				}
			}
		} else {
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}
	l.emit(TokenNumber)
}

func (l *lexer) lexString() {
	quote := l.value()
	l.ignore()
	for {
		if l.accept(quote) {
			break
		}
		switch l.next() {
		case '\\':
			switch l.peek() {
			case '"', '\'', '\\', 'n', 't', 'r':
				l.next()
			default:
				l.errorf("unknown escape sequence: \\%c", l.peek())
				return
			}
		case EOF:
			l.errorf("unexpected EOF, string literal not closed")
			return
		case '\n':
			l.errorf("newline in string literal not allowed")
			return
		}
	}
	val := l.input[l.start : l.pos-1]
	l.tokens = append(l.tokens, &Token{Filename: l.name, Typ: TokenString, Val: stringEscapeReplacer.Replace(val), Line: l.startLine, Col: l.startCol})
	l.ignore()
}

// consumeComment discards a {# ... #} comment, honoring trim markers on
// both sides.
func (l *lexer) consumeComment() {
	l.emitRemainingText()
	l.advance(len(l.cfg.CommentStart))
	trimLeft := false
	if l.peek() == '-' {
		l.next()
		trimLeft = true
	}
	l.ignore()
	if trimLeft {
		l.trimLeft()
	}

	for {
		if l.peek() == EOF {
			l.errorf("unterminated comment, got EOF")
			return
		}
		if l.hasPrefix(l.cfg.CommentEnd) || l.hasPrefix("-"+l.cfg.CommentEnd) {
			break
		}
		l.next()
	}
	trimRight := false
	if l.peek() == '-' {
		l.next()
		trimRight = true
	}
	l.advance(len(l.cfg.CommentEnd))
	l.ignore()
	if trimRight {
		l.skipTrimRight()
	}
}

// consumeRawUntilEndraw accumulates literal text as a single RawContent
// token up to (but not including) the next {% endraw %} tag, then lexes
// that tag itself. ok is false if l.err was set.
func (l *lexer) consumeRawUntilEndraw() (name string, ok bool) {
	for {
		if l.hasPrefix(l.cfg.BlockStart) {
			save, saveLine, saveCol := l.pos, l.line, l.col
			l.advance(len(l.cfg.BlockStart))
			if l.peek() == '-' {
				l.next()
			}
			for l.peek() == ' ' || l.peek() == '\t' {
				l.next()
			}
			identStart := l.pos
			for strings.ContainsRune(identChars, l.peek()) {
				l.next()
			}
			ident := l.input[identStart:l.pos]
			l.pos, l.line, l.col = save, saveLine, saveCol
			if ident == "endraw" {
				l.emitRemainingText2AsRaw()
				name = l.consumeTag(TokenBlockStart, l.cfg.BlockEnd)
				return name, true
			}
		}
		if l.next() == EOF {
			l.errorf("unterminated {%% raw %%} block, got EOF")
			return "", false
		}
	}
}

func (l *lexer) emitRemainingText2AsRaw() {
	if l.pos > l.start {
		l.emit(TokenRawContent)
	}
}
