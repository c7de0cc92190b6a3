package altar

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/juju/errors"
)

// ErrorKind classifies where in the pipeline an *Error originated,
// matching the taxonomy an Engine user needs to branch on (e.g. to
// swallow TemplateNotFound for `include ... ignore missing`).
type ErrorKind int

const (
	// LexError: malformed token or unterminated literal.
	LexError ErrorKind = iota
	// ParseError: unexpected token, unknown statement, misplaced
	// extends, unmatched block delimiter.
	ParseError
	// TemplateNotFound: the loader returned missing for a required
	// include/extends/import.
	TemplateNotFound
	// RenderError: type mismatch in arithmetic, unknown filter/test,
	// division by zero, super()/caller() out of context, invalid macro
	// argument count.
	RenderError
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "LexError"
	case ParseError:
		return "ParseError"
	case TemplateNotFound:
		return "TemplateNotFound"
	case RenderError:
		return "RenderError"
	default:
		return "Error"
	}
}

// Error is the single error type produced anywhere in Altar's pipeline:
// lexing, parsing and rendering all fill in the same shape so a caller
// can type-assert once and branch on Kind. Wrapping is done with
// juju/errors so an Error retains its own cause chain (Err) while still
// satisfying the plain `error` interface expected everywhere else.
//
// Sender should always be set: 'lexer', 'parser', 'tag:NAME',
// 'filter:NAME', 'test:NAME', 'engine'. It's fine to only fill in Err if
// no other details are at hand.
type Error struct {
	TemplateName string
	Line         int
	Column       int
	Kind         ErrorKind
	Sender       string
	Err          error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s", e.Kind)
	if e.Sender != "" {
		s += " (where: " + e.Sender + ")"
	}
	if e.TemplateName != "" {
		s += " in " + e.TemplateName
	}
	if e.Line > 0 {
		s += fmt.Sprintf(" | Line %d Col %d", e.Line, e.Column)
	}
	s += "] "
	if e.Err != nil {
		s += e.Err.Error()
	}
	return s
}

// Unwrap lets errors.Is/errors.As (and juju/errors.Cause) see through to
// the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// RawLine returns the affected source line from disk, if the template
// was loaded from a file and the line is known.
func (e *Error) RawLine() (line string, available bool) {
	if e.Line <= 0 || e.TemplateName == "" || e.TemplateName == "<string>" {
		return "", false
	}

	file, err := os.Open(e.TemplateName)
	if err != nil {
		return "", false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	l := 0
	for scanner.Scan() {
		l++
		if l == e.Line {
			return scanner.Text(), true
		}
	}
	return "", false
}

// newError builds an *Error and annotates it with juju/errors so its
// message carries the wrapping call site in debug builds.
func newError(kind ErrorKind, templateName string, line, col int, sender, format string, args ...interface{}) *Error {
	return &Error{
		Kind:         kind,
		TemplateName: templateName,
		Line:         line,
		Column:       col,
		Sender:       sender,
		Err:          errors.Errorf(format, args...),
	}
}

// wrapError annotates an existing error into Altar's *Error shape,
// preserving it as the Err cause rather than flattening it into a
// string.
func wrapError(kind ErrorKind, templateName string, line, col int, sender string, err error) *Error {
	return &Error{
		Kind:         kind,
		TemplateName: templateName,
		Line:         line,
		Column:       col,
		Sender:       sender,
		Err:          errors.Trace(err),
	}
}

// IsTemplateNotFound reports whether err is an *Error of kind
// TemplateNotFound, looking through juju/errors wrapping.
func IsTemplateNotFound(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == TemplateNotFound
	}
	return false
}
