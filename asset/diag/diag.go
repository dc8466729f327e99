// Package diag collects parse diagnostics produced while importing assets.
//
// Format errors and resource errors are recoverable: the offending record is
// dropped (or a placeholder substituted) and a Diagnostic is appended to the
// List. Structural errors abort the import and are returned as *Error.
package diag

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
)

type Kind int

const (
	Warning Kind = iota
	FormatError
	StructuralError
	ResourceError
)

func (k Kind) String() string {
	switch k {
	case Warning:
		return "warning"
	case FormatError:
		return "format error"
	case StructuralError:
		return "structural error"
	case ResourceError:
		return "resource error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %v: %s", d.File, d.Line, d.Kind, d.Message)
	}
	if d.File != "" {
		return fmt.Sprintf("%s: %v: %s", d.File, d.Kind, d.Message)
	}
	return fmt.Sprintf("%v: %s", d.Kind, d.Message)
}

// List accumulates diagnostics. A nil Logger keeps the list quiet.
type List struct {
	Tag    string
	Logger *log.Logger

	Items []Diagnostic
}

func NewList(tag string) *List {
	return &List{Tag: tag, Logger: log.Default()}
}

func NewQuietList() *List {
	return &List{}
}

func (l *List) Add(d Diagnostic) {
	l.Items = append(l.Items, d)
	if l.Logger != nil {
		if l.Tag != "" {
			l.Logger.Printf("[%s] %v", l.Tag, d)
		} else {
			l.Logger.Print(d.String())
		}
	}
}

func (l *List) Addf(kind Kind, file string, line int, format string, a ...interface{}) {
	l.Add(Diagnostic{Kind: kind, File: file, Line: line, Message: fmt.Sprintf(format, a...)})
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

func (l *List) Count(kind Kind) int {
	if l == nil {
		return 0
	}
	n := 0
	for _, d := range l.Items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func (l *List) Of(kind Kind) []Diagnostic {
	if l == nil {
		return nil
	}
	var out []Diagnostic
	for _, d := range l.Items {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Merge appends all diagnostics from other without logging them again.
func (l *List) Merge(other *List) {
	if other == nil || other == l {
		return
	}
	l.Items = append(l.Items, other.Items...)
}

// Error is a fatal import failure.
type Error struct {
	Kind Kind
	File string
	Line int
	Err  error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v: %v", e.File, e.Line, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.File, e.Kind, e.Err)
}

func (e *Error) Cause() error  { return e.Err }
func (e *Error) Unwrap() error { return e.Err }

func Structuralf(file string, line int, format string, a ...interface{}) *Error {
	return &Error{Kind: StructuralError, File: file, Line: line, Err: errors.Errorf(format, a...)}
}

func Wrap(kind Kind, file string, line int, err error, message string) *Error {
	return &Error{Kind: kind, File: file, Line: line, Err: errors.Wrap(err, message)}
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
