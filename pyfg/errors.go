package pyfg

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Grammar errors found while tokenizing a line. They are always returned wrapped in a ParseError.
var (
	ErrMalformedTag    = errors.New("malformed tag")
	ErrUnknownTag      = errors.New("unknown tag")
	ErrFieldCount      = errors.New("wrong number of fields")
	ErrMalformedNumber = errors.New("malformed number")
	ErrMalformedName   = errors.New("malformed variable name")
)

// ParseError locates a failure to decode a line. Err is either one of the grammar errors above or
// the error returned when adding the decoded record to the graph.
type ParseError struct {
	Source string
	Line   int
	Tag    Tag
	Token  string
	Err    error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.Source != "" {
		sb.WriteString(e.Source)
		sb.WriteString(":")
	}
	fmt.Fprintf(&sb, "%d", e.Line)
	if e.Tag != "" {
		fmt.Fprintf(&sb, ": %s", e.Tag)
	}
	if e.Token != "" {
		fmt.Fprintf(&sb, ": token %q", e.Token)
	}
	fmt.Fprintf(&sb, ": %v", e.Err)
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
