package pyfg

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/MarineRoboticsGroup/go-factor-graph/factorgraph"
	"github.com/MarineRoboticsGroup/go-factor-graph/precision"
)

// line is a record that satisfies its tag's grammar. Names and numbers are kept apart, each in
// the order they appear on the line.
type line struct {
	tag    Tag
	names  []string
	values []float64
}

// tokenize splits text into a line and checks it against the grammar of its tag. The returned
// ParseError has no Source set.
func tokenize(number int, text string) (*line, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, &ParseError{Line: number, Err: ErrMalformedTag}
	}
	tag := Tag(tokens[0])
	if !validTag(tokens[0]) {
		return nil, &ParseError{Line: number, Token: tokens[0], Err: ErrMalformedTag}
	}
	g, ok := grammars[tag]
	if !ok {
		return nil, &ParseError{Line: number, Token: tokens[0], Err: ErrUnknownTag}
	}
	tokens = tokens[1:]
	if len(tokens) != len(g.fields) {
		return nil, &ParseError{
			Line: number,
			Tag:  tag,
			Err:  errors.Wrapf(ErrFieldCount, "expected %d fields but got %d", len(g.fields), len(tokens)),
		}
	}

	l := &line{tag: tag}
	for i, kind := range g.fields {
		tok := tokens[i]
		if kind == fieldName {
			if !validName(tok) {
				return nil, &ParseError{Line: number, Tag: tag, Token: tok, Err: ErrMalformedName}
			}
			l.names = append(l.names, tok)
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ParseError{Line: number, Tag: tag, Token: tok, Err: ErrMalformedNumber}
		}
		l.values = append(l.values, v)
	}
	return l, nil
}

func validTag(s string) bool {
	for _, c := range s {
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') && c != '_' && c != ':' {
			return false
		}
	}
	return s != ""
}

func validName(s string) bool {
	if _, _, err := factorgraph.ParseFrameName(s); err == nil {
		return true
	}
	_, err := factorgraph.ParseLandmarkName(s)
	return err == nil
}

// render formats l following its tag's grammar.
func (l *line) render(p precision.Policy) (string, error) {
	g, ok := grammars[l.tag]
	if !ok {
		return "", errors.Wrap(ErrUnknownTag, string(l.tag))
	}
	var sb strings.Builder
	sb.WriteString(string(l.tag))
	names, values := l.names, l.values
	for _, kind := range g.fields {
		sb.WriteByte(' ')
		if kind == fieldName {
			if len(names) == 0 {
				return "", errors.Errorf("%s: too few names", l.tag)
			}
			sb.WriteString(names[0])
			names = names[1:]
			continue
		}
		if len(values) == 0 {
			return "", errors.Errorf("%s: too few values", l.tag)
		}
		sb.WriteString(p.FormatClass(kind.class(), values[0]))
		values = values[1:]
	}
	if len(names) != 0 || len(values) != 0 {
		return "", errors.Errorf("%s: %d names and %d values left over", l.tag, len(names), len(values))
	}
	return sb.String(), nil
}

// cursor hands out a line's values in order.
type cursor struct {
	values []float64
}

func (c *cursor) next() float64 {
	v := c.values[0]
	c.values = c.values[1:]
	return v
}

func (c *cursor) take(n int) []float64 {
	out := c.values[:n:n]
	c.values = c.values[n:]
	return out
}
