package parser

import (
	"fmt"
	"strings"
)

// Field is one comma-separated value of a log line. Parenthesized and bracketed
// sub-lists decode into List with Open set to the opening byte.
type Field struct {
	Value  string
	Quoted bool
	List   []Field
	Open   byte
}

// IsList reports whether the field is a sub-list.
func (f Field) IsList() bool {
	return f.Open != 0
}

// String renders the field back to text. Quoted values are returned unquoted.
func (f Field) String() string {
	if !f.IsList() {
		return f.Value
	}
	parts := make([]string, len(f.List))
	for i, c := range f.List {
		parts[i] = c.String()
	}
	return string(f.Open) + strings.Join(parts, ",") + string(closer(f.Open))
}

func closer(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	}
	return 0
}

// splitFields splits s on top-level commas. Quoted strings may contain commas,
// brackets and doubled quotes ("").
func splitFields(s string) ([]Field, error) {
	sp := &splitter{s: s}
	return sp.list(0)
}

type splitter struct {
	s   string
	pos int
}

func (sp *splitter) list(end byte) ([]Field, error) {
	var out []Field

	if end != 0 {
		sp.skipSpace()
		if sp.pos < len(sp.s) && sp.s[sp.pos] == end {
			sp.pos++
			return []Field{}, nil
		}
	}

	for {
		f, err := sp.field(end)
		if err != nil {
			return nil, err
		}
		out = append(out, f)

		if sp.pos >= len(sp.s) {
			if end != 0 {
				return nil, fmt.Errorf("unterminated sub-list, expected %q", end)
			}
			return out, nil
		}

		switch c := sp.s[sp.pos]; {
		case c == ',':
			sp.pos++
		case end != 0 && c == end:
			sp.pos++
			return out, nil
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", c, sp.pos)
		}
	}
}

func (sp *splitter) field(end byte) (Field, error) {
	sp.skipSpace()
	if sp.pos >= len(sp.s) {
		return Field{}, nil
	}

	switch c := sp.s[sp.pos]; c {
	case '"':
		v, err := sp.quoted()
		if err != nil {
			return Field{}, err
		}
		sp.skipSpace()
		return Field{Value: v, Quoted: true}, nil
	case '(', '[':
		sp.pos++
		children, err := sp.list(closer(c))
		if err != nil {
			return Field{}, err
		}
		sp.skipSpace()
		return Field{List: children, Open: c}, nil
	}

	start := sp.pos
	for sp.pos < len(sp.s) {
		c := sp.s[sp.pos]
		if c == ',' || (end != 0 && c == end) {
			break
		}
		sp.pos++
	}
	return Field{Value: strings.TrimSpace(sp.s[start:sp.pos])}, nil
}

func (sp *splitter) quoted() (string, error) {
	start := sp.pos
	sp.pos++ // opening quote

	var b strings.Builder
	for sp.pos < len(sp.s) {
		c := sp.s[sp.pos]
		if c == '"' {
			if sp.pos+1 < len(sp.s) && sp.s[sp.pos+1] == '"' {
				b.WriteByte('"')
				sp.pos += 2
				continue
			}
			sp.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		sp.pos++
	}
	return "", fmt.Errorf("unterminated quote starting at offset %d", start)
}

func (sp *splitter) skipSpace() {
	for sp.pos < len(sp.s) && (sp.s[sp.pos] == ' ' || sp.s[sp.pos] == '\t') {
		sp.pos++
	}
}
