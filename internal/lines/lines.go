// Package lines splits raw log buffers into lines.
package lines

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Placeholder replaces byte runs that are not valid UTF-8.
const Placeholder = "\uFFFD"

// Line is one line of a buffer, numbered from 1.
type Line struct {
	Number int
	Text   string
}

// Reader yields the lines of a buffer lazily. It never mutates the buffer.
type Reader struct {
	buf    []byte
	pos    int
	number int
}

// NewReader creates a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Next returns the next line. Lines end at "\r\n", "\n" or a lone "\r".
// A trailing empty fragment after the final line ending is not returned.
func (r *Reader) Next() (Line, bool) {
	if r.pos >= len(r.buf) {
		return Line{}, false
	}

	rest := r.buf[r.pos:]
	end := bytes.IndexAny(rest, "\r\n")

	var raw []byte
	if end < 0 {
		raw = rest
		r.pos = len(r.buf)
	} else {
		raw = rest[:end]
		r.pos += end + 1
		if rest[end] == '\r' && end+1 < len(rest) && rest[end+1] == '\n' {
			r.pos++
		}
	}

	r.number++
	return Line{Number: r.number, Text: decode(raw)}, true
}


func decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), Placeholder)
}

// Readable reports whether buf looks like text: it is non-empty and the share of
// bytes that are NUL or part of an invalid UTF-8 sequence does not exceed threshold.
func Readable(buf []byte, threshold float64) bool {
	if len(buf) == 0 {
		return false
	}

	bad := 0
	for i := 0; i < len(buf); {
		if buf[i] == 0 {
			bad++
			i++
			continue
		}
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size <= 1 {
			bad++
		}
		i += size
	}

	return float64(bad)/float64(len(buf)) <= threshold
}
