package model

import (
	"regexp"
	"strings"
)

// KeyFieldName is the reserved field that resolves to a document's key.
const KeyFieldName = "__name__"

var simpleSegment = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z_0-9]*$`)

// FieldPath addresses a possibly nested field of a document.
type FieldPath struct {
	segments []string
}

func NewFieldPath(segments ...string) FieldPath {
	s := make([]string, len(segments))
	copy(s, segments)
	return FieldPath{segments: s}
}

// ParseFieldPath splits a dot-separated path. A segment opening with a
// back-quote runs to the closing back-quote, so dots inside it do not
// split; a backslash there escapes the next character. ParseFieldPath
// reads back whatever CanonicalString writes.
func ParseFieldPath(path string) FieldPath {
	if path == "" {
		return FieldPath{}
	}
	var (
		segments        []string
		segment         strings.Builder
		quoted, escaped bool
	)
	start := true
	for _, r := range path {
		switch {
		case escaped:
			segment.WriteRune(r)
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case quoted && r == '`':
			quoted = false
		case quoted:
			segment.WriteRune(r)
		case r == '.':
			segments = append(segments, segment.String())
			segment.Reset()
			start = true
			continue
		case start && r == '`':
			quoted = true
		default:
			segment.WriteRune(r)
		}
		start = false
	}
	segments = append(segments, segment.String())
	return FieldPath{segments: segments}
}

func KeyFieldPath() FieldPath {
	return NewFieldPath(KeyFieldName)
}

func (p FieldPath) Segments() []string {
	s := make([]string, len(p.segments))
	copy(s, p.segments)
	return s
}

func (p FieldPath) Len() int {
	return len(p.segments)
}

func (p FieldPath) IsEmpty() bool {
	return len(p.segments) == 0
}

func (p FieldPath) IsKeyField() bool {
	return len(p.segments) == 1 && p.segments[0] == KeyFieldName
}

func (p FieldPath) Equal(other FieldPath) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// CanonicalString joins segments with dots. Segments that are not simple
// identifiers are back-quoted, with backslashes and back-quotes escaped.
func (p FieldPath) CanonicalString() string {
	var b strings.Builder
	for i, segment := range p.segments {
		if i > 0 {
			b.WriteByte('.')
		}
		if simpleSegment.MatchString(segment) {
			b.WriteString(segment)
			continue
		}
		b.WriteByte('`')
		for _, r := range segment {
			if r == '\\' || r == '`' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('`')
	}
	return b.String()
}

func (p FieldPath) String() string {
	return p.CanonicalString()
}
