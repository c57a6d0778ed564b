// Package fieldpath models the dotted/bracketed field paths shared by both
// the shell and SQL translators (spec.md §3 "FieldPath").
package fieldpath

import (
	"strconv"
	"strings"
)

// SegmentKind tags a single step of a FieldPath.
type SegmentKind int

const (
	// Field is a plain dotted field name, e.g. "name" in "name.first".
	Field SegmentKind = iota
	// Nested is a field name reached through a parent field.
	Nested
	// ArrayIndex selects a specific array element, e.g. items[0].
	ArrayIndex
	// ArrayWildcard selects every array element, e.g. tags[*].
	ArrayWildcard
)

// Segment is one step of a Path.
type Segment struct {
	Kind  SegmentKind
	Name  string // valid for Field/Nested
	Index int    // valid for ArrayIndex
}

// Path is an ordered sequence of Segments describing navigation into a document.
type Path []Segment

// Parse reads a dotted/bracketed path expression such as "items[0].price" or
// "tags[*]" into a Path. It does not validate that the referenced fields
// exist; it only tokenizes navigation syntax.
func Parse(expr string) Path {
	var path Path
	var cur strings.Builder
	first := true

	flushField := func() {
		if cur.Len() == 0 {
			return
		}
		kind := Field
		if !first {
			kind = Nested
		}
		path = append(path, Segment{Kind: kind, Name: cur.String()})
		cur.Reset()
		first = false
	}

	runes := []rune(expr)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.':
			flushField()
		case '[':
			flushField()
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			inner := string(runes[i+1 : j])
			if inner == "*" {
				path = append(path, Segment{Kind: ArrayWildcard})
			} else if n, err := strconv.Atoi(inner); err == nil {
				path = append(path, Segment{Kind: ArrayIndex, Index: n})
			}
			i = j
			first = false
		default:
			cur.WriteRune(runes[i])
		}
	}
	flushField()
	return path
}

// RequiresAggregation reports whether any segment cannot be expressed as a
// plain dotted MongoDB field path (array index or wildcard projection).
func (p Path) RequiresAggregation() bool {
	for _, seg := range p {
		if seg.Kind == ArrayIndex || seg.Kind == ArrayWildcard {
			return true
		}
	}
	return false
}

// ToMongoDBPath renders the path as a dotted MongoDB field reference. It
// returns ("", false) iff RequiresAggregation is true for this path.
func (p Path) ToMongoDBPath() (string, bool) {
	if p.RequiresAggregation() {
		return "", false
	}
	parts := make([]string, 0, len(p))
	for _, seg := range p {
		parts = append(parts, seg.Name)
	}
	return strings.Join(parts, "."), true
}

// BaseField returns the leading field name of the path, or "" if empty.
func (p Path) BaseField() string {
	if len(p) == 0 {
		return ""
	}
	return p[0].Name
}

// String renders the path back into its source syntax.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		switch seg.Kind {
		case Field, Nested:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Name)
		case ArrayIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		case ArrayWildcard:
			b.WriteString("[*]")
		}
	}
	return b.String()
}
