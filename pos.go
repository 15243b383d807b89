package bibtex

import (
	"fmt"
	"sort"
)

// Position anchors a diagnostic or an Entry/field to a place in the
// input. It is the resolved (file, line, column) form of an Offset;
// see File for the mapping.
type Position struct {
	File   string
	Line   int // 1-based
	Column int // 1-based, in bytes
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// IsValid reports whether p refers to an actual location, as opposed
// to the zero Position returned when no position information is
// available.
func (p Position) IsValid() bool { return p.Line > 0 }

// Offset is a byte offset into one File's source text. It's the
// lightweight value the scanner and parser pass around while lexing;
// callers resolve it to a Position lazily, only when a diagnostic or
// an Entry is actually built, following the same split as
// jschaf/bibtex's token.Pos vs. token.Position.
type Offset int

// A File tracks the source text of a single input stream and the byte
// offsets at which each line begins, so that any Offset within it can
// be resolved to a line/column Position without rescanning. This is
// component B, the source position tracker.
//
// A File is built incrementally: AddLine is called as the scanner
// encounters each '\n', mirroring go/token's token.File.AddLine.
type File struct {
	name  string
	size  int
	lines []int // byte offset of the start of each line; lines[0] == 0
}

// NewFile creates a File for a named input of the given size in
// bytes. size is used only to validate offsets passed to Position.
func NewFile(name string, size int) *File {
	return &File{name: name, size: size, lines: []int{0}}
}

// Name returns the file name File was created with.
func (f *File) Name() string { return f.name }

// AddLine records that a new line begins at the given byte offset.
// Offsets must be added in increasing order; out-of-order or
// duplicate offsets are ignored.
func (f *File) AddLine(offset int) {
	if n := len(f.lines); (n == 0 || f.lines[n-1] < offset) && offset <= f.size {
		f.lines = append(f.lines, offset)
	}
}

// Position resolves a byte Offset into this file to a line/column
// Position. Columns are counted in bytes from the start of the line,
// which matches BibTeX's own ASCII-oriented column reporting.
func (f *File) Position(off Offset) Position {
	o := int(off)
	if o < 0 {
		o = 0
	}
	if o > f.size {
		o = f.size
	}
	// lines is sorted by construction; find the last line start <= o.
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > o }) - 1
	if i < 0 {
		i = 0
	}
	return Position{File: f.name, Line: i + 1, Column: o - f.lines[i] + 1}
}

// Pos returns a resolved Position at the given byte offset. It's a
// convenience over Position for call sites that don't otherwise need
// to hold onto the raw Offset.
func (f *File) Pos(off int) Position { return f.Position(Offset(off)) }
