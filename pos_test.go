package bibtex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilePosition(t *testing.T) {
	src := "line one\nline two\nline three"
	f := NewFile("t.bib", len(src))
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			f.AddLine(i + 1)
		}
	}

	cases := []struct {
		offset int
		want   Position
	}{
		{0, Position{File: "t.bib", Line: 1, Column: 1}},
		{4, Position{File: "t.bib", Line: 1, Column: 5}},
		{9, Position{File: "t.bib", Line: 2, Column: 1}},
		{18, Position{File: "t.bib", Line: 3, Column: 1}},
		{len(src) - 1, Position{File: "t.bib", Line: 3, Column: len("line three")}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, f.Pos(c.offset))
	}
}

func TestFilePositionClampsOutOfRange(t *testing.T) {
	f := NewFile("t.bib", 5)
	assert.Equal(t, Position{File: "t.bib", Line: 1, Column: 1}, f.Pos(-3))
	assert.Equal(t, Position{File: "t.bib", Line: 1, Column: 6}, f.Pos(100))
}

func TestPositionString(t *testing.T) {
	assert.Equal(t, "3:5", Position{Line: 3, Column: 5}.String())
	assert.Equal(t, "x.bib:3:5", Position{File: "x.bib", Line: 3, Column: 5}.String())
}

func TestPositionIsValid(t *testing.T) {
	assert.False(t, Position{}.IsValid())
	assert.True(t, Position{Line: 1, Column: 1}.IsValid())
}
