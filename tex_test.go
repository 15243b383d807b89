package bibtex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTexToUnicodeAccents(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`Erd{\H{o}}s`, "Erdős"},
		{`\"{o}`, "ö"},
		{`\'o`, "ó"},
		{`\"o`, "ö"},
		{`\'\i`, "í"},
		{`na{\"\i}ve`, "naïve"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TexToUnicode(c.in, Position{}, nil), "input %q", c.in)
	}
}

func TestTexToUnicodeControlSymbols(t *testing.T) {
	cases := []struct{ in, want string }{
		{`\oe`, "œ"},
		{`\ss`, "ß"},
		{`\AA`, "Å"},
		{`\copyright`, "©"},
		{`L\'\i ndblad`, "Líndblad"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TexToUnicode(c.in, Position{}, nil), "input %q", c.in)
	}
}

func TestTexToUnicodeDashesAndQuotes(t *testing.T) {
	assert.Equal(t, "em—dash", TexToUnicode("em---dash", Position{}, nil))
	assert.Equal(t, "en–dash", TexToUnicode("en--dash", Position{}, nil))
	assert.Equal(t, "“quoted”", TexToUnicode("``quoted''", Position{}, nil))
	assert.Equal(t, "a b", TexToUnicode("a~b", Position{}, nil))
}

func TestTexToUnicodeMath(t *testing.T) {
	assert.Equal(t, "$2×2$", TexToUnicode(`$2\times 2$`, Position{}, nil))
	assert.Equal(t, `$\unknownmacro$`, TexToUnicode(`$\unknownmacro$`, Position{}, nil))
}

func TestTexToUnicodeUnknownControlSequence(t *testing.T) {
	var c Collector
	got := TexToUnicode(`\frobnicate`, Position{}, &c)
	assert.Equal(t, "frobnicate", got)
	assert.True(t, c.HasErrors() == false)
	assert.NotEmpty(t, c.Diagnostics)
}

func TestTexToUnicodeUnknownAccentCombination(t *testing.T) {
	var c Collector
	got := TexToUnicode(`\H{z}`, Position{}, &c)
	assert.Equal(t, "z", got)
	assert.NotEmpty(t, c.Diagnostics)
}

func TestTexToUnicodeIdentityWithoutMarkup(t *testing.T) {
	for _, s := range []string{"plain text", "numbers 123", "punctuation, yes!"} {
		assert.Equal(t, s, TexToUnicode(s, Position{}, nil))
	}
}

func TestTexToUnicodeDiscretionaryHyphen(t *testing.T) {
	assert.Equal(t, "hyphenation", TexToUnicode(`hy\-phen\-ation`, Position{}, nil))
}

func TestFirstLetter(t *testing.T) {
	cases := []struct {
		in   string
		r    rune
		ok   bool
	}{
		{`Smith`, 'S', true},
		{`\oe uvre`, 'œ', true},
		{`{\v S}imun\'ic`, 'Š', true},
		{`123`, 0, false},
	}
	for _, c := range cases {
		r, ok := FirstLetter(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		if c.ok {
			assert.Equal(t, c.r, r, "input %q", c.in)
		}
	}
}
