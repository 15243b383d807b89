package bibtex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, src string, opts Options) (*Database, *Collector, error) {
	t.Helper()
	var c Collector
	p := NewParser(&c, opts)
	require.NoError(t, p.Parse(strings.NewReader(src), "test.bib"))
	db, err := p.Finalize()
	return db, &c, err
}

func TestParserBasicEntry(t *testing.T) {
	db, _, err := parseString(t, `@article{foo, title = {Hello}, author = "Jane Doe"}`, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, db.Len())

	e, ok := db.Lookup("foo")
	require.True(t, ok)
	assert.Equal(t, "article", e.Type)
	assert.Equal(t, "foo", e.Key)
	title, _ := e.Field("title")
	assert.Equal(t, "Hello", title)
	author, _ := e.Field("author")
	assert.Equal(t, "Jane Doe", author)
}

func TestParserMacroConcatenation(t *testing.T) {
	db, _, err := parseString(t, `@string{j = "Journal"} @article{a, journal = j # " of X"}`, Options{})
	require.NoError(t, err)
	e, ok := db.Lookup("a")
	require.True(t, ok)
	v, _ := e.Field("journal")
	assert.Equal(t, "Journal of X", v)
}

func TestParserDuplicateKeyIsFatal(t *testing.T) {
	src := `@article{k, title={One}} @book{k, title={Two}}`
	db, c, err := parseString(t, src, Options{})
	require.Error(t, err)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 1, db.Len())

	e, ok := db.Lookup("k")
	require.True(t, ok)
	title, _ := e.Field("title")
	assert.Equal(t, "One", title)

	found := false
	for _, d := range c.Diagnostics {
		if d.Severity == SeverityError && strings.Contains(d.Message, "duplicate key") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDatabaseResolveCrossref(t *testing.T) {
	src := `@article{a, crossref={b}} @proceedings{b, year={2020}}`
	db, c, err := parseString(t, src, Options{})
	require.NoError(t, err)

	a, ok := db.Lookup("a")
	require.True(t, ok)
	resolved := db.ResolveCrossref(a, c)
	year, ok := resolved.Field("year")
	require.True(t, ok)
	assert.Equal(t, "2020", year)
	assert.False(t, resolved.HasField("crossref"))

	again := db.ResolveCrossref(resolved, c)
	assert.Equal(t, resolved, again)
}

func TestDatabaseResolveCrossrefMissingTarget(t *testing.T) {
	src := `@article{a, crossref={nope}}`
	db, c, err := parseString(t, src, Options{})
	require.NoError(t, err)
	a, _ := db.Lookup("a")
	resolved := db.ResolveCrossref(a, c)
	assert.False(t, resolved.HasField("crossref"))
	assert.NotEmpty(t, c.Diagnostics)
}

func TestParserUndefinedMacroWarns(t *testing.T) {
	db, c, err := parseString(t, `@article{a, journal = undefinedmacro}`, Options{})
	require.NoError(t, err)
	e, _ := db.Lookup("a")
	v, _ := e.Field("journal")
	assert.Equal(t, "", v)
	assert.NotEmpty(t, c.Diagnostics)
}

func TestParserDuplicateFieldKeepsFirst(t *testing.T) {
	db, c, err := parseString(t, `@article{a, year={2001}, year={2002}}`, Options{})
	require.NoError(t, err)
	e, _ := db.Lookup("a")
	v, _ := e.Field("year")
	assert.Equal(t, "2001", v)
	assert.NotEmpty(t, c.Diagnostics)
}

func TestParserTrailingComma(t *testing.T) {
	db, _, err := parseString(t, `@article{a, year={2001},}`, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, db.Len())
}

func TestParserParenDelimitedEntry(t *testing.T) {
	db, _, err := parseString(t, `@article(a, year={2001})`, Options{})
	require.NoError(t, err)
	e, ok := db.Lookup("a")
	require.True(t, ok)
	v, _ := e.Field("year")
	assert.Equal(t, "2001", v)
}

func TestParserCommentSkipsContent(t *testing.T) {
	src := "@comment{this is skipped}\n@article{a, year={2001}}"
	db, _, err := parseString(t, src, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, db.Len())
}

func TestParserPreamble(t *testing.T) {
	db, _, err := parseString(t, `@preamble{"\newcommand"} @preamble{"{\relax}"}`, Options{})
	require.NoError(t, err)
	assert.Equal(t, `\newcommand{\relax}`, db.Preamble())
}

func TestParserResyncsOnMalformedEntry(t *testing.T) {
	src := `@article{bad, title = } @article{ok, title={Fine}}`
	db, c, err := parseString(t, src, Options{})
	require.Error(t, err)
	assert.NotEmpty(t, c.Diagnostics)
	_, hasOK := db.Lookup("ok")
	assert.True(t, hasOK)
}

func TestParserMonthMacroSeeding(t *testing.T) {
	db, _, err := parseString(t, `@article{a, month = jan}`, Options{MonthStyle: MonthFull})
	require.NoError(t, err)
	e, _ := db.Lookup("a")
	v, _ := e.Field("month")
	assert.Equal(t, "January", v)
	n, ok := e.MonthNum()
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestParserMonthStyleNoneLeavesMacroUndefined(t *testing.T) {
	db, c, err := parseString(t, `@article{a, month = jan}`, Options{MonthStyle: MonthNone})
	require.NoError(t, err)
	e, _ := db.Lookup("a")
	v, _ := e.Field("month")
	assert.Equal(t, "", v)
	assert.NotEmpty(t, c.Diagnostics)
}

func TestParserMultipleStreamsAccumulate(t *testing.T) {
	var c Collector
	p := NewParser(&c, Options{})
	require.NoError(t, p.Parse(strings.NewReader(`@string{j = "Journal"} @article{a, journal = j}`), "one.bib"))
	require.NoError(t, p.Parse(strings.NewReader(`@article{b, journal = j}`), "two.bib"))
	db, err := p.Finalize()
	require.NoError(t, err)
	require.Equal(t, 2, db.Len())
	b, _ := db.Lookup("b")
	v, _ := b.Field("journal")
	assert.Equal(t, "Journal", v)
}

func TestParserKeyParenMayContainBrace(t *testing.T) {
	db, _, err := parseString(t, `@article(a}b, year={2001})`, Options{})
	require.NoError(t, err)
	_, ok := db.Lookup("a}b")
	assert.True(t, ok)
}

func TestParserMaxErrorsStopsEarly(t *testing.T) {
	src := strings.Repeat(`@article{x, title = } `, 5)
	_, c, err := parseString(t, src, Options{MaxErrors: 1})
	require.Error(t, err)
	count := 0
	for _, d := range c.Diagnostics {
		if d.Severity == SeverityError {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
