package bibtex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Database {
	t.Helper()
	var c Collector
	p := NewParser(&c, Options{})
	require.NoError(t, p.Parse(strings.NewReader(src), "t.bib"))
	db, err := p.Finalize()
	require.NoError(t, err)
	return db
}

func TestEntryAuthorsUsesNameParser(t *testing.T) {
	db := mustParse(t, `@article{a, author = "Jean de La Fontaine and Donald E. Knuth"}`)
	e, _ := db.Lookup("a")
	authors := e.Authors(nil)
	require.Len(t, authors, 2)
	assert.Equal(t, "La Fontaine", authors[0].Last)
	assert.Equal(t, "Knuth", authors[1].Last)
}

func TestEntryAuthorsAbsentFieldIsEmpty(t *testing.T) {
	db := mustParse(t, `@article{a, title={No authors here}}`)
	e, _ := db.Lookup("a")
	assert.Nil(t, e.Authors(nil))
	assert.Nil(t, e.Editors(nil))
}

func TestEntryDateKey(t *testing.T) {
	db := mustParse(t, `@article{a, year={2019}, month={feb}}`)
	e, _ := db.Lookup("a")
	dk, err := e.DateKey()
	require.NoError(t, err)
	assert.Equal(t, DateKey{Year: 2019, Month: 2}, dk)
}

func TestEntryDateKeyNonNumericYearIsError(t *testing.T) {
	db := mustParse(t, `@article{a, year={nineteen}}`)
	e, _ := db.Lookup("a")
	_, err := e.DateKey()
	assert.Error(t, err)
}

func TestEntryDateKeyMonthWithoutYearIsError(t *testing.T) {
	db := mustParse(t, `@article{a, month={feb}}`)
	e, _ := db.Lookup("a")
	_, err := e.DateKey()
	assert.Error(t, err)
}

func TestEntryDateKeyAbsent(t *testing.T) {
	db := mustParse(t, `@article{a, title={No dates}}`)
	e, _ := db.Lookup("a")
	dk, err := e.DateKey()
	require.NoError(t, err)
	assert.Equal(t, DateKey{}, dk)
}

func TestEntryToBib(t *testing.T) {
	db := mustParse(t, `@article{a, title={Hello}, year={2020}}`)
	e, _ := db.Lookup("a")
	got := e.ToBib(0, false)
	assert.Equal(t, "@article{a,\n  title = {Hello},\n  year = {2020},\n}\n", got)
}

func TestEntryToBibMonthToMacro(t *testing.T) {
	db := mustParse(t, `@article{a, month={February}}`)
	e, _ := db.Lookup("a")
	got := e.ToBib(0, true)
	assert.Contains(t, got, "month = feb")
}

func TestEntryToBibWrapsLongValues(t *testing.T) {
	db := mustParse(t, `@article{a, title={this is quite a long title that should wrap across more than one line of output}}`)
	e, _ := db.Lookup("a")
	got := e.ToBib(40, false)
	lines := strings.Split(got, "\n")
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 40+20) // generous bound; only checks no runaway single-line render
	}
	assert.Contains(t, got, "title = {this is quite a long title")
}

func TestMonthNumPrefixMatch(t *testing.T) {
	db := mustParse(t, `@article{a, month={September 3}}`)
	e, _ := db.Lookup("a")
	n, ok := e.MonthNum()
	assert.True(t, ok)
	assert.Equal(t, 9, n)
}

func TestFieldsPreserveSourceOrder(t *testing.T) {
	db := mustParse(t, `@article{a, zeta={1}, alpha={2}}`)
	e, _ := db.Lookup("a")
	fields := e.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "zeta", fields[0].Name)
	assert.Equal(t, "alpha", fields[1].Name)
}
