package bibtex

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// This file is component D, the Database, plus the Entry type shared
// by components C and D and the consumer-facing operations of §6.2
// (Authors/Editors, MonthNum, ToBib, DateKey).

// Field is one name/value pair of an Entry, in source order.
type Field struct {
	Name  string // lowercased
	Value string // macros expanded, delimiters stripped
}

// Entry is an ordered bibliographic record, per §3. Once built by the
// parser, an Entry is never mutated; ResolveCrossref returns a new
// Entry rather than modifying its receiver or argument.
type Entry struct {
	Type string // lowercased
	Key  string // verbatim, case-sensitive
	Pos  Position

	fields   []Field
	fieldPos map[string]Position
	index    map[string]int
}

func newEntry(typ, key string, pos Position, fields []Field, fieldPos map[string]Position) *Entry {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	return &Entry{Type: typ, Key: key, Pos: pos, fields: fields, fieldPos: fieldPos, index: index}
}

// Field returns the value of the named field (case-insensitive) and
// whether it is present.
func (e *Entry) Field(name string) (string, bool) {
	i, ok := e.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return e.fields[i].Value, true
}

// HasField reports whether name (case-insensitive) is present.
func (e *Entry) HasField(name string) bool {
	_, ok := e.index[strings.ToLower(name)]
	return ok
}

// FieldPos returns the source position of the named field's value.
func (e *Entry) FieldPos(name string) (Position, bool) {
	p, ok := e.fieldPos[strings.ToLower(name)]
	return p, ok
}

// Fields returns a copy of the entry's fields in source order.
func (e *Entry) Fields() []Field {
	return append([]Field(nil), e.fields...)
}

// withKey returns a copy of e with its Key replaced, used by the
// collection-level key-fixing helpers in collection.go. Entry values
// coming out of Parser.Finalize are otherwise never mutated.
func (e *Entry) withKey(key string) *Entry {
	return newEntry(e.Type, key, e.Pos, e.fields, e.fieldPos)
}

func (e *Entry) posOrSelf(name string) Position {
	if p, ok := e.FieldPos(name); ok {
		return p
	}
	return e.Pos
}

// Authors parses the author field per §4.3, or returns nil if the
// field is absent.
func (e *Entry) Authors(diag Sink) []Name {
	v, ok := e.Field("author")
	if !ok {
		return nil
	}
	return ParseNames(v, e.posOrSelf("author"), diag)
}

// Editors parses the editor field per §4.3, or returns nil if the
// field is absent.
func (e *Entry) Editors(diag Sink) []Name {
	v, ok := e.Field("editor")
	if !ok {
		return nil
	}
	return ParseNames(v, e.posOrSelf("editor"), diag)
}

// copyExcluding returns a new Entry with the named field removed.
func (e *Entry) copyExcluding(name string) *Entry {
	fields := make([]Field, 0, len(e.fields))
	fieldPos := make(map[string]Position, len(e.fieldPos))
	for _, f := range e.fields {
		if f.Name == name {
			continue
		}
		fields = append(fields, f)
		if p, ok := e.fieldPos[f.Name]; ok {
			fieldPos[f.Name] = p
		}
	}
	return newEntry(e.Type, e.Key, e.Pos, fields, fieldPos)
}

// mergeCrossref returns a new Entry with every field of target that
// is absent from e added, and the crossref field itself dropped.
func (e *Entry) mergeCrossref(target *Entry) *Entry {
	fields := make([]Field, 0, len(e.fields)+len(target.fields))
	fieldPos := make(map[string]Position, len(e.fieldPos)+len(target.fieldPos))
	have := make(map[string]bool, len(e.fields))
	for _, f := range e.fields {
		if f.Name == "crossref" {
			continue
		}
		fields = append(fields, f)
		have[f.Name] = true
		if p, ok := e.fieldPos[f.Name]; ok {
			fieldPos[f.Name] = p
		}
	}
	for _, f := range target.fields {
		if f.Name == "crossref" || have[f.Name] {
			continue
		}
		fields = append(fields, f)
		if p, ok := target.fieldPos[f.Name]; ok {
			fieldPos[f.Name] = p
		}
	}
	return newEntry(e.Type, e.Key, e.Pos, fields, fieldPos)
}

// MonthNum derives a 1..12 month number from the entry's month field,
// per §6.2. It accepts a bare number, a month macro's expanded name
// (full or abbreviated, any case, prefix match), and reports false if
// the field is absent or unrecognized.
func (e *Entry) MonthNum() (int, bool) {
	v, ok := e.Field("month")
	if !ok {
		return 0, false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 12 {
		return n, true
	}
	low := strings.ToLower(v)
	for i, full := range monthFullNames {
		if low == full || (len(low) >= 3 && strings.HasPrefix(full, low)) {
			return i + 1, true
		}
	}
	for i, abbr := range monthAbbrevs {
		if strings.HasPrefix(low, abbr) {
			return i + 1, true
		}
	}
	return 0, false
}

// DateKey returns a sortable (year, month) pair, per §12. Month is 0
// if the month field is absent or unrecognized. It is an error for
// year to be present but non-numeric, or for month to be present
// without year.
type DateKey struct {
	Year  int
	Month int
}

func (e *Entry) DateKey() (DateKey, error) {
	yearStr, hasYear := e.Field("year")
	if !hasYear {
		if e.HasField("month") {
			return DateKey{}, fmt.Errorf("bibtex: entry %q has a month field but no year field", e.Key)
		}
		return DateKey{}, nil
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearStr))
	if err != nil {
		return DateKey{}, fmt.Errorf("bibtex: entry %q has non-numeric year %q: %w", e.Key, yearStr, err)
	}
	month, _ := e.MonthNum()
	return DateKey{Year: year, Month: month}, nil
}

// ToBib renders e as a canonical pretty-printed BibTeX record: type
// lowercased, one field per line, braces around values, trailing
// comma before the closing brace. wrapWidth bounds the column at
// which long field values are word-wrapped (0 disables wrapping,
// matching original_source/biblib/bib.py's to_bib). When
// monthToMacro is set and the month field resolves to a known month,
// it is written back out as its bare macro name instead of a braced
// literal, matching the original's month_to_macro default.
func (e *Entry) ToBib(wrapWidth int, monthToMacro bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s", strings.ToLower(e.Type), e.Key)
	for _, f := range e.fields {
		b.WriteString(",\n")
		if monthToMacro && f.Name == "month" {
			if n, ok := e.MonthNum(); ok {
				fmt.Fprintf(&b, "  month = %s", monthAbbrevs[n-1])
				continue
			}
		}
		b.WriteString(renderField(f.Name, f.Value, wrapWidth))
	}
	b.WriteString(",\n}\n")
	return b.String()
}

func renderField(name, value string, wrapWidth int) string {
	prefix := fmt.Sprintf("  %s = {", name)
	if wrapWidth <= len(prefix)+1 {
		return prefix + value + "}"
	}
	wrapped := wrapText(value, wrapWidth-len(prefix))
	lines := strings.Split(wrapped, "\n")
	indent := strings.Repeat(" ", len(prefix))
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(lines[0])
	for _, l := range lines[1:] {
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString(l)
	}
	b.WriteString("}")
	return b.String()
}

// wrapText greedily wraps s to width columns without ever breaking a
// word (which, since it splits on whitespace only, also never breaks
// on a hyphen inside a word), mirroring the original's
// textwrap.fill(break_long_words=False, break_on_hyphens=False).
func wrapText(s string, width int) string {
	if width < 1 {
		width = 1
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}
	var lines []string
	var cur strings.Builder
	curLen := 0
	for _, w := range words {
		switch {
		case curLen == 0:
			cur.WriteString(w)
			curLen = len(w)
		case curLen+1+len(w) > width:
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(w)
			curLen = len(w)
		default:
			cur.WriteByte(' ')
			cur.WriteString(w)
			curLen += 1 + len(w)
		}
	}
	lines = append(lines, cur.String())
	return strings.Join(lines, "\n")
}

var monthAbbrevs = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

var monthFullNames = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// monthAbbrvDisplay is the classic BibTeX abbrv-style month spelling
// (three-letter forms spelled out where BibTeX itself does, e.g.
// "May"/"June"/"July" unabbreviated, "Sept." for September).
var monthAbbrvDisplay = [12]string{
	"Jan.", "Feb.", "Mar.", "Apr.", "May", "June",
	"July", "Aug.", "Sept.", "Oct.", "Nov.", "Dec.",
}

// seedMonths populates macros with the twelve month macros per style,
// supplementing §3's single "full name" table with the three modes of
// original_source/biblib/bib.py's month_style parameter.
func seedMonths(macros map[string]string, style MonthStyle) {
	if style == MonthNone {
		return
	}
	for i, abbr := range monthAbbrevs {
		if style == MonthAbbrv {
			macros[abbr] = monthAbbrvDisplay[i]
		} else {
			macros[abbr] = capitalizeFirst(monthFullNames[i])
		}
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, w := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[w:]
}

// Database is an ordered mapping from entry key to Entry (component
// D). Its zero value is not usable; obtain one from Parser.Finalize.
type Database struct {
	order    []*Entry
	index    map[string]*Entry
	preamble string
}

// Lookup returns the entry with the given key, compared case-
// sensitively, per §4.2.
func (db *Database) Lookup(key string) (*Entry, bool) {
	e, ok := db.index[key]
	return e, ok
}

// Len returns the number of entries in the database.
func (db *Database) Len() int { return len(db.order) }

// Entries returns every entry in insertion order.
func (db *Database) Entries() []*Entry {
	return append([]*Entry(nil), db.order...)
}

// Preamble returns the concatenation of every @preamble command's
// value, in the order encountered.
func (db *Database) Preamble() string { return db.preamble }

// NewDatabase builds a Database directly from a slice of entries, in
// the given order, with the given preamble text. It's used by the
// collection-level operations in collection.go to produce derived
// databases (a split by entry type, a deduplicated union) without
// going back through a Parser, and is exported for callers that build
// or filter entries themselves.
func NewDatabase(entries []*Entry, preamble string) *Database {
	db := &Database{
		order:    append([]*Entry(nil), entries...),
		index:    make(map[string]*Entry, len(entries)),
		preamble: preamble,
	}
	for _, e := range db.order {
		db.index[e.Key] = e
	}
	return db
}

// ResolveCrossref implements §4.2: it returns a new Entry with every
// field present in the crossref target and absent from e added, using
// the target's raw value and position, and the crossref field itself
// removed. If e has no crossref field, e is returned unchanged. If the
// target key is missing, a diagnostic is issued to diag and e is
// returned with only its crossref field removed.
//
// Resolution is one hop only: the returned Entry never itself carries
// a crossref field, so resolving it again is a no-op, which is what
// makes ResolveCrossref idempotent per §8.
func (db *Database) ResolveCrossref(e *Entry, diag Sink) *Entry {
	if diag == nil {
		diag = DiscardSink
	}
	ref, ok := e.Field("crossref")
	if !ok {
		return e
	}
	target, found := db.Lookup(ref)
	if !found {
		diag.Diagnose(Diagnostic{Severity: SeverityWarning, Pos: e.Pos,
			Message: fmt.Sprintf("crossref target %q not found", ref)})
		return e.copyExcluding("crossref")
	}
	return e.mergeCrossref(target)
}
