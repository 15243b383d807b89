package bibtex

import (
	"fmt"
	"io"
	"strings"
)

// This file is component C, the .bib parser: it tokenizes and parses
// the grammar of §6.1, executes @string and @preamble commands, and
// de-duplicates keys. See doc.go for the grammar itself.

// MonthStyle selects how the twelve month macros are seeded into a
// fresh Parser, mirroring the three seeding modes of
// original_source/biblib/bib.py's month_style parameter.
type MonthStyle int8

const (
	MonthFull MonthStyle = iota
	MonthAbbrv
	MonthNone
)

// Options configures a Parser.
type Options struct {
	// MonthStyle selects how the month macros (jan..dec) are seeded.
	// The zero value is MonthFull.
	MonthStyle MonthStyle
	// MaxErrors bounds how many error-severity diagnostics a Parser
	// will buffer before it stops attempting to recover and instead
	// abandons the rest of the current stream. Zero means unbounded.
	MaxErrors int
}

// Parser accumulates macros and entries across one or more calls to
// Parse, and produces a Database from Finalize. A Parser is not safe
// for concurrent use (§5).
type Parser struct {
	sink   Sink
	opts   Options
	macros map[string]string
	order  []*Entry
	byKey  map[string]*Entry // lower-cased key -> entry, for dup detection
	pre    strings.Builder
	errs   []Diagnostic
}

// NewParser creates a Parser that reports diagnostics to sink (a nil
// sink is treated as DiscardSink) and seeds its macro table according
// to opts.
func NewParser(sink Sink, opts Options) *Parser {
	if sink == nil {
		sink = DiscardSink
	}
	p := &Parser{
		sink:   sink,
		opts:   opts,
		macros: make(map[string]string),
		byKey:  make(map[string]*Entry),
	}
	seedMonths(p.macros, opts.MonthStyle)
	return p
}

func (p *Parser) diagnose(sev Severity, pos Position, format string, args ...any) {
	d := Diagnostic{Severity: sev, Pos: pos, Message: fmt.Sprintf(format, args...)}
	if sev == SeverityError {
		p.errs = append(p.errs, d)
	}
	p.sink.Diagnose(d)
}

func (p *Parser) errorBudgetExceeded() bool {
	return p.opts.MaxErrors > 0 && len(p.errs) >= p.opts.MaxErrors
}

// String declares a macro exactly as an @string command would,
// letting callers seed additional macros (beyond the month table)
// before parsing.
func (p *Parser) String(name, value string) {
	p.macros[strings.ToLower(name)] = value
}

// Parse reads and parses the entirety of r as one .bib input stream
// named name (used only for diagnostic positions), appending its
// entries and macros to the Parser's accumulated state. It returns a
// non-nil error only if r itself could not be read; malformed .bib
// syntax is reported through the Sink given to NewParser and does not
// stop Parse from continuing to the next top-level '@' (§4.1).
//
// Parse may be called more than once, in which case each call sees
// the macros and duplicate-key state left by prior calls, per §5
// ("sequential and preserves across-stream ordering").
func (p *Parser) Parse(r io.Reader, name string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("bibtex: reading %s: %w", name, err)
	}
	s := string(data)
	file := NewFile(name, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			file.AddLine(i + 1)
		}
	}
	fp := &fileParser{p: p, file: file, s: s}
	fp.run()
	return nil
}

// Finalize checks for buffered diagnostics and returns the resulting
// Database. If any SeverityError diagnostic was logged during
// parsing, it returns a non-nil *FatalError alongside the database
// built from everything that did parse successfully (§4.1, §7).
func (p *Parser) Finalize() (*Database, error) {
	db := &Database{
		order:    append([]*Entry(nil), p.order...),
		index:    make(map[string]*Entry, len(p.order)),
		preamble: p.pre.String(),
	}
	for _, e := range db.order {
		db.index[e.Key] = e
	}
	if len(p.errs) == 0 {
		return db, nil
	}
	errs := make([]error, len(p.errs))
	for i, d := range p.errs {
		errs[i] = d
	}
	return db, &FatalError{Diagnostics: errs}
}

// fileParser holds the transient scanning state for a single call to
// Parse. It directly manipulates s and pos; everything else goes
// through p.
type fileParser struct {
	p    *Parser
	file *File
	s    string
	pos  int
}

func isDigitByte(c byte) bool { return '0' <= c && c <= '9' }

func isIdentChar(c byte) bool {
	if c < 0x20 || c > 0x7f {
		return false
	}
	switch c {
	case ' ', '\t', '"', '#', '%', '\'', '(', ')', ',', '=', '{', '}':
		return false
	}
	return true
}

func (fp *fileParser) skipSpace() {
	for fp.pos < len(fp.s) {
		switch fp.s[fp.pos] {
		case ' ', '\t', '\n':
			fp.pos++
		default:
			return
		}
	}
}

// scanIdent scans a §6.1 ident: a non-empty run of isIdentChar bytes
// whose first byte is not an ASCII digit.
func (fp *fileParser) scanIdent() (string, bool) {
	start := fp.pos
	if start >= len(fp.s) || !isIdentChar(fp.s[start]) || isDigitByte(fp.s[start]) {
		return "", false
	}
	i := start + 1
	for i < len(fp.s) && isIdentChar(fp.s[i]) {
		i++
	}
	fp.pos = i
	return fp.s[start:i], true
}

func (fp *fileParser) expectByte(b byte) bool {
	if fp.pos < len(fp.s) && fp.s[fp.pos] == b {
		fp.pos++
		return true
	}
	return false
}

// run drives the top-level bib_db production: comment (command_or_entry
// comment)*, resynchronizing to the next '@' whenever a malformed
// entry is encountered, per §4.1.
func (fp *fileParser) run() {
	for {
		if fp.p.errorBudgetExceeded() {
			return
		}
		idx := strings.IndexByte(fp.s[fp.pos:], '@')
		if idx < 0 {
			return
		}
		fp.pos += idx
		atPos := fp.pos
		fp.pos++ // consume '@'
		fp.parseCommandOrEntry(atPos)
	}
}

func (fp *fileParser) parseCommandOrEntry(atPos int) {
	fp.skipSpace()
	typ, ok := fp.scanIdent()
	if !ok {
		fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected an identifier after '@'")
		return
	}
	fp.skipSpace()
	switch strings.ToLower(typ) {
	case "comment":
		// §4.1: BibTeX consumes only the keyword; the rest is
		// inter-entry noise until the next top-level '@'.
		return
	case "preamble":
		fp.parsePreamble()
	case "string":
		fp.parseString()
	default:
		fp.parseEntry(strings.ToLower(typ), atPos)
	}
}

func (fp *fileParser) expectOpenDelim() (close byte, ok bool) {
	if fp.pos >= len(fp.s) {
		fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected '{' or '(' after entry type")
		return 0, false
	}
	switch fp.s[fp.pos] {
	case '{':
		fp.pos++
		return '}', true
	case '(':
		fp.pos++
		return ')', true
	default:
		fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected '{' or '(' after entry type")
		return 0, false
	}
}

func (fp *fileParser) parsePreamble() {
	close, ok := fp.expectOpenDelim()
	if !ok {
		return
	}
	fp.skipSpace()
	val, ok := fp.scanValue()
	if !ok {
		return
	}
	fp.skipSpace()
	if !fp.expectByte(close) {
		fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected closing %q", string(close))
		return
	}
	fp.p.pre.WriteString(val)
}

func (fp *fileParser) parseString() {
	close, ok := fp.expectOpenDelim()
	if !ok {
		return
	}
	fp.skipSpace()
	name, ok := fp.scanIdent()
	if !ok {
		fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected a macro name")
		return
	}
	fp.skipSpace()
	if !fp.expectByte('=') {
		fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected '=' after macro name")
		return
	}
	fp.skipSpace()
	val, ok := fp.scanValue()
	if !ok {
		return
	}
	fp.skipSpace()
	if !fp.expectByte(close) {
		fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected closing %q", string(close))
		return
	}
	// §4.1: redefinition is allowed and silently overwrites.
	fp.p.macros[strings.ToLower(name)] = val
}

func (fp *fileParser) parseEntry(typ string, atPos int) {
	pos := fp.file.Pos(atPos)
	close, ok := fp.expectOpenDelim()
	if !ok {
		return
	}
	var key string
	if close == '}' {
		key = fp.scanKey(func(c byte) bool {
			return c == ',' || c == ' ' || c == '\t' || c == '}' || c == '\n'
		})
	} else {
		key = fp.scanKey(func(c byte) bool {
			return c == ',' || c == ' ' || c == '\t' || c == '\n'
		})
	}
	fp.skipSpace()

	var fields []Field
	fieldPos := make(map[string]Position)
	seen := make(map[string]bool)
	for {
		if fp.expectByte(close) {
			break
		}
		if !fp.expectByte(',') {
			fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected ',' or closing delimiter")
			return
		}
		fp.skipSpace()
		if fp.expectByte(close) {
			break
		}

		fieldStart := fp.pos
		fname, ok := fp.scanIdent()
		if !ok {
			fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected a field name")
			return
		}
		fp.skipSpace()
		if !fp.expectByte('=') {
			fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected '=' after field name %q", fname)
			return
		}
		fp.skipSpace()
		valStart := fp.pos
		val, ok := fp.scanValue()
		if !ok {
			return
		}
		fp.skipSpace()

		lowName := strings.ToLower(fname)
		if seen[lowName] {
			fp.p.diagnose(SeverityWarning, fp.file.Pos(fieldStart), "duplicate field %q; first occurrence kept", lowName)
			continue
		}
		seen[lowName] = true
		fields = append(fields, Field{Name: lowName, Value: val})
		fieldPos[lowName] = fp.file.Pos(valStart)
	}

	lowKey := strings.ToLower(key)
	if existing, dup := fp.p.byKey[lowKey]; dup {
		// A duplicate key is reported as an error, not a warning: §8's
		// concrete scenario is explicit that this case makes Finalize
		// fatal, which only an error-severity diagnostic does.
		fp.p.diagnose(SeverityError, pos, "duplicate key %q; first defined at %s", key, existing.Pos)
		return
	}
	entry := newEntry(typ, key, pos, fields, fieldPos)
	fp.p.byKey[lowKey] = entry
	fp.p.order = append(fp.p.order, entry)
}

func (fp *fileParser) scanKey(stop func(byte) bool) string {
	start := fp.pos
	for fp.pos < len(fp.s) && !stop(fp.s[fp.pos]) {
		fp.pos++
	}
	return fp.s[start:fp.pos]
}

// scanValue scans a §6.1 value: piece (ws '#' ws piece)*.
func (fp *fileParser) scanValue() (string, bool) {
	var b strings.Builder
	piece, ok := fp.scanPiece()
	if !ok {
		return "", false
	}
	b.WriteString(piece)
	for {
		save := fp.pos
		fp.skipSpace()
		if !fp.expectByte('#') {
			fp.pos = save
			break
		}
		fp.skipSpace()
		piece, ok := fp.scanPiece()
		if !ok {
			return "", false
		}
		b.WriteString(piece)
	}
	return b.String(), true
}

// scanPiece scans a single §6.1 piece: a run of digits, a brace
// group, a quoted string, or a macro reference.
func (fp *fileParser) scanPiece() (string, bool) {
	if fp.pos < len(fp.s) && isDigitByte(fp.s[fp.pos]) {
		start := fp.pos
		for fp.pos < len(fp.s) && isDigitByte(fp.s[fp.pos]) {
			fp.pos++
		}
		return fp.s[start:fp.pos], true
	}
	if fp.pos < len(fp.s) && fp.s[fp.pos] == '{' {
		return fp.scanBalanced('{', '}')
	}
	if fp.pos < len(fp.s) && fp.s[fp.pos] == '"' {
		return fp.scanQuoted()
	}
	identStart := fp.pos
	ident, ok := fp.scanIdent()
	if !ok {
		fp.p.diagnose(SeverityError, fp.file.Pos(fp.pos), "expected a string, number, or macro name")
		return "", false
	}
	low := strings.ToLower(ident)
	val, found := fp.p.macros[low]
	if !found {
		fp.p.diagnose(SeverityWarning, fp.file.Pos(identStart), "undefined macro %q", ident)
		return "", true
	}
	return val, true
}

// scanBalanced scans a brace-balanced group starting at fp.s[fp.pos]
// == open, returning its interior (braces stripped, interior braces
// retained byte-for-byte) and advancing past the matching close.
func (fp *fileParser) scanBalanced(open, close byte) (string, bool) {
	start := fp.pos
	depth := 0
	i := fp.pos
	for i < len(fp.s) {
		switch fp.s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				content := fp.s[start+1 : i]
				fp.pos = i + 1
				return content, true
			}
		}
		i++
	}
	fp.p.diagnose(SeverityError, fp.file.Pos(start), "unterminated %q", string(open))
	fp.pos = len(fp.s)
	return "", false
}

// scanQuoted scans a double-quoted string starting at fp.s[fp.pos] ==
// '"'. A '"' at brace-depth 0 inside terminates the string; interior
// braces must balance.
func (fp *fileParser) scanQuoted() (string, bool) {
	start := fp.pos
	depth := 0
	i := fp.pos + 1
	for i < len(fp.s) {
		switch fp.s[i] {
		case '"':
			if depth == 0 {
				content := fp.s[start+1 : i]
				fp.pos = i + 1
				return content, true
			}
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		i++
	}
	fp.p.diagnose(SeverityError, fp.file.Pos(start), "unterminated quoted string")
	fp.pos = len(fp.s)
	return "", false
}
