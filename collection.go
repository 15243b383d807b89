package bibtex

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// This file adapts the set-operation conveniences the teacher carried
// (Deduplicate, FixKeys, NewCiteKey, Split) to operate on *Database
// and *Entry rather than a bare parse tree. They sit one layer above
// the core: none of them touch a Parser or change how an Entry's
// fields are interpreted, they only compare and rearrange entries
// already produced by Finalize.

// SetAction selects what Deduplicate does with the groups it finds,
// beyond just reporting them.
type SetAction int8

const (
	// SetNoAction only produces a DedupReport; no result Database.
	SetNoAction SetAction = iota
	// SetIntersect keeps one entry from every group with more than one
	// member (entries that occur at least twice, whether within one
	// input database or across several).
	SetIntersect
	// SetUnion keeps one entry from every group, duplicate or not.
	SetUnion
)

// DedupGroup is every entry that shared the same dedup index.
type DedupGroup struct {
	Index   string
	Entries []*Entry
}

// DedupReport summarizes a Deduplicate call.
type DedupReport struct {
	Groups         []DedupGroup
	DuplicateCount int
}

func (r *DedupReport) String() string {
	if r == nil || r.DuplicateCount == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d duplicate sets found\n", r.DuplicateCount)
	for _, g := range r.Groups {
		if len(g.Entries) <= 1 {
			continue
		}
		fmt.Fprintf(&b, "%s\n[%s] has %d occurrences:\n", strings.Repeat("*", 60), g.Index, len(g.Entries))
		for _, e := range g.Entries {
			fmt.Fprintf(&b, "%s (%s)\n", e.Key, e.Pos)
		}
	}
	return b.String()
}

// dedupIndex computes the grouping key for e: the concatenation of
// fieldNames' values (ASCII-alphanumeric only, lowercased), with the
// citation key appended verbatim whenever fieldNames is empty or
// explicitly names "citekey".
func dedupIndex(e *Entry, fieldNames []string) string {
	hasFields := len(fieldNames) > 0
	citekey := !hasFields || slices.Contains(fieldNames, "citekey")
	var b strings.Builder
	for _, name := range fieldNames {
		v, _ := e.Field(name)
		b.WriteString(v)
	}
	idx := onlyASCIIAlphaNumeric(b.String())
	if citekey {
		idx += e.Key
	}
	return idx
}

// Deduplicate groups the entries of one or more databases by
// dedupIndex(fieldNames) and, depending on action, returns a result
// Database built from those groups: SetIntersect keeps one entry from
// every group with more than one member, SetUnion keeps one entry from
// every group. SetNoAction returns only the report.
func Deduplicate(dbs []*Database, fieldNames []string, action SetAction) (*Database, *DedupReport, error) {
	if len(dbs) == 0 {
		return nil, nil, fmt.Errorf("bibtex: nothing to deduplicate")
	}
	byIndex := make(map[string][]*Entry)
	var order []string
	for _, db := range dbs {
		for _, e := range db.Entries() {
			idx := dedupIndex(e, fieldNames)
			if _, seen := byIndex[idx]; !seen {
				order = append(order, idx)
			}
			byIndex[idx] = append(byIndex[idx], e)
		}
	}
	report := &DedupReport{Groups: make([]DedupGroup, 0, len(order))}
	for _, idx := range order {
		group := byIndex[idx]
		if len(group) > 1 {
			report.DuplicateCount++
		}
		report.Groups = append(report.Groups, DedupGroup{Index: idx, Entries: group})
	}
	switch action {
	case SetNoAction:
		return nil, report, nil
	case SetIntersect:
		if report.DuplicateCount == 0 {
			return nil, report, fmt.Errorf("bibtex: no common entries")
		}
		var result []*Entry
		for _, g := range report.Groups {
			if len(g.Entries) > 1 {
				result = append(result, g.Entries[0])
			}
		}
		return NewDatabase(result, ""), report, nil
	case SetUnion:
		result := make([]*Entry, 0, len(report.Groups))
		for _, g := range report.Groups {
			result = append(result, g.Entries[0])
		}
		return NewDatabase(result, ""), report, nil
	default:
		return nil, nil, fmt.Errorf("bibtex: invalid set action")
	}
}

// ValidKeys reports whether every entry in db has a key and all keys
// are unique.
func ValidKeys(db *Database) bool {
	for _, e := range db.order {
		if e.Key == "" {
			return false
		}
	}
	_, report, err := Deduplicate([]*Database{db}, nil, SetNoAction)
	if err != nil {
		return true // only failure mode is "nothing to deduplicate"
	}
	return report.DuplicateCount == 0
}

// NewCiteKey generates a citation key from the last name of the first
// author, the publication year, the first word of the title, the
// first letter of the entry type, and the pages or volume field.
func NewCiteKey(e *Entry) string {
	var sb strings.Builder
	last := "x"
	if authors := e.Authors(DiscardSink); len(authors) > 0 && authors[0].Last != "" {
		last = authors[0].Last
	}
	sb.WriteString(strings.ToLower(onlyASCIIAlphaNumeric(last)))
	year, _ := e.Field("year")
	sb.WriteString(year)
	title, _ := e.Field("title")
	word, _, _ := strings.Cut(strings.TrimSpace(title), " ")
	sb.WriteString(strings.ToLower(onlyASCIIAlphaNumeric(word)))
	if e.Type != "" {
		sb.WriteByte(e.Type[0])
	} else {
		sb.WriteByte('x')
	}
	pages, _ := e.Field("pages")
	volume, _ := e.Field("volume")
	sb.WriteString(pages + volume)
	return sb.String()
}

// FixKeys returns a Database in which every entry either kept its
// existing key or, when all is set (or the key was empty), got a new
// one: dedupIndex of fieldNames if given (their values concatenated
// and reduced to lowercase ASCII letters and digits), or
// NewCiteKey's standard algorithm otherwise. Any keys left colliding
// after that pass get a trailing a/b/c... suffix.
func FixKeys(db *Database, fieldNames []string, all bool) (*Database, *DedupReport, error) {
	useStd := len(fieldNames) == 0
	entries := make([]*Entry, len(db.order))
	for i, e := range db.order {
		key := e.Key
		if all || key == "" {
			if useStd {
				key = NewCiteKey(e)
			} else {
				key = dedupIndex(e, fieldNames)
			}
		}
		entries[i] = e.withKey(key)
	}

	posByEntry := make(map[*Entry]int, len(entries))
	for i, e := range entries {
		posByEntry[e] = i
	}
	result := NewDatabase(entries, db.preamble)
	_, report, err := Deduplicate([]*Database{result}, nil, SetNoAction)
	if err != nil || report.DuplicateCount == 0 {
		return result, nil, err
	}
	for _, g := range report.Groups {
		if len(g.Entries) <= 1 {
			continue
		}
		// TODO: wraps past 'z' for a group with more than 27 members.
		for i := 1; i < len(g.Entries); i++ {
			old := g.Entries[i]
			suffixed := old.withKey(old.Key + string(rune('a'+i-1)))
			if pos, ok := posByEntry[old]; ok {
				entries[pos] = suffixed
			}
		}
	}
	return NewDatabase(entries, db.preamble), report, nil
}

// Sort returns a copy of db's entries ordered according to by. Only
// "type,-year" is implemented, sorting by entry type and then by
// descending year (entries with a non-numeric or absent year sort
// last within their type), matching the one sort order the teacher's
// own tooling actually used.
func Sort(db *Database, by string) (*Database, error) {
	if db.Len() == 0 {
		return nil, fmt.Errorf("bibtex: nothing to sort")
	}
	if by != "type,-year" {
		return nil, fmt.Errorf("bibtex: sort order %q not implemented", by)
	}
	entries := db.Entries()
	slices.SortFunc(entries, func(a, b *Entry) int {
		if a.Type != b.Type {
			return strings.Compare(a.Type, b.Type)
		}
		ay, aok := yearOf(a)
		yb, bok := yearOf(b)
		switch {
		case aok && bok:
			return yb - ay // descending
		case aok:
			return -1
		case bok:
			return 1
		default:
			return 0
		}
	})
	return NewDatabase(entries, db.preamble), nil
}

func yearOf(e *Entry) (int, bool) {
	v, ok := e.Field("year")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Split partitions db into one Database per entry type.
func Split(db *Database) map[string]*Database {
	groups := make(map[string][]*Entry)
	var order []string
	for _, e := range db.Entries() {
		if _, ok := groups[e.Type]; !ok {
			order = append(order, e.Type)
		}
		groups[e.Type] = append(groups[e.Type], e)
	}
	res := make(map[string]*Database, len(groups))
	for _, typ := range order {
		res[typ] = NewDatabase(groups[typ], "")
	}
	return res
}
