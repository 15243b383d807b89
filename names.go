package bibtex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// This file is component E, the name parser: splits an author/editor
// field into BibTeX's four name parts under the comma-count and
// case-classification rules of §4.3.

// Name is a single parsed name, one of possibly several in an
// author/editor field. Empty parts are empty strings, never absent.
type Name struct {
	First string
	Von   string
	Last  string
	Jr    string
}

type caseClass int8

const (
	classCaseless caseClass = iota
	classUpper
	classLower
)

type wordToken struct {
	text  string
	class caseClass
}

// wordSpan is a maximal run of non-whitespace bytes at brace-depth 0.
type wordSpan struct{ start, end int }

// wordSpans splits s into brace-depth-0 whitespace-delimited spans.
// Whitespace inside a {...} group, however deeply nested, is not a
// boundary.
func wordSpans(s string) []wordSpan {
	var spans []wordSpan
	depth := 0
	start := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		isSpace := depth == 0 && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n')
		if isSpace {
			if start >= 0 {
				spans = append(spans, wordSpan{start, i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, wordSpan{start, len(s)})
	}
	return spans
}

// splitTopLevelComma splits s on commas at brace-depth 0.
func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// joinWords collapses the whitespace in s to single spaces, per the
// output rule in §4.3 ("whitespace within a part is collapsed to
// single spaces; braces are retained").
func joinWords(s string) string {
	spans := wordSpans(s)
	words := make([]string, len(spans))
	for i, sp := range spans {
		words[i] = s[sp.start:sp.end]
	}
	return strings.Join(words, " ")
}

// classifyToken computes the case classification of a word token's
// first classifiable letter, per §4.3.
func classifyToken(token string) caseClass {
	i := 0
	for i < len(token) {
		if token[i] == '{' {
			content, next := scanBraceGroup(token, i)
			if strings.HasPrefix(content, `\`) {
				if r, ok := FirstLetter(content); ok {
					switch {
					case unicode.IsUpper(r):
						return classUpper
					case unicode.IsLower(r):
						return classLower
					}
				}
			}
			i = next
			continue
		}
		r, w := utf8.DecodeRuneInString(token[i:])
		switch {
		case isASCIIUpper(r):
			return classUpper
		case isASCIILower(r):
			return classLower
		}
		i += w
	}
	return classCaseless
}

// tokenizeWords splits s into classified word tokens at brace-depth 0.
func tokenizeWords(s string) []wordToken {
	spans := wordSpans(s)
	toks := make([]wordToken, len(spans))
	for i, sp := range spans {
		text := s[sp.start:sp.end]
		toks[i] = wordToken{text: text, class: classifyToken(text)}
	}
	return toks
}

func joinTokens(toks []wordToken) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}

// splitNameList splits a full author/editor field into its
// individual, still-unparsed names, on the literal word "and" at
// brace-depth 0 (case-insensitive), per §4.3.
func splitNameList(s string) []string {
	spans := wordSpans(s)
	var names []string
	segStart, segEnd := -1, -1
	flush := func() {
		if segStart >= 0 {
			names = append(names, s[segStart:segEnd])
		}
		segStart, segEnd = -1, -1
	}
	for _, sp := range spans {
		word := s[sp.start:sp.end]
		if strings.EqualFold(word, "and") {
			flush()
			continue
		}
		if segStart < 0 {
			segStart = sp.start
		}
		segEnd = sp.end
	}
	flush()
	return names
}

// ParseNames splits value into an ordered sequence of Name records,
// per component E. pos and diag are used to report the one
// diagnosable condition in this component: a name with three or more
// commas (§4.3, §7).
func ParseNames(value string, pos Position, diag Sink) []Name {
	if diag == nil {
		diag = DiscardSink
	}
	raw := strings.TrimSpace(value)
	if raw == "" {
		return nil
	}
	rawNames := splitNameList(raw)
	names := make([]Name, 0, len(rawNames))
	for _, rn := range rawNames {
		names = append(names, parseOneName(rn, pos, diag))
	}
	return names
}

func parseOneName(s string, pos Position, diag Sink) Name {
	groups := splitTopLevelComma(s)
	vonLast := tokenizeWords(groups[0])
	von, last := splitVonLast(vonLast)

	switch len(groups) {
	case 1:
		// 0 commas: First von Last.
		first, von2, last2 := splitFirstVonLast(vonLast)
		return Name{First: joinTokens(first), Von: joinTokens(von2), Last: joinTokens(last2)}
	case 2:
		return Name{
			Von:   joinTokens(von),
			Last:  joinTokens(last),
			First: joinWords(groups[1]),
		}
	case 3:
		return Name{
			Von:   joinTokens(von),
			Last:  joinTokens(last),
			Jr:    joinWords(groups[1]),
			First: joinWords(groups[2]),
		}
	default:
		diag.Diagnose(Diagnostic{Severity: SeverityWarning, Pos: pos,
			Message: "name has more than two commas"})
		middle := make([]string, 0, len(groups)-2)
		for _, g := range groups[1 : len(groups)-1] {
			middle = append(middle, joinWords(g))
		}
		return Name{
			Von:   joinTokens(von),
			Last:  joinTokens(last),
			Jr:    strings.Join(middle, ", "),
			First: joinWords(groups[len(groups)-1]),
		}
	}
}

// splitFirstVonLast partitions the word tokens of a comma-less name
// into First, von, and Last, per the "0 commas" rule of §4.3.
func splitFirstVonLast(toks []wordToken) (first, von, last []wordToken) {
	n := len(toks)
	firstLower, lastLower := -1, -1
	for i := 0; i < n-1; i++ {
		if toks[i].class == classLower {
			if firstLower == -1 {
				firstLower = i
			}
			lastLower = i
		}
	}
	if firstLower == -1 {
		return toks[:n-1], nil, toks[n-1:]
	}
	return toks[:firstLower], toks[firstLower : lastLower+1], toks[lastLower+1:]
}

// splitVonLast partitions the word tokens preceding the first comma
// into von and Last, per the "1 comma"/"2 comma" rule of §4.3: the
// leading run of lower-classified tokens is von, the rest is Last.
func splitVonLast(toks []wordToken) (von, last []wordToken) {
	i := 0
	for i < len(toks) && toks[i].class == classLower {
		i++
	}
	return toks[:i], toks[i:]
}
