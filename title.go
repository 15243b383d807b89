package bibtex

import (
	"strings"
	"unicode/utf8"
)

// This file is component F, the title caser: re-cases a field value
// under BibTeX's `t` (title) format rules, §4.4.

func isSentenceEndPunct(r rune) bool {
	return r == ':' || r == '.' || r == '?' || r == '!'
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }

// TitleCase re-cases value the way BibTeX's title-casing format does:
// letters are lowercased outside brace-groups at depth 0, except for
// the very first letter of the field and any letter immediately
// following sentence-ending punctuation and whitespace. Brace-groups
// preserve their contents verbatim, unless the group is a "special" —
// one beginning with a TeX control sequence — in which case the
// special's own argument is recursively title-cased. pos anchors any
// diagnostics TexToUnicode-style helpers might need; TitleCase itself
// never emits diagnostics, since every input is well-formed once it
// reaches this stage (unbalanced braces are a lex error caught by the
// parser, not something the caser needs to re-diagnose).
func TitleCase(value string, pos Position, diag Sink) string {
	return titleCase(value, true)
}

// titleCase re-cases s at depth 0. capFirst indicates whether the
// very next letter encountered should retain its original case,
// exactly as if it were the first letter of the whole field.
func titleCase(s string, capFirst bool) string {
	var b strings.Builder
	capNext := capFirst
	afterEndPunct := false
	i := 0
	for i < len(s) {
		if s[i] == '{' {
			content, next := scanBraceGroup(s, i)
			b.WriteByte('{')
			b.WriteString(titleCaseGroup(content))
			b.WriteByte('}')
			i = next
			capNext = false
			afterEndPunct = false
			continue
		}

		r, w := utf8.DecodeRuneInString(s[i:])
		if isSpace(r) {
			b.WriteRune(r)
			if afterEndPunct {
				capNext = true
				afterEndPunct = false
			}
			i += w
			continue
		}

		afterEndPunct = false
		switch {
		case capNext && (isASCIIUpper(r) || isASCIILower(r)):
			b.WriteRune(r)
			capNext = false
		case isASCIIUpper(r):
			b.WriteRune(lower(r))
		default:
			b.WriteRune(r)
		}
		if isSentenceEndPunct(r) {
			afterEndPunct = true
		}
		i += w
	}
	return b.String()
}

// titleCaseGroup handles the contents of a single {...} group found at
// depth 0: if it's a special (begins with a control sequence), its
// argument is recursively title-cased at depth 0; otherwise the
// content is preserved byte-for-byte.
func titleCaseGroup(content string) string {
	if !strings.HasPrefix(content, `\`) {
		return content
	}
	name, next := scanControlSequence(content, 0)
	arg := content[next:]
	return `\` + name + titleCase(arg, true)
}
