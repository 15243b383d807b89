package bibtex

import (
	"strings"
	"unicode/utf8"
)

// This file is component G: the TeX → Unicode translator. It also
// exposes the letter-classification hook that the name parser (E) and
// title caser (F) use to decide whether a brace-group or control
// sequence exposes a letter, per §4.5.

// accentTable maps an accent identifier (one of the names accepted by
// isAccentIdent) and a base rune to the resulting
// accented rune. It only covers the base letters that actually occur
// in bibliographic text; combinations outside the table fall back to
// the bare base letter plus a diagnostic, per §4.5.
var accentTable = map[string]map[rune]rune{
	"`": { // grave
		'a': 'à', 'e': 'è', 'i': 'ì', 'o': 'ò', 'u': 'ù', 'n': 'ǹ', 'y': 'ỳ',
		'A': 'À', 'E': 'È', 'I': 'Ì', 'O': 'Ò', 'U': 'Ù', 'N': 'Ǹ', 'Y': 'Ỳ',
	},
	"'": { // acute
		'a': 'á', 'e': 'é', 'i': 'í', 'o': 'ó', 'u': 'ú', 'y': 'ý', 'c': 'ć',
		'n': 'ń', 's': 'ś', 'z': 'ź', 'l': 'ĺ', 'r': 'ŕ',
		'A': 'Á', 'E': 'É', 'I': 'Í', 'O': 'Ó', 'U': 'Ú', 'Y': 'Ý', 'C': 'Ć',
		'N': 'Ń', 'S': 'Ś', 'Z': 'Ź', 'L': 'Ĺ', 'R': 'Ŕ',
	},
	"^": { // circumflex
		'a': 'â', 'e': 'ê', 'i': 'î', 'o': 'ô', 'u': 'û', 'c': 'ĉ', 'g': 'ĝ',
		'h': 'ĥ', 'j': 'ĵ', 's': 'ŝ', 'w': 'ŵ', 'y': 'ŷ',
		'A': 'Â', 'E': 'Ê', 'I': 'Î', 'O': 'Ô', 'U': 'Û', 'C': 'Ĉ', 'G': 'Ĝ',
		'H': 'Ĥ', 'J': 'Ĵ', 'S': 'Ŝ', 'W': 'Ŵ', 'Y': 'Ŷ',
	},
	`"`: { // umlaut / diaeresis
		'a': 'ä', 'e': 'ë', 'i': 'ï', 'o': 'ö', 'u': 'ü', 'y': 'ÿ',
		'A': 'Ä', 'E': 'Ë', 'I': 'Ï', 'O': 'Ö', 'U': 'Ü', 'Y': 'Ÿ',
	},
	"~": { // tilde
		'a': 'ã', 'n': 'ñ', 'o': 'õ', 'i': 'ĩ', 'u': 'ũ',
		'A': 'Ã', 'N': 'Ñ', 'O': 'Õ', 'I': 'Ĩ', 'U': 'Ũ',
	},
	"=": { // macron
		'a': 'ā', 'e': 'ē', 'i': 'ī', 'o': 'ō', 'u': 'ū',
		'A': 'Ā', 'E': 'Ē', 'I': 'Ī', 'O': 'Ō', 'U': 'Ū',
	},
	".": { // dot above
		'c': 'ċ', 'e': 'ė', 'g': 'ġ', 'z': 'ż', 'a': 'ȧ', 'o': 'ȯ', 'i': 'ı',
		'C': 'Ċ', 'E': 'Ė', 'G': 'Ġ', 'Z': 'Ż', 'A': 'Ȧ', 'O': 'Ȯ', 'I': 'İ',
	},
	"u": { // breve
		'a': 'ă', 'e': 'ĕ', 'g': 'ğ', 'i': 'ĭ', 'o': 'ŏ', 'u': 'ŭ',
		'A': 'Ă', 'E': 'Ĕ', 'G': 'Ğ', 'I': 'Ĭ', 'O': 'Ŏ', 'U': 'Ŭ',
	},
	"v": { // caron
		'c': 'č', 's': 'š', 'z': 'ž', 'e': 'ě', 'r': 'ř', 'n': 'ň', 'd': 'ď',
		't': 'ť', 'l': 'ľ', 'g': 'ǧ',
		'C': 'Č', 'S': 'Š', 'Z': 'Ž', 'E': 'Ě', 'R': 'Ř', 'N': 'Ň', 'D': 'Ď',
		'T': 'Ť', 'L': 'Ľ', 'G': 'Ǧ',
	},
	"H": { // double acute
		'o': 'ő', 'u': 'ű', 'O': 'Ő', 'U': 'Ű',
	},
	"c": { // cedilla
		'c': 'ç', 's': 'ş', 't': 'ţ', 'g': 'ģ', 'k': 'ķ', 'l': 'ļ', 'n': 'ņ',
		'r': 'ŗ',
		'C': 'Ç', 'S': 'Ş', 'T': 'Ţ', 'G': 'Ģ', 'K': 'Ķ', 'L': 'Ļ', 'N': 'Ņ',
		'R': 'Ŗ',
	},
	"d": { // dot below
		'u': 'ụ', 'o': 'ọ', 'a': 'ạ', 'e': 'ẹ', 'i': 'ị',
		'U': 'Ụ', 'O': 'Ọ', 'A': 'Ạ', 'E': 'Ẹ', 'I': 'Ị',
	},
	"b": { // bar/macron below
		'o': 'o', 'b': 'ḇ', 'l': 'ḻ', 'r': 'ṟ',
	},
	"r": { // ring above
		'a': 'å', 'u': 'ů', 'A': 'Å', 'U': 'Ů',
	},
	"k": { // ogonek
		'a': 'ą', 'e': 'ę', 'i': 'į', 'u': 'ų', 'o': 'ǫ',
		'A': 'Ą', 'E': 'Ę', 'I': 'Į', 'U': 'Ų', 'O': 'Ǫ',
	},
}

// isAccentIdent reports whether name (the literal spelling of a
// control sequence, without the leading backslash) identifies one of
// the accent commands listed in §4.5.
func isAccentIdent(name string) bool {
	switch name {
	case "`", "'", "^", `"`, "~", "=", ".", "u", "v", "H", "t", "c", "d", "b", "r", "k":
		return true
	}
	return false
}

// controlSymbols maps a named control symbol (without the leading
// backslash) to its Unicode replacement, per §4.5.
var controlSymbols = map[string]string{
	"oe": "œ", "OE": "Œ",
	"ae": "æ", "AE": "Æ",
	"aa": "å", "AA": "Å",
	"o": "ø", "O": "Ø",
	"l": "ł", "L": "Ł",
	"ss":        "ß",
	"i":         "ı",
	"j":         "ȷ",
	"P":         "¶",
	"S":         "§",
	"dag":       "†",
	"ddag":      "‡",
	"pounds":    "£",
	"copyright": "©",
	"dots":      "…",
	"ldots":     "…",
}

// mathSymbols maps a small set of common math-mode control sequences
// to their Unicode replacement, per §4.5.
var mathSymbols = map[string]string{
	"times": "×", "pm": "±", "mp": "∓", "cdot": "·", "div": "÷",
	"leq": "≤", "geq": "≥", "neq": "≠", "approx": "≈", "infty": "∞",
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"lambda": "λ", "mu": "μ", "pi": "π", "sigma": "σ", "phi": "φ",
	"omega": "ω", "Delta": "Δ", "Sigma": "Σ", "Omega": "Ω",
	"rightarrow": "→", "leftarrow": "←",
}

// TexToUnicode translates the TeX markup in value — accents, ligature
// and named control symbols, dashes, curly quotes, and math macros —
// into a plain Unicode string, per component G. Recognized forms are
// resolved silently; anything the translator can't resolve is emitted
// as literal text and reported to diag at pos.
func TexToUnicode(value string, pos Position, diag Sink) string {
	if diag == nil {
		diag = DiscardSink
	}
	return texTranslate(value, pos, diag)
}

func texTranslate(s string, pos Position, diag Sink) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		switch {
		case s[i] == '{':
			content, next := scanBraceGroup(s, i)
			b.WriteString(texTranslate(content, pos, diag))
			i = next

		case s[i] == '$':
			end := strings.IndexByte(s[i+1:], '$')
			if end < 0 {
				b.WriteString(texTranslateMath(s[i:], pos, diag))
				i = len(s)
			} else {
				end += i + 1
				b.WriteByte('$')
				b.WriteString(texTranslateMath(s[i+1:end], pos, diag))
				b.WriteByte('$')
				i = end + 1
			}

		case s[i] == '\\':
			out, next := texTranslateControl(s, i, pos, diag)
			b.WriteString(out)
			i = next

		case strings.HasPrefix(s[i:], "---"):
			b.WriteString("—")
			i += 3
		case strings.HasPrefix(s[i:], "--"):
			b.WriteString("–")
			i += 2
		case strings.HasPrefix(s[i:], "``"):
			b.WriteString("“")
			i += 2
		case strings.HasPrefix(s[i:], "''"):
			b.WriteString("”")
			i += 2
		case s[i] == '~':
			b.WriteString(" ")
			i++

		default:
			r, w := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += w
		}
	}
	return b.String()
}

// texTranslateControl handles a single control sequence beginning at
// s[i] == '\\', returning its replacement text and the index of the
// first byte following the whole construct (control sequence plus its
// argument, if any).
func texTranslateControl(s string, i int, pos Position, diag Sink) (string, int) {
	name, next := scanControlSequence(s, i)
	if name == "" {
		return "", next
	}
	if name == "-" {
		// \- : discretionary hyphen, silently removed.
		return "", next
	}
	if isAccentIdent(name) {
		return texApplyAccent(name, s, next, pos, diag)
	}
	if repl, ok := controlSymbols[name]; ok {
		return repl, skipBraceArg(s, next)
	}
	diag.Diagnose(Diagnostic{Severity: SeverityWarning, Pos: pos,
		Message: "unknown control sequence `\\" + name + "'"})
	return name, next
}

// texApplyAccent resolves an accent command whose identifier is
// accent and whose argument starts at s[argStart]. It returns the
// resulting text and the index following the whole construct.
func texApplyAccent(accent string, s string, argStart int, pos Position, diag Sink) (string, int) {
	arg, next, ok := scanAccentArg(s, argStart)
	if !ok {
		diag.Diagnose(Diagnostic{Severity: SeverityWarning, Pos: pos,
			Message: "accent `\\" + accent + "' is missing its argument"})
		return "", next
	}
	// \i and \j exist specifically to take an accent without the stray
	// dot a translated 'ı'/'ȷ' would otherwise carry into the lookup;
	// BibTeX always means the ASCII letter here, not the dotless form.
	var base string
	switch strings.TrimSpace(arg) {
	case `\i`:
		base = "i"
	case `\j`:
		base = "j"
	default:
		base = texTranslate(arg, pos, DiscardSink)
	}

	// \t{xy} ties two characters with a combining double inverted
	// breve (U+0361); it's
	// the one accent that takes a two-character argument.
	if accent == "t" {
		runes := []rune(base)
		if len(runes) >= 2 {
			return string(runes[0]) + "͡" + string(runes[1:]), next
		}
	}

	baseRune, w := utf8.DecodeRuneInString(base)
	if w == 0 {
		return "", next
	}
	if table, ok := accentTable[accent]; ok {
		if r, ok := table[baseRune]; ok {
			return string(r) + base[w:], next
		}
	}
	diag.Diagnose(Diagnostic{Severity: SeverityWarning, Pos: pos,
		Message: "unknown accent combination `\\" + accent + string(baseRune) + "'"})
	return base, next
}

// scanAccentArg scans the argument of an accent command starting at
// s[i]: a single brace group, a control-sequence name, or the next
// non-space character, per §4.5.
func scanAccentArg(s string, i int) (arg string, next int, ok bool) {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i >= len(s) {
		return "", i, false
	}
	switch {
	case s[i] == '{':
		content, next := scanBraceGroup(s, i)
		return content, next, true
	case s[i] == '\\':
		name, next := scanControlSequence(s, i)
		if name != "" && isControlLetter(rune(name[0])) {
			// A control word gobbles the whitespace that follows it,
			// same as everywhere else in TeX.
			next = skipBraceArg(s, next)
		}
		return "\\" + name, next, true
	default:
		r, w := utf8.DecodeRuneInString(s[i:])
		return string(r), i + w, true
	}
}

// texTranslateMath translates the contents of a $...$ span. Only the
// small set of math macros in mathSymbols is substituted; anything
// else, including unrecognized control sequences, is left completely
// literal (backslash and all), per §4.5 ("unknown math remains
// literal").
func texTranslateMath(s string, pos Position, diag Sink) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '\\' {
			name, next := scanControlSequence(s, i)
			if repl, ok := mathSymbols[name]; ok {
				b.WriteString(repl)
				i = skipBraceArg(s, next)
				continue
			}
			b.WriteString(s[i:next])
			i = next
			continue
		}
		r, w := utf8.DecodeRuneInString(s[i:])
		b.WriteRune(r)
		i += w
	}
	return b.String()
}

// FirstLetter reports the first Unicode letter that value would
// expose after TeX→Unicode translation, without emitting any
// diagnostics. This is the "letter classification hook" of §4.5, used
// by the name parser and title caser to decide whether a brace-group
// or control sequence exposes a letter, and if so, which one and in
// what case.
func FirstLetter(value string) (r rune, ok bool) {
	out := texTranslate(value, Position{}, DiscardSink)
	for _, r := range out {
		if isUnicodeLetter(r) {
			return r, true
		}
	}
	return 0, false
}
