// Package bibtex parses BibTeX bibliography databases with behavior
// faithful to the original WEB-source BibTeX program: entry and macro
// parsing, name-field splitting into First/von/Last/Jr, title-case
// re-rendering, and TeX-to-Unicode translation of accents and control
// symbols.
//
// Grammar (all literals case-insensitive):
//
//	bib_db            = comment (command_or_entry comment)*
//	comment           = [^@]*
//	command_or_entry  = '@' ws (kw_comment / preamble / string / entry)
//	preamble          = 'preamble' ws ('{' ws value ws '}' | '(' ws value ws ')')
//	string            = 'string' ws ('{' ws ident ws '=' ws value ws '}'
//	                                |'(' ws ident ws '=' ws value ws ')')
//	entry             = ident ws ('{' ws key ws body? ws '}'
//	                             |'(' ws key_paren ws body? ws ')')
//	body              = (',' ws ident ws '=' ws value ws)* ','?
//	value             = piece (ws '#' ws piece)*
//	piece             = [0-9]+
//	                  | '{' balanced* '}'
//	                  | '"' (!'"' balanced)* '"'
//	                  | ident
//	balanced          = '{' balanced* '}' | [^{}]
//	ident             = ![0-9] (![ \t"#%'(),={}] [\x20-\x7f])+
//	key               = [^, \t}\n]*
//	key_paren         = [^, \t\n]*
//
// A Parser executes @string and @preamble commands as it scans and
// buffers @<type>{...} records into Entry values; Finalize returns the
// resulting Database, together with a *FatalError if any
// error-severity Diagnostic was logged along the way. Finalize does not
// close the Parser: later Parse and String calls still update its
// macro table and entries, but not a Database already returned. Malformed
// input is resynchronized to the next top-level '@' rather than
// aborting the whole parse.
package bibtex
