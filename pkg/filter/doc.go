// Package filter implements composable predicate trees over table columns.
//
// A Clause renders to a parameterized SQL fragment for a dialect, to a dialect
// neutral where text, to a human readable description and to a URL parameter, and a
// single-field clause can be evaluated in memory with MeetsCriteria.
//
// URL parameters have the form
//
//	<region>.<field>~<op>=<value>    per column, e.g. query.Name~eq=Bob
//	<region>~<op>=<value>            region level, field key "*"
//
// Set operators (in, notin, containsoneof, containsnoneof) take a ";" separated list.
// An empty entry, usually a trailing ";", stands for the blank value.
//
// Grammar of the text form accepted by Parse
//
// --- PARSER RULES ---
//
// expression  : term ( "or" term )* ;
// term        : factor ( "and" factor )* ;
//
// factor      : "not" factor
//             | "(" expression ")"
//             | predicate ;
//
// predicate   : IDENTIFIER ( "=" | "!=" | "<>" | "<" | "<=" | ">" | ">=" | "~" | "!~" ) value
//             | IDENTIFIER [ "not" ] "in" "(" value ( "," value )* ")"
//             | IDENTIFIER "is" [ "not" ] "null" ;
//
// value       : STRING | NUMBER | BOOLEAN ;
//
// --- LEXER RULES ---
//
// IDENTIFIER  : [a-zA-Z_][a-zA-Z0-9_./]* ;   "." and "/" separate lookups
// STRING      : "'" (.*?) "'" | "\"" (.*?) "\"" ;  a doubled quote escapes itself
// NUMBER      : "-"? [0-9]+ ( "." [0-9]+ )? ;
// BOOLEAN     : "true" | "false" ;
//
// "~" is a case insensitive substring test, "!~" its negation.
package filter
