// Package sqlf implements the SQL fragment protocol shared by the filter algebra, the
// container scope resolver and the statement compiler.
//
// Every producer returns a Fragment: SQL text written with "?" positional placeholders
// plus the ordered values bound to them. Fragments concatenate freely and are turned
// into backend placeholders ($1, @p1, ?) only at the very end through a squirrel
// PlaceholderFormat:
//
//	where := sqlf.New("Age > ?", 30).Append(" AND ").AppendFragment(scopeSQL)
//	query, args, err := sq.Select("*").From("t").Where(where).PlaceholderFormat(sq.Dollar).ToSql()
//
// Values are embedded as literals only when they are explicitly wrapped in Constant,
// or when they have no bind representation (the Now sentinel).
package sqlf
