package sqlf

// Constant marks a value that must be embedded in the SQL text as a literal instead
// of being bound. Use it only for values that are fixed for the lifetime of a
// statement, otherwise it defeats plan caching.
type Constant struct {
	Value any
}

// NowValue is the "current time" sentinel. It has no bind representation and is
// rendered as the dialect's current-timestamp expression.
type NowValue struct{}

// Now is the NowValue sentinel.
var Now = NowValue{}

// IsNow reports whether v is the current time sentinel.
func IsNow(v any) bool {
	_, ok := v.(NowValue)
	return ok
}
