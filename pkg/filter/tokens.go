package filter

type Token int

const (
	illegal Token = iota
	eol
	and
	or
	not
	in
	is
	null
	equal
	notEqual
	greater
	gte
	less
	lte
	contains
	notContains
	lbracket
	rbracket
	comma
	stringLit
	number
	identifier
	boolean
)

var tokenNames = map[Token]string{
	illegal:     "illegal",
	eol:         "eol",
	and:         "and",
	or:          "or",
	not:         "not",
	in:          "in",
	is:          "is",
	null:        "null",
	equal:       "equal",
	notEqual:    "notEqual",
	greater:     "greater",
	gte:         "gte",
	less:        "less",
	lte:         "lte",
	contains:    "contains",
	notContains: "notContains",
	lbracket:    "lbracket",
	rbracket:    "rbracket",
	comma:       "comma",
	stringLit:   "stringLit",
	number:      "number",
	identifier:  "identifier",
	boolean:     "boolean",
}

func (t Token) String() string {
	return tokenNames[t]
}

var keywords = map[string]Token{
	"and":  and,
	"or":   or,
	"not":  not,
	"in":   in,
	"is":   is,
	"null": null,
}

// tokenOperators maps comparison tokens to clause operators.
var tokenOperators = map[Token]Operator{
	equal:       OpEqual,
	notEqual:    OpNotEqual,
	greater:     OpGreater,
	gte:         OpGreaterOrEqual,
	less:        OpLess,
	lte:         OpLessOrEqual,
	contains:    OpContains,
	notContains: OpDoesNotContain,
}
