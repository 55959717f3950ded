package filter

import "strings"

// Operator is a comparison kind. Its URL key is the suffix after "~" in a URL filter
// parameter.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpNotEqualOrNull
	OpGreater
	OpGreaterOrEqual
	OpLess
	OpLessOrEqual
	OpIsBlank
	OpIsNonBlank
	OpStartsWith
	OpDoesNotStartWith
	OpContains
	OpDoesNotContain
	OpDateEqual
	OpDateNotEqual
	OpIn
	OpNotIn
	OpContainsOneOf
	OpContainsNoneOf
)

type operatorInfo struct {
	urlKey     string
	display    string
	needsValue bool
}

var operators = map[Operator]operatorInfo{
	OpEqual:            {"eq", "=", true},
	OpNotEqual:         {"neq", "<>", true},
	OpNotEqualOrNull:   {"neqornull", "<>", true},
	OpGreater:          {"gt", ">", true},
	OpGreaterOrEqual:   {"gte", ">=", true},
	OpLess:             {"lt", "<", true},
	OpLessOrEqual:      {"lte", "<=", true},
	OpIsBlank:          {"isblank", "IS BLANK", false},
	OpIsNonBlank:       {"isnonblank", "IS NOT BLANK", false},
	OpStartsWith:       {"startswith", "STARTS WITH", true},
	OpDoesNotStartWith: {"doesnotstartwith", "DOES NOT START WITH", true},
	OpContains:         {"contains", "CONTAINS", true},
	OpDoesNotContain:   {"doesnotcontain", "DOES NOT CONTAIN", true},
	OpDateEqual:        {"dateeq", "=", true},
	OpDateNotEqual:     {"dateneq", "<>", true},
	OpIn:               {"in", "IS ONE OF", false},
	OpNotIn:            {"notin", "IS NOT ANY OF", false},
	OpContainsOneOf:    {"containsoneof", "CONTAINS ONE OF", false},
	OpContainsNoneOf:   {"containsnoneof", "DOES NOT CONTAIN ANY OF", false},
}

var operatorsByURLKey = func() map[string]Operator {
	m := make(map[string]Operator, len(operators))
	for op, info := range operators {
		m[info.urlKey] = op
	}
	return m
}()

// ParseOperator looks an operator up by URL key, ignoring case.
func ParseOperator(urlKey string) (Operator, bool) {
	op, ok := operatorsByURLKey[strings.ToLower(urlKey)]
	return op, ok
}

func (o Operator) URLKey() string {
	return operators[o].urlKey
}

func (o Operator) String() string {
	return o.URLKey()
}

// Display is the operator text used in filter descriptions.
func (o Operator) Display() string {
	return operators[o].display
}

// NeedsValue reports whether the operator takes a value. Set operators take a list,
// which may legitimately be empty.
func (o Operator) NeedsValue() bool {
	return operators[o].needsValue
}

// Negated reports whether the operator is the complement of another.
func (o Operator) Negated() bool {
	switch o {
	case OpNotEqual, OpNotEqualOrNull, OpIsNonBlank, OpDoesNotStartWith, OpDoesNotContain,
		OpDateNotEqual, OpNotIn, OpContainsNoneOf:
		return true
	}
	return false
}

func (o Operator) isSet() bool {
	switch o {
	case OpIn, OpNotIn, OpContainsOneOf, OpContainsNoneOf:
		return true
	}
	return false
}
