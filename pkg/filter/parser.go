package filter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParseError is the type of error returned by parse.
type ParseError struct {
	// Source column position where the error occurred.
	Position int
	// Error message.
	Message string
}

// Error returns a formatted version of the error, including the position.
func (e ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Position, e.Message)
}

type parser struct {
	lexer *lexer
	pos   int    // position of last token (tok)
	tok   Token  // last lexed token
	val   string // string value of last token (or "")
}

// Parse compiles a filter expression into a clause tree.
//
// Parse uses panic/recover internally so recursive-descent methods can
// signal errors without threading (Clause, error) through every call.
// ParseError panics are caught here and returned as normal errors;
// any other panic (bug) is re-raised.
func Parse(src []byte) (clause Clause, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(ParseError); ok {
				clause = nil
				err = pe
			} else {
				panic(r)
			}
		}
	}()

	lexer := newLexer(src)
	p := parser{lexer: lexer}
	p.next()

	clause = p.expression()
	p.expect(eol)

	return clause, err
}

// expression parses a logic expression.
//
// term ( "or" term )*
func (p *parser) expression() Clause {
	terms := []Clause{p.term()}

	for p.matches(or) {
		p.next()
		terms = append(terms, p.term())
	}

	if len(terms) == 1 {
		return terms[0]
	}
	return Or(terms...)
}

// term parses an AND expression.
//
// factor ( "and" factor )*
func (p *parser) term() Clause {
	factors := []Clause{p.factor()}

	for p.matches(and) {
		p.next()
		factors = append(factors, p.factor())
	}

	if len(factors) == 1 {
		return factors[0]
	}
	return And(factors...)
}

// factor parses a negation, a grouped expression or a predicate.
//
// "not" factor | "(" expression ")" | predicate
func (p *parser) factor() Clause {
	if p.matches(not) {
		p.next()
		return Not(p.factor())
	}

	if p.matches(lbracket) {
		p.next()
		expr := p.expression()
		p.expect(rbracket)
		p.next()
		return expr
	}

	return p.predicate()
}

// predicate parses a test on a single field.
//
// IDENTIFIER ( "=" | "!=" | "<>" | "<" | "<=" | ">" | ">=" | "~" | "!~" ) value
// IDENTIFIER [ "not" ] "in" "(" value ( "," value )* ")"
// IDENTIFIER "is" [ "not" ] "null"
func (p *parser) predicate() Clause {
	p.expect(identifier)
	field := NewFieldKey(strings.Split(p.val, ".")...)
	p.next()

	switch p.tok {
	case is:
		p.next()
		negated := p.matches(not)
		if negated {
			p.next()
		}
		p.expect(null)
		p.next()
		if negated {
			return IsNonBlank(field)
		}
		return IsBlank(field)
	case not, in:
		negated := p.matches(not)
		if negated {
			p.next()
		}
		p.expect(in)
		p.next()
		return NewInClause(field, p.list(), negated)
	}

	op, ok := tokenOperators[p.tok]
	if !ok {
		panic(p.errorf("expected operator instead of %s", p.tok))
	}
	p.next()

	c, err := NewCompareClause(field, op, p.value())
	if err != nil {
		panic(p.errorf("%s", err))
	}
	return c
}

// list parses a parenthesized, comma separated list of values.
func (p *parser) list() []any {
	p.expect(lbracket)
	p.next()

	values := []any{p.value()}
	for p.matches(comma) {
		p.next()
		values = append(values, p.value())
	}

	p.expect(rbracket)
	p.next()
	return values
}

// value parses a value (string, number or boolean).
func (p *parser) value() any {
	var v any

	switch p.tok {
	case stringLit:
		v = p.val
	case number:
		if n, err := strconv.ParseInt(p.val, 10, 64); err == nil {
			v = n
		} else {
			f, err := strconv.ParseFloat(p.val, 64)
			if err != nil {
				panic(p.errorf("invalid number %q", p.val))
			}
			v = f
		}
	case boolean:
		v = p.val == "true"
	default:
		panic(p.errorf("expected value instead of %s", p.tok))
	}

	p.next()
	return v
}

// next parses the next token into p.tok.
func (p *parser) next() {
	p.pos, p.tok, p.val = p.lexer.Scan()
	if p.tok == illegal {
		panic(p.errorf("%s", p.val))
	}
}

// matches returns true if current token matches one of the given tokens.
func (p *parser) matches(tokens ...Token) bool {
	return slices.Contains(tokens, p.tok)
}

// expect panics if current token is not the expected token.
func (p *parser) expect(tok Token) {
	if p.tok != tok {
		panic(p.errorf("expected %s instead of %s", tok, p.tok))
	}
}

// errorf formats an error with the current position.
func (p *parser) errorf(format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	return ParseError{p.pos, message}
}
