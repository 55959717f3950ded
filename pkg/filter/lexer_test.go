package filter_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/pkg/filter"
)

var _ = Describe("Lexer", func() {
	Context("Scan", func() {
		type testCase struct {
			input  string
			output string
		}

		tests := []testCase{
			// ===== OPERATORS =====
			// Equality operators
			{input: "=", output: "equal eol"},
			{input: "!=", output: "notEqual eol"},
			{input: "<>", output: "notEqual eol"},

			// Comparison operators
			{input: "<", output: "less eol"},
			{input: "<=", output: "lte eol"},
			{input: ">", output: "greater eol"},
			{input: ">=", output: "gte eol"},

			// Substring operators
			{input: "~", output: "contains eol"},
			{input: "!~", output: "notContains eol"},

			// All operators together
			{input: "= != <> < <= > >= ~ !~", output: "equal notEqual notEqual less lte greater gte contains notContains eol"},

			// ===== KEYWORDS =====
			{input: "and", output: "and eol"},
			{input: "or", output: "or eol"},
			{input: "AND", output: "and eol"},
			{input: "Or", output: "or eol"},
			{input: "not", output: "not eol"},
			{input: "in", output: "in eol"},
			{input: "IS NOT NULL", output: "is not null eol"},
			{input: "not in", output: "not in eol"},

			// ===== BRACKETS AND LISTS =====
			{input: "(", output: "lbracket eol"},
			{input: ")", output: "rbracket eol"},
			{input: "( )", output: "lbracket rbracket eol"},
			{input: "('a', 'b')", output: "lbracket stringLit comma stringLit rbracket eol"},

			// ===== STRINGS =====
			{input: "'test'", output: "stringLit eol"},
			{input: "'hello world'", output: "stringLit eol"},
			{input: "''", output: "stringLit eol"},
			{input: `"test"`, output: "stringLit eol"},
			{input: "'it''s'", output: "stringLit eol"},
			{input: `'test' "test"`, output: "stringLit stringLit eol"},
			{input: "'test=value'", output: "stringLit eol"},
			{input: `"with spaces and symbols !@#$%"`, output: "stringLit eol"},

			// ===== BOOLEANS =====
			{input: "true", output: "boolean eol"},
			{input: "FALSE", output: "boolean eol"},

			// ===== NUMBERS =====
			{input: "100", output: "number eol"},
			{input: "0", output: "number eol"},
			{input: "3.14", output: "number eol"},
			{input: "-42", output: "number eol"},

			// ===== IDENTIFIERS =====
			{input: "name", output: "identifier eol"},
			{input: "NAME", output: "identifier eol"},
			{input: "user.name", output: "identifier eol"},
			{input: "Dept/Name", output: "identifier eol"},
			{input: "col_1", output: "identifier eol"},
			{input: "name description", output: "identifier identifier eol"},

			// Keywords as part of identifiers
			{input: "android", output: "identifier eol"},
			{input: "organic", output: "identifier eol"},
			{input: "index", output: "identifier eol"},
			{input: "nullable", output: "identifier eol"},

			// ===== WHITESPACE HANDLING =====
			{input: "", output: "eol"},
			{input: "   ", output: "eol"},
			{input: "\tname\t", output: "identifier eol"},
			{input: "name   =   'test'", output: "identifier equal stringLit eol"},

			// ===== COMPLETE FILTER EXPRESSIONS =====
			{input: "name = 'test' and status = 'active'", output: "identifier equal stringLit and identifier equal stringLit eol"},
			{input: "count >= 10 or count < 2", output: "identifier gte number or identifier less number eol"},
			{input: "status in ('a','b')", output: "identifier in lbracket stringLit comma stringLit rbracket eol"},
			{input: "owner is null", output: "identifier is null eol"},
			{input: "name~'prod'", output: "identifier contains stringLit eol"},

			// ===== ILLEGAL TOKENS =====
			{input: "!", output: "illegal eol"},
			{input: "@", output: "illegal eol"},
			{input: "*", output: "illegal eol"},
			{input: ";", output: "illegal eol"},
			{input: "'unclosed", output: "illegal eol"},
			{input: `"unclosed`, output: "illegal eol"},
		}

		for _, test := range tests {
			test := test // capture range variable
			It("should tokenize: "+test.input, func() {
				l := filter.NewLexer([]byte(test.input))

				tokens := []string{}
				for {
					_, tok, _ := l.Scan()
					tokens = append(tokens, tok.String())
					if tok == filter.EOL {
						break
					}
				}

				output := strings.Join(tokens, " ")
				Expect(strings.TrimSpace(output)).To(Equal(test.output))
			})
		}
	})

	It("should unescape doubled quotes", func() {
		l := filter.NewLexer([]byte("'it''s'"))
		_, tok, val := l.Scan()
		Expect(tok).To(Equal(filter.StringLit))
		Expect(val).To(Equal("it's"))
	})

	It("should return the number text", func() {
		l := filter.NewLexer([]byte("-3.5"))
		_, tok, val := l.Scan()
		Expect(tok).To(Equal(filter.Number))
		Expect(val).To(Equal("-3.5"))
	})
})
