package filter_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/pkg/filter"
)

var _ = Describe("Parser", func() {
	Context("Valid expressions", func() {
		type testCase struct {
			input  string
			output string
		}

		tests := []testCase{
			// ===== SIMPLE COMPARISONS =====
			{input: "name = 'test'", output: "name = test"},
			{input: "name != 'test'", output: "name <> test"},
			{input: "name <> 'test'", output: "name <> test"},
			{input: `name = "test"`, output: "name = test"},
			{input: "count > 10", output: "count > 10"},
			{input: "count >= 10", output: "count >= 10"},
			{input: "count < 2.5", output: "count < 2.5"},
			{input: "count <= -1", output: "count <= -1"},
			{input: "enabled = TRUE", output: "enabled = true"},

			// ===== SUBSTRINGS =====
			{input: "name ~ 'prod'", output: "name CONTAINS prod"},
			{input: "name !~ 'test'", output: "name DOES NOT CONTAIN test"},

			// ===== NULL TESTS =====
			{input: "owner is null", output: "owner IS BLANK"},
			{input: "owner IS NOT NULL", output: "owner IS NOT BLANK"},

			// ===== SETS =====
			{input: "status in ('a', 'b')", output: "status IS ONE OF (a, b)"},
			{input: "status not in ('a')", output: "status IS NOT ANY OF (a)"},
			{input: "status in ('a', '')", output: "status IS ONE OF (a, BLANK)"},
			{input: "id in (1, 2, 3)", output: "id IS ONE OF (1, 2, 3)"},

			// ===== LOOKUPS =====
			{input: "dept.name = 'R&D'", output: "dept.name = R&D"},
			{input: "dept/name = 'R&D'", output: "dept.name = R&D"},

			// ===== AND / OR (AND has higher precedence) =====
			{input: "a = '1' and b = '2'", output: "a = 1 AND b = 2"},
			{input: "a = '1' or b = '2' or c = '3'", output: "a = 1 OR b = 2 OR c = 3"},
			{input: "a = '1' or b = '2' and c = '3'", output: "a = 1 OR (b = 2 AND c = 3)"},
			{input: "(a = '1' or b = '2') and c = '3'", output: "(a = 1 OR b = 2) AND c = 3"},
			{input: "((a = '1'))", output: "a = 1"},

			// ===== NOT =====
			{input: "not a = '1'", output: "NOT (a = 1)"},
			{input: "not (a = '1' or b = '2')", output: "NOT (a = 1 OR b = 2)"},

			// ===== WHITESPACE VARIATIONS =====
			{input: "  name='test'  ", output: "name = test"},
			{input: "a = '1'   and   b = '2'", output: "a = 1 AND b = 2"},
		}

		for _, test := range tests {
			test := test // capture range variable
			It("should parse: "+test.input, func() {
				clause, err := filter.Parse([]byte(test.input))
				Expect(err).ToNot(HaveOccurred())
				Expect(filter.FilterText(clause, nil)).To(Equal(test.output))
			})
		}
	})

	It("should flatten chained conjunctions into one clause", func() {
		clause, err := filter.Parse([]byte("a = 1 and b = 2 and c = 3"))
		Expect(err).ToNot(HaveOccurred())
		op, ok := clause.(*filter.OperationClause)
		Expect(ok).To(BeTrue())
		Expect(op.Clauses()).To(HaveLen(3))
		Expect(op.FieldKeys()).To(Equal([]filter.FieldKey{"a", "b", "c"}))
	})

	It("should keep number types", func() {
		clause, err := filter.Parse([]byte("a = 1 or b = 1.5"))
		Expect(err).ToNot(HaveOccurred())
		Expect(clause.Params()).To(Equal([]any{int64(1), 1.5}))
	})

	Context("Invalid expressions", func() {
		inputs := []string{
			"name 'test'",
			"name =",
			"(name = 'test'",
			"= = =",
			"",
			"   ",
			"name = = 'test'",
			"= 'test'",
			"name in 'a'",
			"name in ()",
			"name is 'x'",
			"name not = 'x'",
		}

		for _, input := range inputs {
			input := input
			It("should return ParseError for: "+input, func() {
				_, err := filter.Parse([]byte(input))
				Expect(err).To(HaveOccurred())
				var pe filter.ParseError
				Expect(errors.As(err, &pe)).To(BeTrue())
			})
		}
	})
})
