package filter_test

import (
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/pkg/filter"
)

var _ = Describe("URL parameters", func() {
	Context("Round trip", func() {
		type testCase struct {
			name   string
			clause filter.Clause
			key    string
			value  string
		}

		tests := []testCase{
			{"equal", filter.Eq("Name", "Bob"), "query.Name~eq", "Bob"},
			{"equal blank", filter.Eq("Name", nil), "query.Name~eq", ""},
			{"greater", mustCompare("Age", filter.OpGreater, "5"), "query.Age~gt", "5"},
			{"is blank", filter.IsBlank("Name"), "query.Name~isblank", ""},
			{"lookup", filter.Eq("Dept/Name", "R&D"), "query.Dept/Name~eq", "R&D"},
			{"region level", mustCompare(filter.RegionKey, filter.OpContains, "foo"), "query~contains", "foo"},
			{"in", filter.NewInClause("Name", []any{"a", "b"}, false), "query.Name~in", "a;b"},
			{"in with blank", filter.NewInClause("Name", []any{"a", "b", ""}, false), "query.Name~in", "a;b;"},
			{"blank only", filter.NewInClauseIncludeNull("Name", nil, true, false), "query.Name~in", ";"},
			{"empty in", filter.NewInClause("Name", nil, false), "query.Name~in", ""},
			{"not in", filter.NewInClause("Name", []any{"a"}, true), "query.Name~notin", "a"},
			{"not in with blank", filter.NewInClause("Name", []any{"a", nil}, true), "query.Name~notin", "a;"},
			{"contains one of", filter.NewContainsOneOfClause("Name", []any{"x", "y"}, false), "query.Name~containsoneof", "x;y"},
			{"contains none of", filter.NewContainsOneOfClause("Name", []any{"x"}, true), "query.Name~containsnoneof", "x"},
		}

		for _, test := range tests {
			test := test
			It("should round trip: "+test.name, func() {
				key, value, ok := test.clause.ToURLParam("query")
				Expect(ok).To(BeTrue())
				Expect(key).To(Equal(test.key))
				Expect(value).To(Equal(test.value))

				parsed, ok := filter.ParseURLParam("query", key, value)
				Expect(ok).To(BeTrue())
				Expect(parsed.FieldKeys()).To(Equal(test.clause.FieldKeys()))
				Expect(parsed.Negated()).To(Equal(test.clause.Negated()))
				Expect(parsed.IncludeNull()).To(Equal(test.clause.IncludeNull()))
				Expect(parsed.Params()).To(ConsistOf(test.clause.Params()...))
				Expect(filter.Equal(parsed, test.clause)).To(BeTrue())
			})
		}

		It("should not encode combinators", func() {
			_, _, ok := filter.And(filter.Eq("Name", "a")).ToURLParam("query")
			Expect(ok).To(BeFalse())
			_, _, ok = filter.Not(filter.Eq("Name", "a")).ToURLParam("query")
			Expect(ok).To(BeFalse())
			_, _, ok = filter.NewSQLClause("1=1", nil).ToURLParam("query")
			Expect(ok).To(BeFalse())
		})
	})

	Context("ParseURLFilters", func() {
		values := url.Values{
			"query.Name~eq":      {"Bob"},
			"query.Age~bogus":    {"1"},
			"other.Name~eq":      {"x"},
			"query.Name":         {"x"},
			"query.Missing~eq":   {"1"},
			"query.Age~gt":       {""},
			"query~contains":     {"foo"},
			"query.Active~eq":    {"true"},
			"query.sort":         {"Name"},
			"queryName~eq":       {"x"},
			"query.Name~NotIn":   {"a;b"},
			"query.~eq":          {"x"},
			"unrelated_parameter": {"1"},
		}

		It("should silently drop what does not parse or resolve", func() {
			f := filter.ParseURLFilters(values, "query", testColumns)
			texts := []string{}
			for _, c := range f.Clauses() {
				texts = append(texts, filter.FilterText(c, nil))
			}
			Expect(texts).To(ConsistOf("Name = Bob", "Active = true", "Name IS NOT ANY OF (a, b)"))
		})

		It("should keep unresolvable fields without a column map", func() {
			f := filter.ParseURLFilters(values, "query", nil)
			Expect(f.Clauses()).To(HaveLen(5))
			Expect(f.FieldKeys()).To(ContainElements(filter.FieldKey("Missing"), filter.RegionKey))
		})

		It("should round trip a whole filter", func() {
			f := filter.NewSimpleFilter(
				filter.Eq("Name", "Bob"),
				filter.NewInClause("Age", []any{"1", "2", ""}, true),
				mustCompare("Born", filter.OpDateEqual, "2024-01-02"),
			)
			parsed := filter.ParseURLFilters(f.URLParams("query"), "query", testColumns)
			Expect(parsed.Clauses()).To(HaveLen(3))
			for _, c := range f.Clauses() {
				found := false
				for _, p := range parsed.Clauses() {
					if filter.Equal(c, p) {
						found = true
					}
				}
				Expect(found).To(BeTrue(), "missing "+c.CacheKey())
			}
		})
	})
})
