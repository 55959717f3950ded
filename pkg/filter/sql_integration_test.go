package filter_test

import (
	"database/sql"
	"fmt"

	"github.com/duckdb/duckdb-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/filter"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

var _ = Describe("Filter Integration with DuckDB", func() {
	var db *sql.DB

	columns := filter.ColumnMap{
		"id":     {Expr: "t.id", Type: sqlf.TypeInteger},
		"name":   {Expr: "t.name", Type: sqlf.TypeString},
		"age":    {Expr: "t.age", Type: sqlf.TypeInteger},
		"born":   {Expr: "t.born", Type: sqlf.TypeTimestamp},
		"active": {Expr: "t.active", Type: sqlf.TypeBoolean},
	}

	BeforeEach(func() {
		var err error
		connector, err := duckdb.NewConnector("", nil)
		Expect(err).ToNot(HaveOccurred())

		db = sql.OpenDB(connector)
		Expect(db.Ping()).To(Succeed())

		_, err = db.Exec(`CREATE TABLE people (
			id INTEGER PRIMARY KEY,
			name VARCHAR,
			age INTEGER,
			born TIMESTAMP,
			active BOOLEAN
		)`)
		Expect(err).ToNot(HaveOccurred())

		_, err = db.Exec(`INSERT INTO people VALUES
			(1, 'alice', 30, '2024-01-01 10:00:00', true),
			(2, 'bob', 25, '2024-01-02 00:00:00', false),
			(3, 'carol', NULL, NULL, NULL),
			(4, NULL, 40, '2023-12-31 23:59:59', true),
			(5, 'a_b', 20, '2024-02-01 00:00:00', false)`)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	query := func(c filter.Clause) ([]int, error) {
		f, err := c.ToSQLFragment(columns, dialect.NewDuckDB())
		if err != nil {
			return nil, err
		}
		where, params, err := f.ToSql()
		if err != nil {
			return nil, err
		}

		rows, err := db.Query("SELECT t.id FROM people t WHERE "+where+" ORDER BY t.id", params...)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w\nFilter SQL: %s", err, f.String())
		}
		defer rows.Close()

		ids := []int{}
		for rows.Next() {
			var id int
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, rows.Err()
	}

	type testCase struct {
		name   string
		clause filter.Clause
		ids    []int
	}

	tests := []testCase{
		{"in", filter.NewInClause("name", []any{"alice", "bob"}, false), []int{1, 2}},
		{"in with blank", filter.NewInClause("name", []any{"alice", ""}, false), []int{1, 4}},
		{"not in admits nulls", filter.NewInClause("name", []any{"alice"}, true), []int{2, 3, 4, 5}},
		{"not in with blank excludes nulls", filter.NewInClause("name", []any{"alice", ""}, true), []int{2, 3, 5}},
		{"empty set", filter.NewInClause("name", nil, false), []int{}},
		{"empty set with null", filter.NewInClauseIncludeNull("name", nil, true, false), []int{4}},
		{"greater", mustCompare("age", filter.OpGreater, "26"), []int{1, 4}},
		{"not equal or null", mustCompare("age", filter.OpNotEqualOrNull, 30), []int{2, 3, 4, 5}},
		{"starts with escapes underscore", mustCompare("name", filter.OpStartsWith, "a_"), []int{5}},
		{"contains ignores case", mustCompare("name", filter.OpContains, "O"), []int{2, 3}},
		{"contains on integer", mustCompare("age", filter.OpContains, "0"), []int{1, 4, 5}},
		{"date equal", mustCompare("born", filter.OpDateEqual, "2024-01-01"), []int{1}},
		{"date not equal", mustCompare("born", filter.OpDateNotEqual, "2024-01-01"), []int{2, 3, 4, 5}},
		{"boolean", filter.Eq("active", "true"), []int{1, 4}},
		{"or", filter.Or(mustCompare("age", filter.OpLess, 26), filter.IsBlank("name")), []int{2, 4, 5}},
		{"not", filter.Not(filter.Eq("active", true)), []int{2, 5}},
		{"contains one of", filter.NewContainsOneOfClause("name", []any{"li", "RO"}, false), []int{1, 3}},
		{"contains none of", filter.NewContainsOneOfClause("name", []any{"li"}, true), []int{2, 3, 4, 5}},
		{"empty and", filter.And(), []int{1, 2, 3, 4, 5}},
	}

	for _, test := range tests {
		test := test
		It("should select rows for: "+test.name, func() {
			ids, err := query(test.clause)
			Expect(err).ToNot(HaveOccurred())
			Expect(ids).To(Equal(test.ids))
		})
	}

	It("should agree with in-memory evaluation for single-field clauses", func() {
		names := map[int]any{1: "alice", 2: "bob", 3: "carol", 4: nil, 5: "a_b"}
		clauses := []filter.Clause{
			filter.NewInClause("name", []any{"alice", ""}, true),
			filter.NewInClause("name", []any{"bob"}, true),
			filter.NewInClauseIncludeNull("name", nil, true, false),
			filter.NewContainsOneOfClause("name", []any{"a"}, false),
		}
		for _, c := range clauses {
			ids, err := query(c)
			Expect(err).ToNot(HaveOccurred())
			expected := []int{}
			for id := 1; id <= 5; id++ {
				match, err := c.MeetsCriteria(names[id])
				Expect(err).ToNot(HaveOccurred())
				if match {
					expected = append(expected, id)
				}
			}
			Expect(ids).To(Equal(expected), c.CacheKey())
		}
	})

	It("should run parsed expressions", func() {
		c, err := filter.Parse([]byte("age >= 30 or name in ('bob')"))
		Expect(err).ToNot(HaveOccurred())
		ids, err := query(c)
		Expect(err).ToNot(HaveOccurred())
		Expect(ids).To(Equal([]int{1, 2, 4}))
	})

	It("should run URL filters", func() {
		f := filter.ParseURLFilters(map[string][]string{
			"query.name~notin": {"alice;"},
			"query.age~lt":     {"30"},
			"query.ignored":    {"1"},
		}, "query", columns)

		frag, err := f.ToSQLFragment(columns, dialect.NewDuckDB())
		Expect(err).ToNot(HaveOccurred())
		where, params, err := frag.ToSql()
		Expect(err).ToNot(HaveOccurred())

		rows, err := db.Query("SELECT t.id FROM people t WHERE "+where+" ORDER BY t.id", params...)
		Expect(err).ToNot(HaveOccurred())
		defer rows.Close()
		ids := []int{}
		for rows.Next() {
			var id int
			Expect(rows.Scan(&id)).To(Succeed())
			ids = append(ids, id)
		}
		Expect(ids).To(Equal([]int{2, 5}))
	})
})
