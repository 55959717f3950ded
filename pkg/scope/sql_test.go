package scope_test

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/duckdb/duckdb-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/pkg/container"
	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/scope"
)

var _ = Describe("SQLFragment", func() {
	var (
		reg    *container.Registry
		env    scope.Env
		reader *container.User
		admin  *container.User
		duck   dialect.Dialect
	)

	BeforeEach(func() {
		var policy *container.StaticPolicy
		reg, policy = newTree()
		env = scope.Env{Registry: reg, Policy: policy}
		reader = &container.User{ID: 2}
		admin = &container.User{ID: 1, SiteAdmin: true}
		duck = dialect.NewDuckDB()
	})

	fragment := func(t scope.Type, anchor string, user *container.User, opts ...scope.SQLOption) (string, []any) {
		r, err := t.New(mustGet(reg, anchor), user, env)
		Expect(err).ToNot(HaveOccurred())
		f, err := r.SQLFragment(context.TODO(), duck, "t.container", opts...)
		Expect(err).ToNot(HaveOccurred())
		return f.SQL(), f.Params()
	}

	It("should be vacuous for unrestricted scopes", func() {
		s, params := fragment(scope.AllFolders, "b", admin)
		Expect(s).To(Equal("1=1"))
		Expect(params).To(BeEmpty())

		s, _ = fragment(scope.AllFolders, "b", admin, scope.RequireNonNull())
		Expect(s).To(Equal("t.container IS NOT NULL"))
	})

	It("should be unsatisfiable for empty scopes", func() {
		s, params := fragment(scope.CurrentWithUser, "c", reader)
		Expect(s).To(Equal("1=0"))
		Expect(params).To(BeEmpty())
	})

	It("should use a plain list when no container has workbooks", func() {
		s, params := fragment(scope.Current, "d", reader)
		Expect(s).To(Equal("t.container IN (?)"))
		Expect(params).To(Equal([]any{"d"}))

		// subfolder scopes enumerate workbooks themselves
		s, params = fragment(scope.CurrentAndSubfolders, "a", reader)
		Expect(s).To(Equal("t.container IN (?, ?, ?, ?)"))
		Expect(params).To(Equal([]any{"a", "b", "wb", "d"}))
	})

	It("should join the hierarchy when a container has workbooks", func() {
		s, params := fragment(scope.Current, "b", reader)
		Expect(s).To(Equal("t.container IN (SELECT EntityId FROM core.containers WHERE EntityId IN (?) OR (Parent IN (?) AND Type IN ('workbook')))"))
		Expect(params).To(Equal([]any{"b", "b"}))
	})

	It("should embed large sets as a VALUES table", func() {
		env.InListThreshold = 2
		s, params := fragment(scope.CurrentAndSubfolders, "a", reader)
		Expect(s).To(Equal("t.container IN (SELECT id FROM (VALUES ('a'), ('b'), ('wb'), ('d')) AS _scope(id))"))
		Expect(params).To(BeEmpty())
	})

	It("should use the configured hierarchy table", func() {
		env.HierarchyTable = "app.folders"
		s, _ := fragment(scope.Current, "b", reader)
		Expect(s).To(HavePrefix("t.container IN (SELECT EntityId FROM app.folders WHERE"))
	})

	It("should render with the dialect placeholders", func() {
		r, err := scope.Current.New(mustGet(reg, "b"), reader, env)
		Expect(err).ToNot(HaveOccurred())

		pg := dialect.NewPostgres()
		f, err := r.SQLFragment(context.TODO(), pg, "t.container")
		Expect(err).ToNot(HaveOccurred())
		s, err := f.Format(pg.PlaceholderFormat())
		Expect(err).ToNot(HaveOccurred())
		Expect(s).To(Equal("t.container IN (SELECT EntityId FROM core.containers WHERE EntityId IN ($1) OR (Parent IN ($2) AND Type IN ('workbook')))"))
	})
})

var _ = Describe("SQLFragment against DuckDB", func() {
	var (
		db     *sql.DB
		reg    *container.Registry
		env    scope.Env
		reader *container.User
	)

	BeforeEach(func() {
		var policy *container.StaticPolicy
		reg, policy = newTree()
		env = scope.Env{Registry: reg, Policy: policy}
		reader = &container.User{ID: 2}

		connector, err := duckdb.NewConnector("", nil)
		Expect(err).ToNot(HaveOccurred())
		db = sql.OpenDB(connector)
		Expect(db.Ping()).To(Succeed())

		_, err = db.Exec(`CREATE SCHEMA core`)
		Expect(err).ToNot(HaveOccurred())
		_, err = db.Exec(`CREATE TABLE core.containers (
			EntityId VARCHAR PRIMARY KEY,
			Name VARCHAR,
			Parent VARCHAR,
			Type VARCHAR
		)`)
		Expect(err).ToNot(HaveOccurred())
		for _, c := range reg.All() {
			var parent any
			if c.ParentID != "" {
				parent = c.ParentID
			}
			_, err = db.Exec(`INSERT INTO core.containers VALUES (?, ?, ?, ?)`, c.ID, c.Name, parent, string(c.Type))
			Expect(err).ToNot(HaveOccurred())
		}

		_, err = db.Exec(`CREATE TABLE samples (id INTEGER, container VARCHAR)`)
		Expect(err).ToNot(HaveOccurred())
		_, err = db.Exec(`INSERT INTO samples VALUES
			(1, 'a'), (2, 'b'), (3, 'wb'), (4, 'c'), (5, 'd'), (6, 'shared'), (7, 'z'), (8, NULL)`)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	query := func(t scope.Type, anchor string, user *container.User, opts ...scope.SQLOption) []string {
		r, err := t.New(mustGet(reg, anchor), user, env)
		Expect(err).ToNot(HaveOccurred())
		f, err := r.SQLFragment(context.TODO(), dialect.NewDuckDB(), "s.container", opts...)
		Expect(err).ToNot(HaveOccurred())
		where, params, err := f.ToSql()
		Expect(err).ToNot(HaveOccurred())

		rows, err := db.Query("SELECT s.container FROM samples s WHERE "+where, params...)
		Expect(err).ToNot(HaveOccurred(), fmt.Sprintf("query: %s", f))
		defer rows.Close()

		out := []string{}
		for rows.Next() {
			var id sql.NullString
			Expect(rows.Scan(&id)).To(Succeed())
			out = append(out, id.String)
		}
		Expect(rows.Err()).ToNot(HaveOccurred())
		sort.Strings(out)
		return out
	}

	It("should pick up workbooks through the hierarchy join", func() {
		Expect(query(scope.Current, "b", reader)).To(Equal([]string{"b", "wb"}))
		Expect(query(scope.CurrentAndSiblings, "b", reader)).To(Equal([]string{"b", "d", "wb"}))
	})

	It("should select the same rows with and without the join", func() {
		Expect(query(scope.CurrentAndSubfolders, "a", reader)).To(Equal([]string{"a", "b", "d", "wb"}))
		env.InListThreshold = 1
		Expect(query(scope.CurrentAndSubfolders, "a", reader)).To(Equal([]string{"a", "b", "d", "wb"}))
		Expect(query(scope.Current, "b", reader)).To(Equal([]string{"b", "wb"}))
	})

	It("should honour unrestricted and empty scopes", func() {
		admin := &container.User{ID: 1, SiteAdmin: true}
		Expect(query(scope.AllFolders, "a", admin)).To(HaveLen(8))
		Expect(query(scope.AllFolders, "a", admin, scope.RequireNonNull())).To(HaveLen(7))
		Expect(query(scope.CurrentWithUser, "c", reader)).To(BeEmpty())
	})
})
