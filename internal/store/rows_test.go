package store_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/internal/store"
	"github.com/kubev2v/relcore/pkg/container"
	"github.com/kubev2v/relcore/pkg/filter"
	"github.com/kubev2v/relcore/pkg/schema"
	"github.com/kubev2v/relcore/pkg/scope"
)

const itemsYAML = `
tables:
  - schema: lists
    name: items
    primaryKey: [id]
    columns:
      - {name: id, type: integer}
      - {name: name, type: string}
      - {name: Container, type: string}
`

var _ = Describe("RowStore", func() {
	var (
		ctx   context.Context
		s     *store.Store
		reg   *container.Registry
		items *schema.Table
	)

	names := func(rows []map[string]any) []string {
		out := []string{}
		for _, r := range rows {
			out = append(out, r["name"].(string))
		}
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		sqlDB, st := newStore(ctx)
		s = st
		reg = newTree()
		Expect(s.Containers().SaveAll(ctx, reg)).To(Succeed())

		_, err := sqlDB.Exec(`CREATE SCHEMA lists`)
		Expect(err).NotTo(HaveOccurred())
		_, err = sqlDB.Exec(`CREATE TABLE lists.items (id INTEGER PRIMARY KEY, name VARCHAR, Container VARCHAR)`)
		Expect(err).NotTo(HaveOccurred())
		_, err = sqlDB.Exec(`INSERT INTO lists.items VALUES
			(1, 'in b', 'b'),
			(2, 'in workbook', 'wb'),
			(3, 'in c', 'c'),
			(4, 'what?', 'b')`)
		Expect(err).NotTo(HaveOccurred())

		catalog, err := schema.LoadTables(strings.NewReader(itemsYAML))
		Expect(err).NotTo(HaveOccurred())
		items, err = catalog.Get("lists.items")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if s != nil {
			s.Close()
		}
	})

	It("should select every row in order", func() {
		rows, err := s.Rows().Select(ctx, items, store.WithSort("id"))
		Expect(err).NotTo(HaveOccurred())
		Expect(names(rows)).To(Equal([]string{"in b", "in workbook", "in c", "what?"}))
	})

	It("should page", func() {
		rows, err := s.Rows().Select(ctx, items, store.WithSort("id"), store.WithLimit(2), store.WithOffset(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(names(rows)).To(Equal([]string{"in workbook", "in c"}))
	})

	It("should apply a filter", func() {
		f := filter.NewSimpleFilter(filter.Eq(filter.NewFieldKey("name"), "what?"))
		opt, err := s.Rows().Filter(items, f)
		Expect(err).NotTo(HaveOccurred())

		rows, err := s.Rows().Select(ctx, items, opt)
		Expect(err).NotTo(HaveOccurred())
		Expect(names(rows)).To(Equal([]string{"what?"}))

		n, err := s.Rows().Count(ctx, items, opt)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})

	It("should restrict rows to a scope including workbooks", func() {
		b, err := reg.Get("b")
		Expect(err).NotTo(HaveOccurred())
		r, err := scope.New(scope.Current, b, &container.User{ID: 1, SiteAdmin: true}, scope.Env{Registry: reg})
		Expect(err).NotTo(HaveOccurred())

		opt, err := s.Rows().Scope(ctx, r, "Container")
		Expect(err).NotTo(HaveOccurred())

		rows, err := s.Rows().Select(ctx, items, opt, store.WithSort("id"))
		Expect(err).NotTo(HaveOccurred())
		Expect(names(rows)).To(Equal([]string{"in b", "in workbook", "what?"}))
	})

	It("should return nothing for an empty scope", func() {
		c, err := reg.Get("c")
		Expect(err).NotTo(HaveOccurred())
		r, err := scope.New(scope.CurrentWithUser, c, &container.User{ID: 7}, scope.Env{Registry: reg})
		Expect(err).NotTo(HaveOccurred())

		opt, err := s.Rows().Scope(ctx, r, "Container")
		Expect(err).NotTo(HaveOccurred())

		n, err := s.Rows().Count(ctx, items, opt)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})
})
