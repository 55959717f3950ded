package statement_test

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/internal/store/migrations"
	"github.com/kubev2v/relcore/pkg/container"
	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/statement"
)

var objectInsert = regexp.MustCompile(`INSERT INTO exp\.Object [^;]*`)

var _ = Describe("object rows", func() {
	var (
		ctx context.Context
		db  *sql.DB
	)

	BeforeEach(func() {
		ctx = context.TODO()
		var err error
		db, err = sql.Open("duckdb", "")
		Expect(err).ToNot(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())
	})

	AfterEach(func() {
		_ = db.Close()
	})

	objectSQL := func(uri string) string {
		plan, err := statement.NewCompiler(dialect.NewPostgres()).Plan(loadTable("exp.materials"), statement.Insert, statement.Options{
			Container: &container.Container{ID: "c1"},
		})
		Expect(err).ToNot(HaveOccurred())
		stmt := objectInsert.FindString(plan.Setup[1])
		Expect(stmt).ToNot(BeEmpty())
		return strings.ReplaceAll(stmt, "_row.p1", "'"+uri+"'")
	}

	countObjects := func(uri string) int {
		var n int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exp.Object WHERE Container = 'c1' AND ObjectURI = ?", uri).Scan(&n)
		Expect(err).ToNot(HaveOccurred())
		return n
	}

	It("should create the object once when inserted twice", func() {
		stmt := objectSQL("urn:lsid:m1")

		_, err := db.ExecContext(ctx, stmt)
		Expect(err).ToNot(HaveOccurred())
		_, err = db.ExecContext(ctx, stmt)
		Expect(err).ToNot(HaveOccurred())

		Expect(countObjects("urn:lsid:m1")).To(Equal(1))
	})

	It("should create separate objects for separate URIs", func() {
		_, err := db.ExecContext(ctx, objectSQL("urn:lsid:m1"))
		Expect(err).ToNot(HaveOccurred())
		_, err = db.ExecContext(ctx, objectSQL("urn:lsid:m2"))
		Expect(err).ToNot(HaveOccurred())

		Expect(countObjects("urn:lsid:m1")).To(Equal(1))
		Expect(countObjects("urn:lsid:m2")).To(Equal(1))
	})
})
