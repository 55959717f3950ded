package sqlf_test

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/pkg/sqlf"
)

var _ = Describe("Fragment", func() {
	It("should collect text and parameters in order", func() {
		f := sqlf.New("a = ?", 1).
			Append(" AND b ").
			Append("IN (").AppendParams([]any{"x", "y"}).Append(")")

		Expect(f.SQL()).To(Equal("a = ? AND b IN (?, ?)"))
		Expect(f.Params()).To(Equal([]any{1, "x", "y"}))
		Expect(f.String()).To(Equal("a = 1 AND b IN ('x', 'y')"))
	})

	It("should wrap and clone independently", func() {
		f := sqlf.New("a = ?", 1)
		c := f.Clone().Wrap()
		f.Append(" OR b IS NULL")

		Expect(c.SQL()).To(Equal("(a = ?)"))
		Expect(f.SQL()).To(Equal("a = ? OR b IS NULL"))
	})

	It("should work as a squirrel condition", func() {
		query, args, err := sq.Select("*").From("t").
			Where(sqlf.New("name = ?", "x")).
			Where(sqlf.True()).
			PlaceholderFormat(sq.Dollar).
			ToSql()
		Expect(err).ToNot(HaveOccurred())
		Expect(query).To(Equal("SELECT * FROM t WHERE name = $1 AND 1=1"))
		Expect(args).To(Equal([]any{"x"}))
	})

	It("should reject mismatched placeholders", func() {
		_, _, err := sqlf.New("a = ? AND b = ?", 1).ToSql()
		Expect(err).To(HaveOccurred())
	})

	It("should keep escaped question marks literal", func() {
		f := sqlf.New("note = " + sqlf.EscapeLiteral("'why?'") + " AND id = ?", 7)

		sql, args, err := f.ToSql()
		Expect(err).ToNot(HaveOccurred())
		Expect(args).To(HaveLen(1))
		Expect(sql).To(Equal("note = 'why??' AND id = ?"))

		for _, test := range []struct {
			pf   sq.PlaceholderFormat
			want string
		}{
			{nil, "note = 'why?' AND id = ?"},
			{sq.Question, "note = 'why?' AND id = ?"},
			{sq.Dollar, "note = 'why?' AND id = $1"},
			{sq.AtP, "note = 'why?' AND id = @p1"},
		} {
			out, err := f.Format(test.pf)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal(test.want))
		}
		Expect(f.String()).To(Equal("note = 'why?' AND id = 7"))
	})
})

var _ = Describe("ValueType", func() {
	It("should parse names and aliases", func() {
		for name, want := range map[string]sqlf.ValueType{
			"":          sqlf.TypeString,
			"varchar":   sqlf.TypeString,
			"int":       sqlf.TypeInteger,
			"long":      sqlf.TypeBigInt,
			"double":    sqlf.TypeFloat,
			"bool":      sqlf.TypeBoolean,
			"datetime":  sqlf.TypeTimestamp,
			"EntityId":  sqlf.TypeGUID,
			"blob":      sqlf.TypeBinary,
			"numeric":   sqlf.TypeDecimal,
			" Integer ": sqlf.TypeInteger,
		} {
			got, err := sqlf.ParseValueType(name)
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal(want), name)
		}
		_, err := sqlf.ParseValueType("money")
		Expect(err).To(HaveOccurred())
	})

	It("should convert values", func() {
		ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		tests := []struct {
			t    sqlf.ValueType
			in   any
			want any
		}{
			{sqlf.TypeString, 12, "12"},
			{sqlf.TypeString, "", ""},
			{sqlf.TypeInteger, "", nil},
			{sqlf.TypeInteger, " 42 ", int64(42)},
			{sqlf.TypeInteger, "4.0", int64(4)},
			{sqlf.TypeInteger, true, int64(1)},
			{sqlf.TypeBigInt, float64(9), int64(9)},
			{sqlf.TypeFloat, "2.5", 2.5},
			{sqlf.TypeFloat, int64(2), 2.0},
			{sqlf.TypeBoolean, "yes", true},
			{sqlf.TypeBoolean, "0", false},
			{sqlf.TypeTimestamp, "2024-01-02 03:04:05", ts},
			{sqlf.TypeTimestamp, "2024-01-02T03:04:05Z", ts},
			{sqlf.TypeTimestamp, float64(45293), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			{sqlf.TypeGUID, "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
			{sqlf.TypeBinary, "ab", []byte("ab")},
			{sqlf.TypeFloat, nil, nil},
		}
		for _, test := range tests {
			got, err := test.t.Convert(test.in)
			Expect(err).ToNot(HaveOccurred(), "%s %v", test.t, test.in)
			if test.want == nil {
				Expect(got).To(BeNil(), "%s %v", test.t, test.in)
				continue
			}
			Expect(got).To(Equal(test.want), "%s %v", test.t, test.in)
		}
	})

	It("should reject values it cannot convert", func() {
		for _, test := range []struct {
			t  sqlf.ValueType
			in any
		}{
			{sqlf.TypeInteger, "4.5"},
			{sqlf.TypeInteger, "many"},
			{sqlf.TypeBoolean, "maybe"},
			{sqlf.TypeTimestamp, "yesterday"},
			{sqlf.TypeGUID, "not-a-guid"},
			{sqlf.TypeFloat, struct{}{}},
		} {
			_, err := test.t.Convert(test.in)
			Expect(err).To(HaveOccurred(), "%s %v", test.t, test.in)
		}
	})
})
