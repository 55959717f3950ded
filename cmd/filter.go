package cmd

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kubev2v/relcore/internal/config"
	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/filter"
	"github.com/kubev2v/relcore/pkg/sqlf"
)

type filterOptions struct {
	query  string
	region string
	table  string
}

func NewFilterCommand(cfg *config.Configuration) *cobra.Command {
	opts := &filterOptions{}

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Translate URL filter parameters to SQL",
		Long: `Parse the filters of a region from a query string such as
"query.Name~eq=x&query.Age~gt=3" and print the WHERE fragment, its parameters and
the human readable description. Without --table every field is a text column.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.query, "url", "", "URL or query string carrying the filters")
	cmd.Flags().StringVar(&opts.region, "region", "query", "filter region prefix")
	cmd.Flags().StringVar(&opts.table, "table", "", "table resolving the fields; requires --tables")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func runFilter(w io.Writer, cfg *config.Configuration, opts *filterOptions) error {
	d, err := dialect.Lookup(cfg.DialectName())
	if err != nil {
		return err
	}

	query := opts.query
	if _, q, ok := strings.Cut(query, "?"); ok {
		query = q
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return fmt.Errorf("parsing --url: %w", err)
	}

	var columns filter.ColumnMap
	if opts.table != "" {
		t, err := loadTable(cfg, opts.table)
		if err != nil {
			return err
		}
		columns = t.ColumnMap("")
	}

	f := filter.ParseURLFilters(values, opts.region, columns)
	if columns == nil {
		columns = filter.ColumnMap{}
		for _, k := range f.FieldKeys() {
			if k.IsRegion() {
				continue
			}
			columns[k] = filter.Column{Expr: d.QuoteIdentifier(k.Name()), Type: sqlf.TypeString}
		}
	}

	frag, err := f.ToSQLFragment(columns, d)
	if err != nil {
		return err
	}
	where, err := frag.Format(d.PlaceholderFormat())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "where: %s\n", where)
	fmt.Fprintf(w, "params: %v\n", frag.Params())
	fmt.Fprintf(w, "text: %s\n", f.FilterText(nil))
	fmt.Fprintf(w, "url: %s\n", f.URLParams(opts.region).Encode())
	return nil
}
