package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kubev2v/relcore/internal/config"
	"github.com/kubev2v/relcore/pkg/dialect"
	"github.com/kubev2v/relcore/pkg/statement"
)

func NewCompileCommand(cfg *config.Configuration) *cobra.Command {
	opts := &writeOptions{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the SQL a write compiles to",
		Long: `Compile an insert, update or merge against a described table and print the
statements it runs: the setup creating temporary objects, the per-row statement,
the teardown and the parameters in binding order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.OutOrStdout(), cfg, opts)
		},
	}

	registerWriteFlags(cmd, cfg, opts)
	return cmd
}

func registerWriteFlags(cmd *cobra.Command, cfg *config.Configuration, opts *writeOptions) {
	cmd.Flags().StringVar(&opts.table, "table", "", "table to write, qualified or bare name")
	cmd.Flags().StringVar(&opts.op, "op", "insert", "operation (insert, update, merge)")
	cmd.Flags().StringVar(&opts.containerID, "container", "", "container id embedded in every container reference")
	cmd.Flags().Int64Var(&opts.userID, "user", 0, "user id filling the audit columns")
	cmd.Flags().BoolVar(&cfg.Compiler.SelectIDs, "select-ids", cfg.Compiler.SelectIDs, "reselect the generated row and object ids")
	cmd.Flags().BoolVar(&opts.selectObjectURI, "select-object-uri", false, "reselect the object URI of extended rows")
	cmd.Flags().BoolVar(&cfg.Compiler.AutoFillDefaultColumns, "auto-fill", cfg.Compiler.AutoFillDefaultColumns, "populate the builtin audit columns")
	cmd.Flags().BoolVar(&opts.allowAutoIncrement, "allow-auto-increment", false, "write the auto-increment column like any other")
	cmd.Flags().StringSliceVar(&opts.keys, "keys", nil, "key columns of update and merge")
	cmd.Flags().StringSliceVar(&opts.skip, "skip", nil, "columns and properties never written")
	cmd.Flags().StringToStringVar(&opts.constants, "const", nil, "column values embedded as literals (name=value)")
	_ = cmd.MarkFlagRequired("table")
}

func runCompile(w io.Writer, cfg *config.Configuration, opts *writeOptions) error {
	t, op, sopts, err := opts.compile(cfg)
	if err != nil {
		return err
	}
	d, err := dialect.Lookup(cfg.DialectName())
	if err != nil {
		return err
	}

	plan, err := statement.NewCompiler(d).Plan(t, op, sopts)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "-- %s %s on %s (%s)\n", op, t.QualifiedName(), d.Name(), plan.Strategy)
	if len(plan.Setup) > 0 {
		fmt.Fprintln(w, "-- setup")
		for _, s := range plan.Setup {
			fmt.Fprintf(w, "%s;\n", s)
		}
	}
	fmt.Fprintln(w, "-- statement")
	fmt.Fprintf(w, "%s;\n", plan.SQL)
	if len(plan.Teardown) > 0 {
		fmt.Fprintln(w, "-- teardown")
		for _, s := range plan.Teardown {
			fmt.Fprintf(w, "%s;\n", s)
		}
	}
	fmt.Fprintln(w, "-- parameters")
	for i, p := range plan.Parameters {
		fmt.Fprintf(w, "-- %d %s %s %s\n", i+1, p.Name, p.Type, p.Mode)
	}
	return nil
}
