package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kubev2v/relcore/internal/config"
	"github.com/kubev2v/relcore/internal/importer"
	"github.com/kubev2v/relcore/pkg/statement"
)

type importOptions struct {
	writeOptions
	file string
}

func NewImportCommand(cfg *config.Configuration) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Write the rows of a spreadsheet into a table",
		Long: `Read a sheet whose first row names the fields and write every following row
through compiled statements. Rows failing validation or a constraint are reported
and do not stop the import.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, cfg, opts)
		},
	}

	registerWriteFlags(cmd, cfg, &opts.writeOptions)
	cmd.Flags().StringVar(&opts.file, "file", "", "xlsx workbook to import")
	cmd.Flags().StringVar(&cfg.Import.Sheet, "sheet", cfg.Import.Sheet, "sheet to import; the first one by default")
	cmd.Flags().IntVar(&cfg.Import.Workers, "workers", cfg.Import.Workers, "number of rows written concurrently")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, cfg *config.Configuration, opts *importOptions) error {
	ctx := cmd.Context()

	t, op, sopts, err := opts.compile(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := importer.OpenXLSX(f, cfg.Import.Sheet)
	if err != nil {
		return err
	}
	defer src.Close()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := importer.New(statement.NewCompiler(s.Dialect()), s.DB(), t, op, sopts).
		WithWorkers(cfg.Import.Workers).
		Run(ctx, src)
	if report != nil {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "rows: %d succeeded: %d failed: %d\n", report.Rows, report.Succeeded, report.Failed())
		for _, failure := range report.Failures {
			fmt.Fprintln(w, failure.Error())
		}
	}
	return err
}
