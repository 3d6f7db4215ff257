package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"adherents/app"
	"adherents/domain/core"
	"adherents/domain/membership"
	"adherents/internal/config"
	"adherents/internal/container"
	"adherents/internal/errors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:           "adherents",
		Short:         "Export active members from a spreadsheet to a semicolon-delimited file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newHeadersCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.UserMessage(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exportOptions carries the export command flags
type exportOptions struct {
	mapping membership.ColumnMapping
	asOf    string
	output  string
}

func newHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers [file]",
		Short: "Show the headers of a file and the column mapping that would be used",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			return runHeaders(cmd.Context(), c, args[0], cmd.OutOrStdout())
		},
	}
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export members active on a date",
		Long: `Read a member spreadsheet, keep the members whose membership covers the
reference date, keep the earliest record per name and write the export file.

Columns left unset are taken from the stored preference for these headers,
or guessed from the header names.

Example: adherents export membres.xlsx --as-of 2024-09-01 --output adherent.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			return runExport(cmd.Context(), c, args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.mapping.LastName, "last", "", "Header holding the last name")
	cmd.Flags().StringVar(&opts.mapping.FirstName, "first", "", "Header holding the first name")
	cmd.Flags().StringVar(&opts.mapping.Start, "start", "", "Header holding the membership start date")
	cmd.Flags().StringVar(&opts.mapping.End, "end", "", "Header holding the membership end date")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "Reference date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output path (default EXPORT_FILENAME)")

	return cmd
}

func openContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func loadFile(ctx context.Context, c *container.Container, path string) (*membership.SheetData, error) {
	sheet, err := c.Reader.ReadFile(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.WithCode(errors.CodeUnreadableFile, app.MsgUnreadableFile, err)
	}
	return sheet, nil
}

func runHeaders(ctx context.Context, c *container.Container, path string, out io.Writer) error {
	sheet, err := loadFile(ctx, c, path)
	if err != nil {
		return err
	}

	resolved := c.ExportService.ResolveMapping(ctx, sheet.Headers)

	fmt.Fprintf(out, "Sheet %q, %d rows\n", sheet.Name, len(sheet.Rows))
	for _, h := range sheet.Headers {
		fmt.Fprintf(out, "  %s\n", h)
	}
	fmt.Fprintf(out, "Mapping (%s):\n", resolved.Source)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resolved.Mapping)
}

func runExport(ctx context.Context, c *container.Container, path string, opts exportOptions, out, errOut io.Writer) error {
	sheet, err := loadFile(ctx, c, path)
	if err != nil {
		return err
	}

	mapping := c.ExportService.ResolveMapping(ctx, sheet.Headers).Mapping.Merge(opts.mapping)

	var asOf time.Time
	if s := strings.TrimSpace(opts.asOf); s != "" {
		asOf, err = core.ParseDate(s, c.Config.Export.Location)
		if err != nil {
			return errors.WithCode(errors.CodeInvalidInput, "La date de référence doit être au format AAAA-MM-JJ.", err)
		}
	}

	output := opts.output
	if output == "" {
		output = c.Config.Export.Filename
	}

	result, err := c.ExportService.Export(ctx, app.ExportRequest{
		Sheet:    sheet,
		Mapping:  mapping,
		AsOf:     asOf,
		Filename: filepath.Base(output),
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, []byte(result.Payload), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", output)
	}

	fmt.Fprintf(out, "%s: %d members exported (%d rows read, %d skipped)\n",
		output, result.Stats.Unique, result.Stats.Rows, result.Stats.Skipped)
	fmt.Fprint(errOut, result.Message)
	if !strings.HasSuffix(result.Message, "\n") {
		fmt.Fprintln(errOut)
	}
	return nil
}
