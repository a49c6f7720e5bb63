package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dpshade/promptlib/internal/indexer"
	"github.com/dpshade/promptlib/internal/listing"
)

func newIndexCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "index",
		Aliases: []string{"generate", "generate-index"},
		Short:   "Validate the library and regenerate the index and listings",
		Long: `Scan every prompt directory, validate each document and check ids across
the library. When everything passes, rewrite the index and the listing block
of each directory's README.md. When anything fails, nothing is written and
the command exits with status 1.

Examples:
  promptlib index
  promptlib index --root ~/prompts --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			report, err := svc.GenerateIndex(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.ErrOrStderr(), cmd.OutOrStdout(), opts, report)
			if report.Failed() {
				return errFailed
			}
			return nil
		},
	}
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the library without writing anything",
		Long: `Run every per-document and library-wide check and report the problems found.
The index and the listings are never touched. Exits with status 1 when the
library would not be indexed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			report, err := svc.Validate(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.ErrOrStderr(), cmd.OutOrStdout(), opts, report)
			if report.Failed() {
				return errFailed
			}
			return nil
		},
	}
}

// printReport writes diagnostics to errOut and the run summary to out
func printReport(errOut, out io.Writer, opts *options, report *indexer.Report) {
	if len(report.Diagnostics) > 0 {
		fmt.Fprint(errOut, opts.handler.FormatDiagnostics(report.Diagnostics))
	}

	documents := len(report.Corpus.Documents)
	switch {
	case !report.Valid:
		fmt.Fprintf(out, "Validation failed: %d of %d document(s) invalid, index not written\n",
			report.Corpus.Invalid(), documents)
	case report.IndexWritten:
		fmt.Fprintf(out, "Indexed %d document(s) into %s\n", documents, report.IndexPath)
	case report.Failed():
		fmt.Fprintf(out, "Index not written to %s\n", report.IndexPath)
	default:
		fmt.Fprintf(out, "All %d document(s) valid\n", documents)
	}
	if report.Skipped > 0 {
		fmt.Fprintf(out, "Skipped %d file(s) without a usable header\n", report.Skipped)
	}

	for _, res := range report.Listings {
		switch res.Status {
		case listing.StatusUpdated:
			fmt.Fprintf(out, "Updated listing %s (%d prompt(s))\n", res.Path, res.Entries)
		case listing.StatusFailed:
			fmt.Fprintf(out, "Listing not updated: %s\n", res.Path)
		}
	}
}
