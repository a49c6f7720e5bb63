package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/indexer"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/ui"
	"github.com/dpshade/promptlib/internal/watcher"
)

func newBrowseCmd(opts *options) *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse indexed prompts interactively",
		Long: `Open a terminal browser over the index. Filter with /, open a prompt with
enter, regenerate the index with r and copy a prompt body with c.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := models.ParseTagExpr(match)
			if err != nil {
				return errors.ConfigError("invalid tag expression", err)
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}
			return ui.Run(cmd.Context(), svc, expr)
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "only prompts whose tags match this expression")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the index whenever a prompt changes",
		Long: `Run a full index first, then watch the prompt directories and rerun it
after each burst of changes. Overview documents are ignored so listing
updates never retrigger a run. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			report, err := svc.GenerateIndex(cmd.Context())
			if err != nil {
				return err
			}
			printReport(errOut, out, opts, report)

			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", strings.Join(opts.cfg.PromptDirs, ", "))
			err = svc.Watch(cmd.Context(), func(batch watcher.Batch, report *indexer.Report) {
				fmt.Fprintf(out, "\n%d change(s): %s\n", len(batch.Changes), strings.Join(batch.Paths(), ", "))
				printReport(errOut, out, opts, report)
			})
			if stderrors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "promptlib %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
