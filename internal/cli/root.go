// Package cli implements the promptlib command line
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dpshade/promptlib/internal/config"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/logging"
	"github.com/dpshade/promptlib/internal/service"
)

// errFailed signals a non-zero exit after diagnostics were already printed
var errFailed = stderrors.New("command failed")

// options holds the global flags and the state built from them
type options struct {
	configPath string
	root       string
	verbose    bool
	logFormat  string

	cfg     *config.Config
	logger  *zap.Logger
	handler *errors.CLIErrorHandler
}

// NewRootCmd builds the promptlib command tree
func NewRootCmd(version string) *cobra.Command {
	cmd, _ := newRootCmd(version)
	return cmd
}

func newRootCmd(version string) (*cobra.Command, *options) {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "promptlib",
		Short: "Index and validate a prompt library",
		Long: `promptlib keeps a library of Markdown prompt documents consistent.

Each document carries a YAML front-matter header. promptlib validates every
header, checks that category and sub_category match the file's location, and
rejects duplicate ids. Only when the whole library passes does it rewrite the
aggregate index (metadata/prompt_index.yaml) and the listing block in each
directory's README.md.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: <root>/.promptlib.yaml)")
	flags.StringVar(&opts.root, "root", "", "library root (default: current directory)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging and error codes")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(
		newIndexCmd(opts),
		newValidateCmd(opts),
		newListCmd(opts),
		newSearchCmd(opts),
		newShowCmd(opts),
		newTagsCmd(opts),
		newBrowseCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(version),
	)

	return rootCmd, opts
}

// setup loads configuration and builds the logger once flags are parsed
func (o *options) setup() error {
	cfg, err := config.Load(o.configPath, o.root)
	if err != nil {
		return errors.ConfigError("failed to load configuration", err)
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}

	logger, err := logging.New(cfg.Log, o.verbose)
	if err != nil {
		return errors.ConfigError("failed to create logger", err)
	}

	o.cfg = cfg
	o.logger = logger
	o.handler = errors.NewCLIErrorHandler(o.verbose, logger)
	return nil
}

func (o *options) service() (*service.Service, error) {
	svc, err := service.NewService(o.cfg, o.logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to open library")
	}
	return svc, nil
}

// Execute runs the command line and returns the process exit code
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, version, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, version string, args []string, stdout, stderr io.Writer) int {
	rootCmd, opts := newRootCmd(version)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, errFailed):
		return 1
	case stderrors.Is(err, context.Canceled):
		return 130
	}

	if !errors.IsAppError(err) {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	handler := opts.handler
	if handler == nil {
		// setup failed before a logger existed
		handler = errors.NewCLIErrorHandler(opts.verbose, nil)
	}
	fmt.Fprintln(stderr, handler.HandleError(err))
	return 1
}
