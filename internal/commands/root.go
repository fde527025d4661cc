package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashclose/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "cashclose",
		Short:   "Daily cash register close and reconciliation",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.repo, "repo", ".", "repository directory")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.raw, "raw", false, "print markdown instead of styled terminal output")
	flags.StringVar(&opts.user, "user", "", "acting user (default $CASHCLOSE_USER, then $USER)")
	flags.IntVar(&opts.width, "width", 100, "terminal word-wrap width")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(opts),
		newDenomCommand(opts),
		newLedgerCommand(opts),
		newSignatureCommand(opts),
		newCloseCommand(opts),
		newMassCommand(opts),
		newReportCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}
