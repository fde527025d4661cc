package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashclose/internal/render"
)

func newLedgerCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the journal the balances are read from",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate every journal month",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			problems, err := a.ledger.Check()
			if err != nil {
				return err
			}
			if err := a.print(render.LedgerCheckMarkdown(problems)); err != nil {
				return err
			}
			if n := len(problems); n > 0 {
				return fmt.Errorf("%d journal month(s) have problems", n)
			}
			return nil
		}),
	})
	return cmd
}
