package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSignatureCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signature",
		Short: "Manage user signatures captured on close and confirm",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <image-file>",
		Short: "Store the acting user's signature image",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			user, err := a.user()
			if err != nil {
				return err
			}
			sig, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading signature: %w", err)
			}
			if err := a.signatures.Store(user, sig); err != nil {
				return err
			}
			a.record("signature-set", user)
			fmt.Fprintf(a.out, "Stored signature for %s (%d bytes)\n", user, len(sig))
			return nil
		}),
	})
	return cmd
}
