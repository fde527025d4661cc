package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashclose/internal/accounts"
	"github.com/cleared-dev/cashclose/internal/model"
	"github.com/cleared-dev/cashclose/internal/render"
)

func newAccountCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Cash and bank account registry",
	}
	cmd.AddCommand(newAccountListCommand(opts), newAccountSetCommand(opts))
	return cmd
}

func newAccountListCommand(opts *globalOptions) *cobra.Command {
	var entity string
	var cashOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts and their close flags",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			var list []model.Account
			switch {
			case cashOnly && entity != "":
				list = a.accounts.CashAccounts(entity)
			case cashOnly:
				for _, code := range a.cfg.EntityCodes() {
					list = append(list, a.accounts.CashAccounts(code)...)
				}
			default:
				for _, acct := range a.accounts.All() {
					if entity == "" || strings.EqualFold(acct.Entity, entity) {
						list = append(list, acct)
					}
				}
			}
			return a.print(render.AccountsMarkdown(list))
		}),
	}
	cmd.Flags().StringVar(&entity, "entity", "", "only accounts of this entity")
	cmd.Flags().BoolVar(&cashOnly, "cash", false, "only active cash accounts")
	return cmd
}

func newAccountSetCommand(opts *globalOptions) *cobra.Command {
	var entity, currency string
	var cash, bank, deprecated bool

	cmd := &cobra.Command{
		Use:   "set <account-id>",
		Short: "Set the entity, role and close currency of an account",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			accountID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			var f accounts.Flags
			changed := cmd.Flags().Changed
			if changed("entity") {
				if _, ok := a.cfg.Entity(entity); !ok && entity != "" {
					return fmt.Errorf("unknown entity %q", entity)
				}
				f.Entity = &entity
			}
			if changed("cash") {
				f.Cash = &cash
			}
			if changed("bank") {
				f.Bank = &bank
			}
			if changed("currency") {
				f.CloseCurrency = &currency
			}
			if changed("deprecated") {
				f.Deprecated = &deprecated
			}

			acct, err := a.accounts.Set(accountID, f)
			if err != nil {
				return err
			}
			if err := a.accounts.Save(a.root); err != nil {
				return err
			}
			a.record("account-set", acct.DisplayName())
			return a.print(render.AccountsMarkdown([]model.Account{acct}))
		}),
	}
	cmd.Flags().StringVar(&entity, "entity", "", "owning entity code")
	cmd.Flags().BoolVar(&cash, "cash", false, "counted at close time")
	cmd.Flags().BoolVar(&bank, "bank", false, "bank account with a user-entered closing balance")
	cmd.Flags().StringVar(&currency, "currency", "", "close currency; empty means the entity's local currency")
	cmd.Flags().BoolVar(&deprecated, "deprecated", false, "exclude from new closes")
	return cmd
}
