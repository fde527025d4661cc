package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashclose/internal/model"
	"github.com/cleared-dev/cashclose/internal/render"
)

func newDenomCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "denom",
		Short: "Bill and coin catalog",
	}
	cmd.AddCommand(
		newDenomListCommand(opts),
		newDenomAddCommand(opts),
		newDenomActiveCommand(opts, "deactivate", false),
		newDenomActiveCommand(opts, "activate", true),
	)
	return cmd
}

func newDenomListCommand(opts *globalOptions) *cobra.Command {
	var currency string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List denominations",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			var list []model.Denomination
			if currency != "" && !all {
				list = a.catalog.Active(currency)
			} else {
				for _, d := range a.catalog.All() {
					if (all || d.Active) && (currency == "" || strings.EqualFold(d.Currency, currency)) {
						list = append(list, d)
					}
				}
			}
			return a.print(render.DenominationsMarkdown(list))
		}),
	}
	cmd.Flags().StringVar(&currency, "currency", "", "only this currency")
	cmd.Flags().BoolVar(&all, "all", false, "include inactive denominations")
	return cmd
}

func newDenomAddCommand(opts *globalOptions) *cobra.Command {
	var currency, value, typ string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a denomination",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			v, err := parseAmount(value)
			if err != nil {
				return err
			}
			d, err := a.catalog.Add(v, currency, model.DenominationType(typ))
			if err != nil {
				return err
			}
			if err := a.catalog.Save(a.root); err != nil {
				return err
			}
			a.record("denom-add", d.Name())
			return a.print(render.DenominationsMarkdown([]model.Denomination{d}))
		}),
	}
	cmd.Flags().StringVar(&currency, "currency", "", "ISO currency code")
	cmd.Flags().StringVar(&value, "value", "", "face value")
	cmd.Flags().StringVar(&typ, "type", string(model.DenominationBill), "bill or coin")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newDenomActiveCommand(opts *globalOptions, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <denomination-id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a denomination",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			denomID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid denomination id %q", args[0])
			}
			if err := a.catalog.SetActive(denomID, active); err != nil {
				return err
			}
			if err := a.catalog.Save(a.root); err != nil {
				return err
			}
			d, _ := a.catalog.Get(denomID)
			a.record("denom-"+use, d.Name())
			return a.print(render.DenominationsMarkdown([]model.Denomination{d}))
		}),
	}
}
