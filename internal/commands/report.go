package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashclose/internal/consolidated"
	"github.com/cleared-dev/cashclose/internal/render"
)

func newReportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reports across closes and entities",
	}
	cmd.AddCommand(
		newFilteredReportCommand(opts, "consolidated", "Totals per close and bucket with a grand total",
			func(cmd *cobra.Command, a *app, f consolidated.Filter) (string, error) {
				rows, err := consolidated.Rows(cmd.Context(), a.closes, f)
				if err != nil {
					return "", err
				}
				return render.ConsolidatedMarkdown(rows, a.renderOptions()), nil
			}),
		newFilteredReportCommand(opts, "lines", "One row per close line with its variance",
			func(cmd *cobra.Command, a *app, f consolidated.Filter) (string, error) {
				lines, err := consolidated.Lines(cmd.Context(), a.closes, f)
				if err != nil {
					return "", err
				}
				return render.LinesMarkdown(lines, a.renderOptions()), nil
			}),
		newFilteredReportCommand(opts, "bad-bills", "Bad bills by condition, face and currency",
			func(cmd *cobra.Command, a *app, f consolidated.Filter) (string, error) {
				sum, err := consolidated.BadBills(cmd.Context(), a.closes, f)
				if err != nil {
					return "", err
				}
				return render.BadBillsMarkdown(sum), nil
			}),
		newHistoryCommand(opts),
	)
	return cmd
}

func newFilteredReportCommand(opts *globalOptions, use, short string, build func(cmd *cobra.Command, a *app, f consolidated.Filter) (string, error)) *cobra.Command {
	var entities, states []string
	var from, to string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			f := consolidated.Filter{Entities: entities}
			var err error
			if f.From, err = parseOptionalDate(from); err != nil {
				return err
			}
			if f.To, err = parseOptionalDate(to); err != nil {
				return err
			}
			if f.States, err = parseStates(states); err != nil {
				return err
			}
			out, err := build(cmd, a, f)
			if err != nil {
				return err
			}
			return a.print(out)
		}),
	}
	cmd.Flags().StringSliceVar(&entities, "entity", nil, "entity codes")
	cmd.Flags().StringSliceVar(&states, "state", nil, "states (cancelled closes are never included)")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	return cmd
}

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	var entity, date string
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Daily final balances of an entity's cash accounts",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			if days < 1 {
				return errors.New("--days must be at least 1")
			}
			if _, ok := a.cfg.Entity(entity); !ok {
				return fmt.Errorf("unknown entity %q", entity)
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			accts := a.accounts.CashAccounts(entity)
			hist, err := a.engine.History(cmd.Context(), accts, d, days)
			if err != nil {
				return err
			}
			return a.print(render.HistoryMarkdown(hist, accts))
		}),
	}
	cmd.Flags().StringVar(&entity, "entity", "", "entity code")
	cmd.Flags().StringVar(&date, "date", "today", "last day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&days, "days", 7, "number of days")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}
