package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashclose/internal/closing"
	"github.com/cleared-dev/cashclose/internal/model"
	"github.com/cleared-dev/cashclose/internal/render"
)

func newCloseCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Daily cash closes",
		Long: `Daily cash closes.

Commands that take <close> accept a close ID or a reference such as
CASH/ACME/2025-01-15.`,
	}
	cmd.AddCommand(
		newCloseCreateCommand(opts),
		newCloseListCommand(opts),
		newCloseShowCommand(opts),
		newCloseMovementsCommand(opts),
		newCloseCountCommand(opts),
		newCloseBadBillCommand(opts),
		newCloseRemoveBadBillCommand(opts),
		newCloseBankCommand(opts),
		newCloseNotesCommand(opts),
	)

	// Transitions that take only the close.
	for _, t := range []struct {
		use, short string
		run        func(ctx context.Context, a *app, closeID string) (*model.Close, error)
	}{
		{"generate", "Compute the lines of a draft close from ledger balances", func(ctx context.Context, a *app, closeID string) (*model.Close, error) {
			return a.closes.GenerateLines(ctx, closeID)
		}},
		{"close", "Close an in-progress close with the responsible user's signature", func(ctx context.Context, a *app, closeID string) (*model.Close, error) {
			return a.closes.Close(ctx, closeID)
		}},
		{"confirm", "Confirm a closed close as the acting user", func(ctx context.Context, a *app, closeID string) (*model.Close, error) {
			user, err := a.user()
			if err != nil {
				return nil, err
			}
			return a.closes.Confirm(ctx, closeID, user)
		}},
		{"cancel", "Cancel a draft or in-progress close", func(ctx context.Context, a *app, closeID string) (*model.Close, error) {
			return a.closes.Cancel(ctx, closeID)
		}},
		{"reopen", "Return an in-progress close to draft", func(ctx context.Context, a *app, closeID string) (*model.Close, error) {
			return a.closes.Reopen(ctx, closeID)
		}},
	} {
		cmd.AddCommand(newCloseTransitionCommand(opts, t.use, t.short, t.run))
	}

	// Line operations that take the close and an account.
	for _, l := range []struct {
		use, short string
		run        func(ctx context.Context, a *app, closeID string, accountID int) (*model.Close, error)
	}{
		{"load-denoms", "Load the active denominations of the line currency at quantity zero", func(ctx context.Context, a *app, closeID string, accountID int) (*model.Close, error) {
			return a.closes.LoadDenominations(ctx, closeID, accountID)
		}},
		{"confirm-count", "Record the counted denominations and bad bills as the line's count", func(ctx context.Context, a *app, closeID string, accountID int) (*model.Close, error) {
			return a.closes.ConfirmCount(ctx, closeID, accountID)
		}},
		{"copy-previous", "Copy the denomination quantities of the previous close of the account", func(ctx context.Context, a *app, closeID string, accountID int) (*model.Close, error) {
			return a.closes.CopyFromPrevious(ctx, closeID, accountID)
		}},
	} {
		cmd.AddCommand(newCloseLineCommand(opts, l.use, l.short, l.run))
	}
	return cmd
}

func newCloseCreateCommand(opts *globalOptions) *cobra.Command {
	var entity, date, notes string
	var generate bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a close for an entity and date",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			user, err := a.user()
			if err != nil {
				return err
			}
			c, err := a.closes.Create(cmd.Context(), closing.CreateParams{
				Date:          d,
				Entity:        entity,
				User:          user,
				Notes:         notes,
				GenerateLines: generate,
			})
			if err != nil {
				return err
			}
			a.record("create", fmt.Sprintf("%d lines", len(c.Lines)), c)
			return a.printClose(c)
		}),
	}
	cmd.Flags().StringVar(&entity, "entity", "", "entity code")
	cmd.Flags().StringVar(&date, "date", "today", "close date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "close notes")
	cmd.Flags().BoolVar(&generate, "generate", false, "generate lines right away")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func newCloseListCommand(opts *globalOptions) *cobra.Command {
	var entities, states []string
	var from, to string
	var account int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List closes",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			q := closing.Query{Entities: entities, AccountID: account}
			var err error
			if q.From, err = parseOptionalDate(from); err != nil {
				return err
			}
			if q.To, err = parseOptionalDate(to); err != nil {
				return err
			}
			if q.States, err = parseStates(states); err != nil {
				return err
			}
			cs, err := a.closes.Find(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.print(render.ClosesMarkdown(cs))
		}),
	}
	cmd.Flags().StringSliceVar(&entities, "entity", nil, "entity codes")
	cmd.Flags().StringSliceVar(&states, "state", nil, "states (draft, in_progress, closed, confirmed, cancelled)")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&account, "account", 0, "only closes with a line for this account")
	return cmd
}

func newCloseShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <close>",
		Short: "Show a close with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			c, err := a.resolveClose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printClose(c)
		}),
	}
}

func newCloseMovementsCommand(opts *globalOptions) *cobra.Command {
	var account int

	cmd := &cobra.Command{
		Use:   "movements <close>",
		Short: "List the ledger movements behind a line",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			c, err := a.resolveClose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			moves, err := a.closes.Movements(cmd.Context(), c.ID, account)
			if err != nil {
				return err
			}
			l := c.Line(account)
			title := fmt.Sprintf("%s, account %d %s", c.Ref, l.AccountID, l.AccountName)
			return a.print(render.MovementsMarkdown(title, l.Currency, moves))
		}),
	}
	accountFlag(cmd, &account)
	return cmd
}

func newCloseCountCommand(opts *globalOptions) *cobra.Command {
	var account, denom, qty int

	cmd := &cobra.Command{
		Use:   "count <close>",
		Short: "Set the counted quantity of a denomination",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			c, err := a.resolveClose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err = a.closes.SetQuantity(cmd.Context(), c.ID, account, denom, qty)
			if err != nil {
				return err
			}
			a.record("count", fmt.Sprintf("account %d denomination %d x %d", account, denom, qty), c)
			return a.printClose(c)
		}),
	}
	accountFlag(cmd, &account)
	cmd.Flags().IntVar(&denom, "denom", 0, "denomination id")
	cmd.Flags().IntVar(&qty, "qty", 0, "counted quantity")
	_ = cmd.MarkFlagRequired("denom")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

func newCloseBadBillCommand(opts *globalOptions) *cobra.Command {
	var account, denom, qty int
	var condition, notes string

	cmd := &cobra.Command{
		Use:   "bad-bill <close>",
		Short: "Record bills set aside from the regular count",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			c, err := a.resolveClose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err = a.closes.AddBadBill(cmd.Context(), c.ID, account, closing.BadBillParams{
				DenominationID: denom,
				Quantity:       qty,
				Condition:      model.BillCondition(strings.ToLower(condition)),
				Notes:          notes,
			})
			if err != nil {
				return err
			}
			a.record("bad-bill", fmt.Sprintf("account %d denomination %d x %d %s", account, denom, qty, condition), c)
			return a.printClose(c)
		}),
	}
	accountFlag(cmd, &account)
	cmd.Flags().IntVar(&denom, "denom", 0, "denomination id of the bill")
	cmd.Flags().IntVar(&qty, "qty", 1, "number of bills")
	cmd.Flags().StringVar(&condition, "condition", string(model.ConditionDamaged), "damaged, torn, worn, counterfeit or other")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("denom")
	return cmd
}

func newCloseRemoveBadBillCommand(opts *globalOptions) *cobra.Command {
	var account, index int

	cmd := &cobra.Command{
		Use:   "remove-bad-bill <close>",
		Short: "Remove a bad-bill entry by its position (1-based)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			c, err := a.resolveClose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err = a.closes.RemoveBadBill(cmd.Context(), c.ID, account, index-1)
			if err != nil {
				return err
			}
			a.record("remove-bad-bill", fmt.Sprintf("account %d entry %d", account, index), c)
			return a.printClose(c)
		}),
	}
	accountFlag(cmd, &account)
	cmd.Flags().IntVar(&index, "index", 0, "entry position as shown by close show")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newCloseBankCommand(opts *globalOptions) *cobra.Command {
	var account int
	var amount, notes string

	cmd := &cobra.Command{
		Use:   "bank <close>",
		Short: "Record the closing balance of a bank account",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			bal, err := parseAmount(amount)
			if err != nil {
				return err
			}
			c, err := a.resolveClose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err = a.closes.SetBankLine(cmd.Context(), c.ID, closing.BankLineParams{AccountID: account, ClosingBalance: bal, Notes: notes})
			if err != nil {
				return err
			}
			a.record("bank", fmt.Sprintf("account %d balance %s", account, bal), c)
			return a.printClose(c)
		}),
	}
	accountFlag(cmd, &account)
	cmd.Flags().StringVar(&amount, "balance", "", "closing balance")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("balance")
	return cmd
}

func newCloseNotesCommand(opts *globalOptions) *cobra.Command {
	var account int
	var text string

	cmd := &cobra.Command{
		Use:   "notes <close>",
		Short: "Set the notes of a line",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			c, err := a.resolveClose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err = a.closes.SetLineNotes(cmd.Context(), c.ID, account, text)
			if err != nil {
				return err
			}
			a.record("notes", fmt.Sprintf("account %d", account), c)
			return a.printClose(c)
		}),
	}
	accountFlag(cmd, &account)
	cmd.Flags().StringVar(&text, "text", "", "notes text")
	return cmd
}

func newCloseTransitionCommand(opts *globalOptions, use, short string, run func(ctx context.Context, a *app, closeID string) (*model.Close, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <close>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			c, err := a.resolveClose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err = run(cmd.Context(), a, c.ID)
			if err != nil {
				return err
			}
			a.record(use, string(c.State), c)
			return a.printClose(c)
		}),
	}
}

func newCloseLineCommand(opts *globalOptions, use, short string, run func(ctx context.Context, a *app, closeID string, accountID int) (*model.Close, error)) *cobra.Command {
	var account int
	cmd := &cobra.Command{
		Use:   use + " <close>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			c, err := a.resolveClose(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, err = run(cmd.Context(), a, c.ID, account)
			if err != nil {
				return err
			}
			a.record(use, fmt.Sprintf("account %d", account), c)
			return a.printClose(c)
		}),
	}
	accountFlag(cmd, &account)
	return cmd
}

func accountFlag(cmd *cobra.Command, account *int) {
	cmd.Flags().IntVar(account, "account", 0, "account id of the line")
	_ = cmd.MarkFlagRequired("account")
}

func parseStates(values []string) ([]model.CloseState, error) {
	out := make([]model.CloseState, 0, len(values))
	for _, v := range values {
		s := model.CloseState(strings.ToLower(strings.TrimSpace(v)))
		if !s.Valid() {
			return nil, fmt.Errorf("unknown close state %q", v)
		}
		out = append(out, s)
	}
	return out, nil
}
