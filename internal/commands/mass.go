package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashclose/internal/batch"
	"github.com/cleared-dev/cashclose/internal/render"
)

func newMassCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mass",
		Short: "Close or confirm several entities at once",
	}
	cmd.AddCommand(newMassCloseCommand(opts), newMassConfirmCommand(opts))
	return cmd
}

func newMassCloseCommand(opts *globalOptions) *cobra.Command {
	var entities []string
	var date string
	var skipExisting, generate, preview bool

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Create a close per entity for one date",
		Long: `Create a close per entity for one date.

Without --entity every configured entity is included. Each entity is
handled on its own: a failure is reported and the rest continue.`,
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			r := a.runner()
			if preview {
				p, err := r.PreviewMassClose(cmd.Context(), d, entities)
				if err != nil {
					return err
				}
				return a.print(render.ClosePreviewMarkdown(d.Format(dateFormat), p))
			}

			user, err := a.user()
			if err != nil {
				return err
			}
			res, err := r.MassClose(cmd.Context(), batch.MassCloseParams{
				Date:          d,
				Entities:      entities,
				SkipExisting:  skipExisting,
				GenerateLines: generate,
				User:          user,
			})
			if err != nil {
				return err
			}
			if len(res.Created) > 0 {
				a.record("mass-close", res.Summary(), res.Created...)
			}
			if err := a.print(render.MassCloseMarkdown(res)); err != nil {
				return err
			}
			return failedEntities(res.Failed)
		}),
	}
	cmd.Flags().StringSliceVar(&entities, "entity", nil, "entity codes (default all)")
	cmd.Flags().StringVar(&date, "date", "today", "close date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", true, "skip entities that already have a close for the date")
	cmd.Flags().BoolVar(&generate, "generate", true, "generate lines for every created close")
	cmd.Flags().BoolVar(&preview, "preview", false, "show what would happen without writing")
	return cmd
}

func newMassConfirmCommand(opts *globalOptions) *cobra.Command {
	var entities []string
	var from, to string
	var preview bool

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm every closed close in a date range",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app) error {
			f, err := parseDate(from)
			if err != nil {
				return err
			}
			t, err := parseDate(to)
			if err != nil {
				return err
			}
			r := a.runner()
			if preview {
				p, err := r.PreviewMassConfirm(cmd.Context(), f, t, entities)
				if err != nil {
					return err
				}
				return a.print(render.ConfirmPreviewMarkdown(p))
			}

			user, err := a.user()
			if err != nil {
				return err
			}
			res, err := r.MassConfirm(cmd.Context(), batch.MassConfirmParams{From: f, To: t, Entities: entities, User: user})
			if err != nil {
				return err
			}
			if len(res.Confirmed) > 0 {
				a.record("mass-confirm", res.Summary(), res.Confirmed...)
			}
			if err := a.print(render.MassConfirmMarkdown(res)); err != nil {
				return err
			}
			return failedEntities(res.Failed)
		}),
	}
	cmd.Flags().StringSliceVar(&entities, "entity", nil, "entity codes (default all)")
	cmd.Flags().StringVar(&from, "from", "today", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "today", "last date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&preview, "preview", false, "show what would happen without writing")
	return cmd
}

// failedEntities turns per-entity failures into a non-zero exit.
func failedEntities(failed []batch.EntityError) error {
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d entities failed: %w", len(failed), batch.Errors(failed))
}
