package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashclose/internal/accounts"
	"github.com/cleared-dev/cashclose/internal/config"
	"github.com/cleared-dev/cashclose/internal/denominations"
	"github.com/cleared-dev/cashclose/internal/gitops"
	"github.com/cleared-dev/cashclose/internal/model"
)

func newInitCommand() *cobra.Command {
	var entities []string
	var dualCurrency bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cash close repository",
		Long: `Initialize a new cash close repository.

Each --entity is CODE:CURRENCY[:Name], for example ACME:VES:Acme Stores.
A starter chart with a local cash drawer, a USD drawer and a bank account
is written for every entity.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			ents, err := parseEntities(entities)
			if err != nil {
				return err
			}
			hash, err := runInit(absDir, ents, dualCurrency)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized cash close repository at %s (%s)\n", absDir, hash)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&entities, "entity", nil, "entity as CODE:CURRENCY[:Name] (repeatable, required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().BoolVar(&dualCurrency, "dual-currency", true, "the ledger carries alternate-currency columns")

	return cmd
}

func parseEntities(specs []string) ([]config.EntityConfig, error) {
	out := make([]config.EntityConfig, 0, len(specs))
	for _, s := range specs {
		parts := strings.SplitN(s, ":", 3)
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("invalid entity %q: want CODE:CURRENCY[:Name]", s)
		}
		e := config.EntityConfig{
			Code:          strings.ToUpper(strings.TrimSpace(parts[0])),
			LocalCurrency: strings.ToUpper(strings.TrimSpace(parts[1])),
		}
		if len(parts) == 3 {
			e.Name = strings.TrimSpace(parts[2])
		}
		out = append(out, e)
	}
	return out, nil
}

func runInit(dir string, entities []config.EntityConfig, dualCurrency bool) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return "", fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}
	for _, d := range []string{"accounts", "denominations", "closes", "logs", "signatures"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(entities...)
	cfg.Ledger.DualCurrency = dualCurrency
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return "", err
	}

	var chart []model.Account
	currencies := []string{"USD", "EUR"}
	for i, e := range entities {
		chart = append(chart, accounts.DefaultChart(model.Entity{Code: e.Code, Name: e.Name, LocalCurrency: e.LocalCurrency}, 1000*(i+1))...)
		currencies = append(currencies, e.LocalCurrency)
	}
	if err := accounts.NewService(chart).Save(dir); err != nil {
		return "", fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := denominations.Default(currencies...).Save(dir); err != nil {
		return "", err
	}

	gitignore := ".env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}
	for _, keep := range []string{"closes", "logs", "signatures"} {
		if err := os.WriteFile(filepath.Join(dir, keep, ".gitkeep"), []byte{}, 0o644); err != nil {
			return "", fmt.Errorf("writing .gitkeep: %w", err)
		}
	}

	if err := gitops.Init(dir); err != nil {
		return "", err
	}
	codes := make([]string, len(entities))
	for i, e := range entities {
		codes[i] = e.Code
	}
	hash, err := gitops.CommitAll(dir, "init: cash close for "+strings.Join(codes, ", "), gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail})
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return hash, nil
}
