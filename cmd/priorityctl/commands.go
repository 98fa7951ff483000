package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/satishkumarchandala/clean-India/internal/config"
	"github.com/satishkumarchandala/clean-India/internal/priority"
	"github.com/satishkumarchandala/clean-India/internal/repository/postgres"
	"github.com/satishkumarchandala/clean-India/internal/service"
)

func newScoreCmd(c *cli) *cobra.Command {
	var (
		s         priority.Snapshot
		ageDays   int
		createdAt string
		at        string
		explain   bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Scores a hypothetical issue and prints the result as JSON.",
		Example: `  priorityctl score --category water --title "Pipe burst" \
    --description "urgent leak near the school" --upvotes 12 --age-days 9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
				now = t
			}

			switch {
			case createdAt != "" && cmd.Flags().Changed("age-days"):
				return errors.New("--created-at and --age-days are mutually exclusive")
			case createdAt != "":
				t, err := time.Parse(time.RFC3339, createdAt)
				if err != nil {
					return fmt.Errorf("invalid --created-at: %w", err)
				}
				s.CreatedAt = t
			default:
				s.CreatedAt = now.Add(-time.Duration(ageDays) * 24 * time.Hour)
			}

			engine, err := c.engine()
			if err != nil {
				return err
			}
			result := engine.Compute(s, now)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if explain {
				return enc.Encode(priority.Explain(result))
			}
			return enc.Encode(result)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&s.Category, "category", "c", "", "issue category, e.g. water, road, electricity")
	f.StringVarP(&s.Title, "title", "t", "", "issue title")
	f.StringVarP(&s.Description, "description", "d", "", "issue description")
	f.StringVarP(&s.Address, "address", "a", "", "issue address")
	f.IntVarP(&s.Upvotes, "upvotes", "u", 0, "number of distinct upvotes")
	f.IntVar(&ageDays, "age-days", 0, "days since the issue was reported")
	f.StringVar(&createdAt, "created-at", "", "report time (RFC3339), instead of --age-days")
	f.StringVar(&at, "now", "", "evaluation time (RFC3339, default: current time)")
	f.BoolVarP(&explain, "explain", "e", false, "print the per-factor display breakdown")
	return cmd
}

func newPolicyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Prints the effective priority policy as YAML.",
		Long: `Prints the effective priority policy as YAML. The output can be edited and
passed back with --policy or PRIORITY_POLICY_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.settings().Policy()
			if err != nil {
				return err
			}
			out, err := p.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newRecalculateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Re-scores every stored issue against the current time.",
		Long: `Re-scores every stored issue against the current time and saves the new
priorities. A failed run reports how many issues were updated and can be
repeated safely.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if cfg.DatabaseURL == "" {
				return errors.New("a database is required: set --database-url or DATABASE_URL")
			}

			log, err := c.logger(cmd)
			if err != nil {
				return err
			}
			engine, err := c.engine()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			svc := service.NewIssueService(postgres.NewPostgresRepository(pool), engine, log)
			count, err := svc.Recalculate(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Recalculated priorities for %d issues\n", count)
			return err
		},
	}

	cmd.Flags().String("database-url", "", "PostgreSQL connection string")
	_ = c.v.BindPFlag(config.KeyDatabaseURL, cmd.Flags().Lookup("database-url"))
	return cmd
}
