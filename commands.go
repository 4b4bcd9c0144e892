package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/quorumvote/attendance"
	"github.com/danielhkuo/quorumvote/auth"
	"github.com/danielhkuo/quorumvote/cliparse"
	"github.com/danielhkuo/quorumvote/db"
	"github.com/danielhkuo/quorumvote/meeting"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/quorum"
	"github.com/danielhkuo/quorumvote/serializer"
)

// openStore loads the config and opens the database for one-shot commands.
func openStore() (cliparse.Config, *sql.DB, error) {
	cfg, err := cliparse.Load(configFile)
	if err != nil {
		return cfg, nil, err
	}
	if debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	// stdout carries the command output
	commonRun(cfg.Debug, os.Stderr)

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return cfg, nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return cfg, nil, fmt.Errorf("schema creation failed: %w", err)
	}
	return cfg, conn, nil
}

func tokenCommand() *cobra.Command {
	var (
		admin bool
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a capability token with the user's current role assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := openStore()
			if err != nil {
				return err
			}
			defer conn.Close()

			userID := strings.TrimSpace(args[0])
			roles, err := meeting.NewRegistry(conn, nil, nil).RolesFor(cmd.Context(), userID)
			if err != nil {
				return err
			}

			if ttl == 0 {
				ttl = cfg.TokenTTL
			}
			token, err := auth.IssueToken(cfg.TokenSecret, auth.Capability{
				UserID: userID,
				Admin:  admin,
				Roles:  roles,
			}, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin capability")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from TOKEN_TTL)")
	return cmd
}

func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <meeting-id> <attendance.csv>",
		Short: "Replace a meeting's attendance with the rows of a CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := openStore()
			if err != nil {
				return err
			}
			defer conn.Close()

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := attendance.ReadCSV(f)
			if err != nil {
				return err
			}

			// locks are per process; against a running server only the
			// transaction keeps this replacement atomic
			lock, err := serializer.New(cfg.LockScope, nil)
			if err != nil {
				return err
			}
			stored, err := attendance.NewStore(conn, lock, nil, nil).
				ReplaceAll(cmd.Context(), args[0], attendance.FromRows(rows))
			if err != nil {
				return err
			}

			var shares int64
			for _, r := range stored {
				shares += r.Shares
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows, %s shares\n",
				len(stored), humanize.Comma(shares))
			return nil
		},
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <meeting-id>",
		Short: "Print the quorum position of a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := openStore()
			if err != nil {
				return err
			}
			defer conn.Close()

			q, err := quorum.NewCalculator(conn).Compute(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			met := "NOT MET"
			if q.Met {
				met = "MET"
			}
			fmt.Fprintf(out, "quorum %s: %.2f%% present, %.2f%% required\n",
				met, q.CurrentPercent, q.ThresholdPercent)
			fmt.Fprintf(out, "  %-10s %15s shares\n", "TOTAL", humanize.Comma(q.TotalShares))
			for _, state := range models.AllStates {
				s := q.PerState[state]
				fmt.Fprintf(out, "  %-10s %15s shares  %6.2f%%\n",
					state, humanize.Comma(s.Shares), s.PctOfTotal)
			}
			return nil
		},
	}
}
