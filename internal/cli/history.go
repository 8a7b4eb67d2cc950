package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dustforge/relay/internal/archive"
	"github.com/dustforge/relay/internal/config"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived sessions",
		Long: `List sessions recorded in the session-history archive, newest first.

Examples:
  relay history
  relay history --db Data/sessions.db --limit 10 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "archive database (defaults to the configured path)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many sessions (0 = all)")
	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	path := opts.Database
	if path == "" {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			return err
		}
		path = cfg.ArchivePath
	}
	if path == "" {
		return fmt.Errorf("no archive database configured")
	}

	arch, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer arch.Close()

	sessions, err := arch.ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	if opts.Limit > 0 && len(sessions) > opts.Limit {
		sessions = sessions[:opts.Limit]
	}

	if opts.Format == "json" {
		out, err := json.MarshalIndent(sessions, "", "  ")
		if err != nil {
			return fmt.Errorf("encode sessions: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	if len(sessions) == 0 {
		cmd.Println("no archived sessions")
		return nil
	}
	for _, s := range sessions {
		cmd.Printf("%s  games=%d kills=%d best_kills=%d best_level=%d levels=%d time=%.1fs best_time=%.1fs\n",
			s.RecordedAt.Format(time.DateTime),
			s.GamesPlayed, s.Kills, s.BestKills, s.BestLevel, s.LevelsGained, s.TimeAlive, s.BestTime,
		)
	}
	return nil
}
