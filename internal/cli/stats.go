package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dustforge/relay/internal/config"
	"github.com/dustforge/relay/internal/serializer"
	"github.com/dustforge/relay/internal/stats"
	"github.com/dustforge/relay/internal/trace"
)

// StatsOptions holds flags for the stats subcommands.
type StatsOptions struct {
	*RootOptions
	File string
}

// NewStatsCommand creates the stats command group.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Inspect or reset the persisted game stats",
	}
	cmd.PersistentFlags().StringVar(&opts.File, "file", "", "stats file (defaults to the configured path)")

	cmd.AddCommand(newStatsShowCommand(opts))
	cmd.AddCommand(newStatsResetCommand(opts))
	return cmd
}

func newStatsShowCommand(opts *StatsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the persisted stat groups",
		Long: `Print every stat group in the persisted stats document.

Examples:
  relay stats show
  relay stats show --file Data/JSONS/GameStats.json --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatsShow(opts, cmd)
		},
	}
}

func newStatsResetCommand(opts *StatsOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset persisted stat groups to tag-zero",
		Long: `Reset the Game and Session groups in the persisted stats document.

Lifetime is preserved unless --all is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatsReset(opts, cmd, all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also reset the Lifetime group")
	return cmd
}

func (o *StatsOptions) statsPath() (string, error) {
	if o.File != "" {
		return o.File, nil
	}
	cfg, err := config.Load(o.Config)
	if err != nil {
		return "", err
	}
	return cfg.StatsPath, nil
}

func runStatsShow(opts *StatsOptions, cmd *cobra.Command) error {
	path, err := opts.statsPath()
	if err != nil {
		return err
	}

	ser := serializer.New()
	if err := ser.ReadFile(path); err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	groups, ok := stringListFrom(ser, "Stat Groups")
	if !ok {
		return fmt.Errorf("%s has no \"Stat Groups\" index", path)
	}
	names, ok := stringListFrom(ser, "Stat Names")
	if !ok {
		return fmt.Errorf("%s has no \"Stat Names\" index", path)
	}

	// Present names in collation order rather than byte order.
	coll := collate.New(language.English)
	coll.SortStrings(groups)
	coll.SortStrings(names)

	doc := make(map[string]map[string]any, len(groups))
	for _, group := range groups {
		doc[group] = make(map[string]any)
		for _, name := range names {
			if v, ok := ser.GetData(group + "." + name); ok {
				doc[group][name] = v
			}
		}
	}

	if opts.Format == "json" {
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	for _, group := range groups {
		cmd.Printf("%s:\n", group)
		for _, name := range names {
			if v, ok := doc[group][name]; ok {
				cmd.Printf("  %-14s %v\n", name, v)
			}
		}
	}
	return nil
}

func runStatsReset(opts *StatsOptions, cmd *cobra.Command, all bool) error {
	path, err := opts.statsPath()
	if err != nil {
		return err
	}

	reg := stats.New(nil, trace.Nop{}, stats.WithStatsPath(path))
	reg.Deserialize()
	if all {
		reg.ResetAllStats()
	} else {
		reg.ResetStats(stats.GroupGame)
		reg.ResetStats(stats.GroupSession)
	}
	reg.Serialize()

	if opts.Verbose {
		if all {
			cmd.Println("reset all stat groups")
		} else {
			cmd.Println("reset Game and Session stat groups")
		}
	}
	return nil
}

func stringListFrom(ser *serializer.Serializer, key string) ([]string, bool) {
	raw, ok := ser.GetData(key)
	if !ok {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
