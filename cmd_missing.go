package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ossyrian/gbsave/internal/gamebryo"
	"github.com/ossyrian/gbsave/internal/report"
)

var missingCmd = &cobra.Command{
	Use:   "missing <save>",
	Short: "List plugins a save needs that are not active",
	Long: `missing compares the plugins a save references with the active load order.
The load order comes from --plugins-file, then active_plugins in the config,
then plugins.txt in the game's data directory. The game's core plugins are
always treated as active.`,
	Args: cobra.ExactArgs(1),
	RunE: missing,
}

func init() {
	missingCmd.Flags().String("plugins-file", "", "plugins.txt holding the active load order")
	missingCmd.Flags().StringSlice("active", nil, "active plugins, comma separated")
	missingCmd.Flags().String("data-dir", "", "the game's data directory")

	bindFlags(missingCmd.Flags(), map[string]string{
		"active_plugins": "active",
		"data_dir":       "data-dir",
	})
}

func missing(cmd *cobra.Command, args []string) error {
	layout, opts, err := layoutAndOptions()
	if err != nil {
		return err
	}

	loadOrder, err := activePlugins(cmd)
	if err != nil {
		return err
	}
	active := gamebryo.WithCorePlugins(loadOrder, layout.CorePluginsOr(cfg.CorePlugins))

	save, err := gamebryo.Open(args[0], layout, opts)
	if err != nil {
		return err
	}
	defer save.Close()

	fields, err := save.Fields()
	if err != nil {
		return err
	}
	return render(cmd, &report.MissingReport{
		Path:    save.Path(),
		Missing: gamebryo.MissingPlugins(fields, active),
	})
}

func activePlugins(cmd *cobra.Command) ([]string, error) {
	path, _ := cmd.Flags().GetString("plugins-file")
	if path == "" && len(cfg.ActivePlugins) > 0 {
		return cfg.ActivePlugins, nil
	}
	if path == "" {
		dir := cfg.LocalGame().DataDirectory()
		if dir == "" {
			return nil, fmt.Errorf("no load order: set --plugins-file, active_plugins or data_dir")
		}
		path = filepath.Join(dir, "plugins.txt")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open load order: %w", err)
	}
	defer f.Close()
	return gamebryo.ReadLoadOrder(f)
}
