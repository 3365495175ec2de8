package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ossyrian/gbsave/internal/gamebryo"
	"github.com/ossyrian/gbsave/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List saves, newest first",
	Long: `list reads the header of every save in dir, or in the configured saves
directory when dir is omitted. Files that cannot be read are logged and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: list,
}

func init() {
	listCmd.Flags().String("saves-dir", "", "directory holding the saves (default <documents-dir>/Saves)")
	listCmd.Flags().String("documents-dir", "", "the game's documents directory")
	listCmd.Flags().IntP("concurrency", "j", 0, "number of saves read at once (default GOMAXPROCS)")

	bindFlags(listCmd.Flags(), map[string]string{
		"saves_dir":     "saves-dir",
		"documents_dir": "documents-dir",
		"concurrency":   "concurrency",
	})
}

func list(cmd *cobra.Command, args []string) error {
	layout, opts, err := layoutAndOptions()
	if err != nil {
		return err
	}

	var dir string
	if len(args) == 1 {
		dir = args[0]
	} else if dir, err = cfg.SavesDirectory(); err != nil {
		return err
	}

	slog.Info("listing saves", "dir", dir, "game", layout.Name)
	saves, err := gamebryo.ListSaves(cmd.Context(), dir, layout, gamebryo.ListOptions{
		Options:     opts,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return err
	}

	out := &report.SaveList{Game: layout.Name, Dir: dir, Saves: make([]report.SaveSummary, 0, len(saves))}
	for _, s := range saves {
		out.Saves = append(out.Saves, report.Summarize(s))
	}
	return render(cmd, out)
}
