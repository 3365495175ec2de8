package main

import (
	"github.com/spf13/cobra"

	"github.com/ossyrian/gbsave/internal/gamebryo"
	"github.com/ossyrian/gbsave/internal/report"
)

var infoCmd = &cobra.Command{
	Use:   "info <save>",
	Short: "Show the header, screenshot size and plugin lists of a save",
	Args:  cobra.ExactArgs(1),
	RunE:  info,
}

func info(cmd *cobra.Command, args []string) error {
	layout, opts, err := layoutAndOptions()
	if err != nil {
		return err
	}

	save, err := gamebryo.Open(args[0], layout, opts)
	if err != nil {
		return err
	}
	defer save.Close()

	details, err := report.Describe(save)
	if err != nil {
		return err
	}
	return render(cmd, details)
}
