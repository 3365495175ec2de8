package main

import (
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ossyrian/gbsave/internal/gamebryo"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot <save> <output.png>",
	Short: "Extract the screenshot of a save as PNG",
	Args:  cobra.ExactArgs(2),
	RunE:  screenshot,
}

func init() {
	screenshotCmd.Flags().IntP("width", "w", 0, "scale the screenshot to this width, keeping the aspect ratio")

	bindFlags(screenshotCmd.Flags(), map[string]string{
		"screenshot_width": "width",
	})
}

func screenshot(cmd *cobra.Command, args []string) (err error) {
	layout, opts, err := layoutAndOptions()
	if err != nil {
		return err
	}

	save, err := gamebryo.Open(args[0], layout, opts)
	if err != nil {
		return err
	}
	defer save.Close()

	img, err := save.Screenshot()
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("%s saves carry no screenshot", layout.Name)
	}

	f, err := os.Create(args[1])
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}

	b := img.Bounds()
	slog.Info("wrote screenshot", "path", args[1], "width", b.Dx(), "height", b.Dy())
	return nil
}
