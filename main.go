package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ossyrian/gbsave/internal/config"
	"github.com/ossyrian/gbsave/internal/gamebryo"
	"github.com/ossyrian/gbsave/internal/logging"
	"github.com/ossyrian/gbsave/internal/report"
)

var (
	cfgFile   string
	cfg       *config.Config
	logCloser io.Closer
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gbsave",
	Short: "Inspect Gamebryo and Creation engine save games",
	Long: `gbsave reads the header, screenshot and plugin lists of save games written
by Oblivion, Fallout 3, New Vegas, Skyrim, Fallout 4 and Starfield.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringP("game", "g", "", "game whose saves are read ("+strings.Join(gamebryo.LayoutNames(), ", ")+")")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stderr and file)")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"game":           "game",
		"format":         "format",
		"log_level":      "log-level",
		"log_output_dir": "log-output-dir",
	})

	rootCmd.AddCommand(infoCmd, listCmd, screenshotCmd, missingCmd)
}

// bindFlags binds config keys to flags of fs.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind %s: %v", flag, err))
		}
	}
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gbsave"))
		}
		viper.AddConfigPath("/etc/gbsave")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("GBSAVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(viper.GetViper()); err != nil {
		return err
	}

	if logCloser, err = logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}
	slog.Debug("configured", "game", cfg.Game, "command", cmd.Name())
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}

// layoutAndOptions resolves the decoder inputs shared by every command.
func layoutAndOptions() (*gamebryo.Layout, gamebryo.Options, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return nil, gamebryo.Options{}, err
	}
	opts := cfg.Options()
	opts.Logger = slog.Default()
	return layout, opts, nil
}

func render(cmd *cobra.Command, v any) error {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	return report.Render(cmd.OutOrStdout(), format, v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
