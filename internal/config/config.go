package config

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/ossyrian/gbsave/internal/gamebryo"
)

// Config holds app configuration
type Config struct {
	// Game is the short name of the game whose saves are read
	// (oblivion, fallout3, falloutnv, skyrim, skyrimse, fallout4, starfield)
	Game string `mapstructure:"game"`

	DataDir      string `mapstructure:"data_dir"`
	DocumentsDir string `mapstructure:"documents_dir"`
	// SavesDir overrides <documents_dir>/Saves
	SavesDir string `mapstructure:"saves_dir"`

	// CorePlugins replaces the plugins the game ships with, used to flag
	// custom plugins in saves that do not record it
	CorePlugins []string `mapstructure:"core_plugins"`
	// ActivePlugins is the load order checked by the missing command
	ActivePlugins []string `mapstructure:"active_plugins"`

	ScreenshotWidth int    `mapstructure:"screenshot_width"`
	Concurrency     int    `mapstructure:"concurrency"`
	Format          string `mapstructure:"format"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// Load decodes the settings held by v. List settings also accept a comma
// separated string so they can come from the environment.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.StringToSliceHookFunc(","))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Game == "" {
		return nil, fmt.Errorf("invalid config: no game selected")
	}
	if cfg.ScreenshotWidth < 0 {
		return nil, fmt.Errorf("invalid config: screenshot_width must not be negative")
	}
	return cfg, nil
}

// LocalGame describes the configured installation.
func (c *Config) LocalGame() gamebryo.LocalGame {
	return gamebryo.LocalGame{
		Name:      c.Game,
		DataDir:   os.ExpandEnv(c.DataDir),
		Documents: os.ExpandEnv(c.DocumentsDir),
	}
}

// SavesDirectory resolves where to look for saves.
func (c *Config) SavesDirectory() (string, error) {
	if c.SavesDir != "" {
		return os.ExpandEnv(c.SavesDir), nil
	}
	if c.DocumentsDir == "" {
		return "", fmt.Errorf("neither saves_dir nor documents_dir is set")
	}
	return gamebryo.SavesDirectory(c.LocalGame()), nil
}

// Layout returns the configured game's layout.
func (c *Config) Layout() (*gamebryo.Layout, error) {
	return gamebryo.LayoutFor(c.Game)
}

// Options builds the decoder options shared by every command.
func (c *Config) Options() gamebryo.Options {
	return gamebryo.Options{
		CorePlugins:     c.CorePlugins,
		ScreenshotWidth: c.ScreenshotWidth,
	}
}
