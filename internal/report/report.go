// Package report renders decoded saves for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/ossyrian/gbsave/internal/codec"
	"github.com/ossyrian/gbsave/internal/gamebryo"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// textWriter is implemented by every value Render accepts in text format.
type textWriter interface {
	writeText(w io.Writer) error
}

// Render writes v to w in the given format.
func Render(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		tw, ok := v.(textWriter)
		if !ok {
			return fmt.Errorf("%T has no text form", v)
		}
		return tw.writeText(w)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// SaveSummary is one row of a save listing.
type SaveSummary struct {
	Path         string    `json:"path" yaml:"path"`
	Name         string    `json:"name" yaml:"name"`
	Character    string    `json:"character" yaml:"character"`
	SaveNumber   uint32    `json:"save_number" yaml:"save_number"`
	Level        uint32    `json:"level" yaml:"level"`
	Location     string    `json:"location" yaml:"location"`
	CreationTime time.Time `json:"creation_time" yaml:"creation_time"`
	Size         int64     `json:"size" yaml:"size"`
	Compression  string    `json:"compression" yaml:"compression"`
	Files        []string  `json:"files" yaml:"files"`
}

func Summarize(s *gamebryo.SaveGame) SaveSummary {
	h := s.Header()
	return SaveSummary{
		Path:         s.Path(),
		Name:         s.Name(),
		Character:    s.SaveGroupIdentifier(),
		SaveNumber:   h.SaveNumber,
		Level:        h.PCLevel,
		Location:     h.PCLocation,
		CreationTime: h.CreationTime,
		Size:         s.Size(),
		Compression:  h.Compression.String(),
		Files:        s.AllFiles(),
	}
}

// SaveList is the output of the list command.
type SaveList struct {
	Game  string        `json:"game" yaml:"game"`
	Dir   string        `json:"dir" yaml:"dir"`
	Saves []SaveSummary `json:"saves" yaml:"saves"`
}

func (l *SaveList) writeText(w io.Writer) error {
	if len(l.Saves) == 0 {
		_, err := fmt.Fprintf(w, "no %s saves in %s\n", l.Game, l.Dir)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCHARACTER\tLEVEL\tLOCATION\tSAVED\tSIZE\tFILE")
	for _, s := range l.Saves {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			s.SaveNumber, s.Character, s.Level, s.Location,
			humanize.Time(s.CreationTime), humanize.Bytes(uint64(s.Size)), s.Path)
	}
	return tw.Flush()
}

// SaveInfo is the output of the info command.
type SaveInfo struct {
	SaveSummary   `yaml:",inline"`
	Version       uint32              `json:"version" yaml:"version"`
	FormatVersion uint8               `json:"format_version,omitempty" yaml:"format_version,omitempty"`
	Screenshot    string              `json:"screenshot,omitempty" yaml:"screenshot,omitempty"`
	Plugins       []codec.PluginEntry `json:"plugins" yaml:"plugins"`
	LightPlugins  []codec.PluginEntry `json:"light_plugins,omitempty" yaml:"light_plugins,omitempty"`
	MediumPlugins []codec.PluginEntry `json:"medium_plugins,omitempty" yaml:"medium_plugins,omitempty"`
}

// Describe decodes the trailer of s and collects everything the info
// command prints.
func Describe(s *gamebryo.SaveGame) (*SaveInfo, error) {
	f, err := s.Fields()
	if err != nil {
		return nil, err
	}
	info := &SaveInfo{
		SaveSummary:   Summarize(s),
		Version:       s.Header().Version,
		FormatVersion: f.FormatVersion,
		Plugins:       f.Plugins,
		LightPlugins:  f.LightPlugins,
		MediumPlugins: f.MediumPlugins,
	}
	if f.Screenshot != nil {
		b := f.Screenshot.Bounds()
		info.Screenshot = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
	}
	return info, nil
}

func (i *SaveInfo) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", i.Name)
	fmt.Fprintf(tw, "File:\t%s (%s)\n", i.Path, humanize.Bytes(uint64(i.Size)))
	fmt.Fprintf(tw, "Saved:\t%s (%s)\n", i.CreationTime.Format(time.DateTime), humanize.Time(i.CreationTime))
	fmt.Fprintf(tw, "Version:\t%d\n", i.Version)
	if i.FormatVersion != 0 {
		fmt.Fprintf(tw, "Format:\t%d\n", i.FormatVersion)
	}
	fmt.Fprintf(tw, "Compression:\t%s\n", i.Compression)
	if i.Screenshot != "" {
		fmt.Fprintf(tw, "Screenshot:\t%s\n", i.Screenshot)
	}
	if len(i.Files) > 1 {
		fmt.Fprintf(tw, "Attached:\t%s\n", strings.Join(i.Files[1:], ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, tier := range []struct {
		title   string
		plugins []codec.PluginEntry
	}{
		{"Plugins", i.Plugins},
		{"Light plugins", i.LightPlugins},
		{"Medium plugins", i.MediumPlugins},
	} {
		if len(tier.plugins) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d):\n", tier.title, len(tier.plugins))
		for _, p := range tier.plugins {
			line := "  " + p.Name
			if p.Creation != nil {
				line += fmt.Sprintf(" [%s: %s]", p.Creation.ID, p.Creation.Name)
			} else if p.IsCustom {
				line += " [custom]"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// MissingReport lists plugins a save needs that are not active.
type MissingReport struct {
	Path    string   `json:"path" yaml:"path"`
	Missing []string `json:"missing" yaml:"missing"`
}

func (m *MissingReport) writeText(w io.Writer) error {
	if len(m.Missing) == 0 {
		_, err := fmt.Fprintf(w, "%s: all plugins active\n", m.Path)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: %d missing\n", m.Path, len(m.Missing)); err != nil {
		return err
	}
	for _, name := range m.Missing {
		if _, err := fmt.Fprintf(w, "  %s\n", name); err != nil {
			return err
		}
	}
	return nil
}
