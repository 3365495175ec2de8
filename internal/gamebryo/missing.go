package gamebryo

import (
	"slices"
	"strings"

	"github.com/ossyrian/gbsave/internal/codec"
)

// MissingPlugins returns the plugins referenced by f, in save order across
// all tiers, that are not in active. Names compare case-insensitively.
func MissingPlugins(f *Fields, active []string) []string {
	if f == nil {
		return nil
	}
	have := make(map[string]struct{}, len(active))
	for _, name := range active {
		have[strings.ToLower(name)] = struct{}{}
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, tier := range [][]string{names(f.Plugins), names(f.LightPlugins), names(f.MediumPlugins)} {
		for _, name := range tier {
			key := strings.ToLower(name)
			if _, ok := have[key]; ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			missing = append(missing, name)
		}
	}
	return missing
}

// WithCorePlugins returns the active set for a load order read from
// plugins.txt. Newer games never list their core plugins there since they
// always load them, so core is added in front of loadOrder.
func WithCorePlugins(loadOrder, core []string) []string {
	active := make([]string, 0, len(core)+len(loadOrder))
	seen := make(map[string]struct{}, cap(active))
	for _, name := range append(slices.Clip(core), loadOrder...) {
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		active = append(active, name)
	}
	return active
}

func names(entries []codec.PluginEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
