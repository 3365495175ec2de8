package codec

import (
	"fmt"
	"strings"

	"github.com/ossyrian/gbsave/internal/stream"
)

// Tier is one of the plugin lists stored in a save.
type Tier int

const (
	// TierFull is the ESM/ESP list.
	TierFull Tier = iota
	// TierLight is the ESL list.
	TierLight
	// TierMedium is the ESH list.
	TierMedium
)

func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierLight:
		return "light"
	case TierMedium:
		return "medium"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// CountWidth is the default size in bytes of the tier's entry count.
func (t Tier) CountWidth() int {
	switch t {
	case TierLight:
		return 2
	case TierMedium:
		return 4
	default:
		return 1
	}
}

// PluginEntry is one plugin referenced by a save.
type PluginEntry struct {
	Name     string        `json:"name" yaml:"name"`
	IsCustom bool          `json:"is_custom,omitempty" yaml:"is_custom,omitempty"`
	Creation *CreationInfo `json:"creation,omitempty" yaml:"creation,omitempty"`
}

// CreationInfo is the Creation Club metadata stored after custom plugins.
type CreationInfo struct {
	Name       string `json:"name" yaml:"name"`
	ID         string `json:"id" yaml:"id"`
	IsCreation bool   `json:"is_creation" yaml:"is_creation"`
}

// CorePlugins is a case-insensitive set of plugin names shipped with the
// game.
type CorePlugins map[string]struct{}

// NewCorePlugins builds a set from names.
func NewCorePlugins(names ...string) CorePlugins {
	set := make(CorePlugins, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}

func (c CorePlugins) Contains(name string) bool {
	_, ok := c[strings.ToLower(name)]
	return ok
}

// TierOptions describes how one plugin tier is laid out.
type TierOptions struct {
	// CountWidth is 1, 2 or 4. Zero means the tier's default.
	CountWidth int
	// Ignore bytes are skipped before the count.
	Ignore int
	// ExtraData selects the per-entry provenance record:
	//   0: none
	//   1: IsCustom inferred from CorePlugins, nothing read
	//   2+: explicit custom flag, followed by creation metadata when set
	ExtraData int
	Core      CorePlugins
	Strings   StringEncoding
}

// maxPreallocEntries caps the capacity reserved from an untrusted count.
const maxPreallocEntries = 1024

// ReadPluginTier decodes one count-prefixed plugin list.
func ReadPluginTier(src stream.Source, tier Tier, opts TierOptions) ([]PluginEntry, error) {
	if opts.Ignore > 0 {
		if err := src.Skip(int64(opts.Ignore)); err != nil {
			return nil, fmt.Errorf("failed to skip %d bytes before %s plugins: %w", opts.Ignore, tier, err)
		}
	}

	width := opts.CountWidth
	if width == 0 {
		width = tier.CountWidth()
	}

	var count uint32
	switch width {
	case 1:
		c, err := stream.Read[uint8](src)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s plugin count: %w", tier, err)
		}
		count = uint32(c)
	case 2:
		c, err := stream.Read[uint16](src)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s plugin count: %w", tier, err)
		}
		count = uint32(c)
	case 4:
		c, err := stream.Read[uint32](src)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s plugin count: %w", tier, err)
		}
		count = c
	default:
		return nil, fmt.Errorf("invalid plugin count width: %d", width)
	}

	plugins := make([]PluginEntry, 0, min(count, maxPreallocEntries))
	for i := range count {
		entry, err := readPluginEntry(src, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s plugin %d of %d: %w", tier, i, count, err)
		}
		plugins = append(plugins, entry)
	}
	return plugins, nil
}

func readPluginEntry(src stream.Source, opts TierOptions) (PluginEntry, error) {
	var (
		entry PluginEntry
		err   error
	)
	if entry.Name, err = ReadString(src, opts.Strings); err != nil {
		return entry, fmt.Errorf("failed to read name: %w", err)
	}

	switch {
	case opts.ExtraData <= 0:
		return entry, nil
	case opts.ExtraData == 1:
		entry.IsCustom = !opts.Core.Contains(entry.Name)
		return entry, nil
	}

	if entry.IsCustom, err = stream.ReadBool(src); err != nil {
		return entry, fmt.Errorf("failed to read custom flag for %s: %w", entry.Name, err)
	}
	if !entry.IsCustom {
		return entry, nil
	}

	info := &CreationInfo{}
	if info.Name, err = ReadString(src, opts.Strings); err != nil {
		return entry, fmt.Errorf("failed to read creation name for %s: %w", entry.Name, err)
	}
	if info.ID, err = ReadString(src, opts.Strings); err != nil {
		return entry, fmt.Errorf("failed to read creation id for %s: %w", entry.Name, err)
	}
	flagsSize, err := stream.Read[uint16](src)
	if err != nil {
		return entry, fmt.Errorf("failed to read creation flags size for %s: %w", entry.Name, err)
	}
	if err := src.Skip(int64(flagsSize)); err != nil {
		return entry, fmt.Errorf("failed to skip creation flags for %s: %w", entry.Name, err)
	}
	if info.IsCreation, err = stream.ReadBool(src); err != nil {
		return entry, fmt.Errorf("failed to read creation flag for %s: %w", entry.Name, err)
	}
	entry.Creation = info
	return entry, nil
}
