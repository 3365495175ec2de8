package gamebryo

import (
	"fmt"
	"slices"

	"github.com/ossyrian/gbsave/internal/codec"
)

// LayoutNames lists the games LayoutFor knows, sorted.
func LayoutNames() []string {
	names := []string{"oblivion", "fallout3", "falloutnv", "skyrim", "skyrimse", "fallout4", "starfield"}
	slices.Sort(names)
	return names
}

// LayoutFor returns a fresh layout for a game short name. Callers own the
// result and may adjust it.
func LayoutFor(game string) (*Layout, error) {
	switch game {
	case "oblivion":
		return oblivionLayout(), nil
	case "fallout3":
		return fallout3Layout("fallout3", "fose", "Fallout3.esm", "Anchorage.esm", "ThePitt.esm",
			"BrokenSteel.esm", "PointLookout.esm", "Zeta.esm"), nil
	case "falloutnv":
		return fallout3Layout("falloutnv", "nvse", "FalloutNV.esm", "DeadMoney.esm", "HonestHearts.esm",
			"OldWorldBlues.esm", "LonesomeRoad.esm", "GunRunnersArsenal.esm"), nil
	case "skyrim":
		return skyrimLayout("skyrim", codec.Local8Bit, "skse"), nil
	case "skyrimse":
		return skyrimLayout("skyrimse", codec.UTF8, "skse"), nil
	case "fallout4":
		return fallout4Layout(), nil
	case "starfield":
		return starfieldLayout(), nil
	default:
		return nil, fmt.Errorf("unknown game: %s", game)
	}
}

func oblivionLayout() *Layout {
	return &Layout{
		Name:                    "oblivion",
		Magic:                   "TES4SAVEGAME",
		SaveExtension:           "ess",
		ScriptExtenderExtension: "obse",
		HeaderStrings:           codec.StringEncoding{Prefix: codec.BZString, Charset: codec.Local8Bit},
		PluginStrings:           codec.StringEncoding{Prefix: codec.BString, Charset: codec.Local8Bit},
		Header: []HeaderStep{
			{Op: HeaderSkip, N: 2},  // major, minor
			{Op: HeaderSkip, N: 16}, // exe time
			{Op: HeaderVersion},
			{Op: HeaderSkip, N: 4}, // header size
			{Op: HeaderSaveNumber},
			{Op: HeaderPCName},
			{Op: HeaderPCLevel16},
			{Op: HeaderPCLocation},
			{Op: HeaderSkip, N: 8}, // game days, game ticks
			{Op: HeaderSystemTime},
			{Op: HeaderSkip, N: 4}, // screenshot size
		},
		Trailer: []TrailerStep{
			{Op: TrailerScreenshot},
			{Op: TrailerPlugins},
		},
		CorePlugins: []string{"Oblivion.esm"},
	}
}

// fallout3Layout covers Fallout 3 and New Vegas, which share a format with
// '|' markers after every field.
func fallout3Layout(name, seExt string, core ...string) *Layout {
	strs := codec.StringEncoding{Prefix: codec.WString, Charset: codec.Local8Bit, FieldMarkers: true}
	return &Layout{
		Name:                    name,
		Magic:                   "FO3SAVEGAME",
		SaveExtension:           "fos",
		ScriptExtenderExtension: seExt,
		HeaderStrings:           strs,
		PluginStrings:           strs,
		FieldMarkers:            true,
		Header: []HeaderStep{
			{Op: HeaderSkip, N: 4}, // header size
			{Op: HeaderVersion},
			{Op: HeaderScreenshotWidth},
			{Op: HeaderScreenshotHeight},
			{Op: HeaderSaveNumber},
			{Op: HeaderPCName},
			{Op: HeaderSkipString}, // karma title
			{Op: HeaderPCLevel32},
			{Op: HeaderPCLocation},
			{Op: HeaderSkipString}, // playtime
		},
		Trailer: []TrailerStep{
			{Op: TrailerScreenshot},
			{Op: TrailerPlugins, N: 5},
		},
		CorePlugins: core,
	}
}

// skyrimLayout covers Skyrim and Skyrim Special Edition. Header version 12
// introduced compression and RGBA screenshots.
func skyrimLayout(name string, cs codec.Charset, seExt string) *Layout {
	strs := codec.StringEncoding{Prefix: codec.WString, Charset: cs}
	return &Layout{
		Name:                    name,
		Magic:                   "TESV_SAVEGAME",
		SaveExtension:           "ess",
		ScriptExtenderExtension: seExt,
		HeaderStrings:           strs,
		PluginStrings:           strs,
		Header: []HeaderStep{
			{Op: HeaderSkip, N: 4}, // header size
			{Op: HeaderVersion},
			{Op: HeaderSaveNumber},
			{Op: HeaderPCName},
			{Op: HeaderPCLevel32},
			{Op: HeaderPCLocation},
			{Op: HeaderSkipString}, // time of day
			{Op: HeaderSkipString}, // race
			{Op: HeaderSkip, N: 2}, // sex
			{Op: HeaderSkip, N: 8}, // current, required experience
			{Op: HeaderFileTime},
			{Op: HeaderScreenshotWidth},
			{Op: HeaderScreenshotHeight},
			{Op: HeaderCompression, Versions: VersionRange{Min: 12}},
		},
		Trailer: []TrailerStep{
			{Op: TrailerScreenshot, HeaderVersions: VersionRange{Max: 11}},
			{Op: TrailerScreenshot, Alpha: true, HeaderVersions: VersionRange{Min: 12}},
			{Op: TrailerOpen},
			{Op: TrailerFormatVersion},
			{Op: TrailerSkip, N: 4}, // plugin info size
			{Op: TrailerPlugins},
			{Op: TrailerLightPlugins, FormatVersions: VersionRange{Min: 78}},
		},
		CorePlugins: []string{"Skyrim.esm", "Update.esm", "Dawnguard.esm", "HearthFires.esm", "Dragonborn.esm"},
	}
}

func fallout4Layout() *Layout {
	strs := codec.StringEncoding{Prefix: codec.WString, Charset: codec.UTF8}
	return &Layout{
		Name:                    "fallout4",
		Magic:                   "FO4_SAVEGAME",
		SaveExtension:           "fos",
		ScriptExtenderExtension: "f4se",
		HeaderStrings:           strs,
		PluginStrings:           strs,
		Header: []HeaderStep{
			{Op: HeaderSkip, N: 4}, // header size
			{Op: HeaderVersion},
			{Op: HeaderSaveNumber},
			{Op: HeaderPCName},
			{Op: HeaderPCLevel32},
			{Op: HeaderPCLocation},
			{Op: HeaderSkipString}, // playtime
			{Op: HeaderSkipString}, // race
			{Op: HeaderSkip, N: 2}, // sex
			{Op: HeaderSkip, N: 8}, // current, required experience
			{Op: HeaderFileTime},
			{Op: HeaderScreenshotWidth},
			{Op: HeaderScreenshotHeight},
		},
		Trailer: []TrailerStep{
			{Op: TrailerScreenshot, Alpha: true},
			{Op: TrailerFormatVersion},
			{Op: TrailerSkipString}, // game version
			{Op: TrailerSkip, N: 4}, // plugin info size
			{Op: TrailerPlugins},
			{Op: TrailerLightPlugins, FormatVersions: VersionRange{Min: 68}},
		},
		CorePlugins: []string{"Fallout4.esm", "DLCRobot.esm", "DLCworkshop01.esm", "DLCCoast.esm",
			"DLCworkshop02.esm", "DLCworkshop03.esm", "DLCNukaWorld.esm", "DLCUltraHighResolution.esm"},
	}
}

// starfieldLayout has no screenshot and stores its trailer as chunked
// zlib. Format 122 made the custom plugin flag explicit and added the
// medium tier.
func starfieldLayout() *Layout {
	strs := codec.StringEncoding{Prefix: codec.WString, Charset: codec.UTF8}
	legacy := VersionRange{Max: 121}
	current := VersionRange{Min: 122}
	return &Layout{
		Name:                    "starfield",
		Magic:                   "SFS_SAVEGAME",
		SaveExtension:           "sfs",
		ScriptExtenderExtension: "sfse",
		HeaderStrings:           strs,
		PluginStrings:           strs,
		Header: []HeaderStep{
			{Op: HeaderSkip, N: 4}, // header size
			{Op: HeaderVersion},
			{Op: HeaderSaveNumber},
			{Op: HeaderPCName},
			{Op: HeaderPCLevel32},
			{Op: HeaderPCLocation},
			{Op: HeaderSkipString}, // playtime
			{Op: HeaderSkipString}, // race
			{Op: HeaderSkip, N: 2}, // sex
			{Op: HeaderSkip, N: 8}, // current, required experience
			{Op: HeaderFileTime},
			{Op: HeaderCompression},
		},
		Trailer: []TrailerStep{
			{Op: TrailerOpen},
			{Op: TrailerFormatVersion},
			{Op: TrailerSkipString}, // game version
			{Op: TrailerSkip, N: 4}, // plugin info size
			{Op: TrailerPlugins, CountWidth: 2, ExtraData: 1, FormatVersions: legacy},
			{Op: TrailerPlugins, CountWidth: 2, ExtraData: 2, FormatVersions: current},
			{Op: TrailerLightPlugins, ExtraData: 1, FormatVersions: legacy},
			{Op: TrailerLightPlugins, ExtraData: 2, FormatVersions: current},
			{Op: TrailerMediumPlugins, ExtraData: 2, FormatVersions: current},
		},
		CorePlugins: []string{"Starfield.esm", "Constellation.esm", "OldMars.esm", "BlueprintShips-Starfield.esm",
			"SFBGS003.esm", "SFBGS004.esm", "SFBGS006.esm", "SFBGS007.esm", "SFBGS008.esm", "ShatteredSpace.esm"},
	}
}
