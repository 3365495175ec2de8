package gamebryo

import (
	"errors"
	"fmt"

	"github.com/ossyrian/gbsave/internal/codec"
)

// HeaderOp is one instruction of a header program. Header steps run
// eagerly when a save is opened.
type HeaderOp int

const (
	// HeaderSkip skips N raw bytes.
	HeaderSkip HeaderOp = iota
	// HeaderSkipString skips one header string.
	HeaderSkipString
	// HeaderVersion reads the u32 header version used by step gates.
	HeaderVersion
	HeaderSaveNumber
	HeaderPCName
	// HeaderPCLevel16 and HeaderPCLevel32 read the level as u16 or u32.
	HeaderPCLevel16
	HeaderPCLevel32
	HeaderPCLocation
	// HeaderSystemTime reads a 16 byte SYSTEMTIME and uses it as the
	// creation time.
	HeaderSystemTime
	// HeaderFileTime reads an 8 byte FILETIME and uses it as the creation
	// time.
	HeaderFileTime
	HeaderScreenshotWidth
	HeaderScreenshotHeight
	// HeaderCompression reads the u16 compression code.
	HeaderCompression
)

// TrailerOp is one instruction of a trailer program. Trailer steps run
// lazily, the first time the plugin lists or screenshot are requested.
type TrailerOp int

const (
	// TrailerScreenshot reads the screenshot. Dimensions come from the
	// header when it had them, otherwise they precede the pixels.
	TrailerScreenshot TrailerOp = iota
	// TrailerOpen establishes the compressed stream, ignoring N bytes.
	TrailerOpen
	// TrailerFormatVersion skips N bytes then reads the u8 format version
	// used by step gates.
	TrailerFormatVersion
	TrailerSkip
	// TrailerSkipString skips N bytes then one string.
	TrailerSkipString
	TrailerPlugins
	TrailerLightPlugins
	TrailerMediumPlugins
)

// VersionRange is an inclusive range; a zero bound is open.
type VersionRange struct {
	Min uint32
	Max uint32
}

func (r VersionRange) Contains(v uint32) bool {
	if r.Min != 0 && v < r.Min {
		return false
	}
	if r.Max != 0 && v > r.Max {
		return false
	}
	return true
}

// HeaderStep is gated on the header version read so far.
type HeaderStep struct {
	Op       HeaderOp
	N        int
	Versions VersionRange
}

// TrailerStep is gated on both the header version and the in-stream
// format version.
type TrailerStep struct {
	Op         TrailerOp
	N          int
	ExtraData  int
	CountWidth int
	Alpha      bool

	HeaderVersions VersionRange
	FormatVersions VersionRange
}

// Layout describes where one game keeps its save fields.
type Layout struct {
	Name string
	// Magic is the ASCII identifier at offset 0.
	Magic                   string
	SaveExtension           string
	ScriptExtenderExtension string

	HeaderStrings codec.StringEncoding
	PluginStrings codec.StringEncoding
	// FieldMarkers makes every raw fixed-width read consume one extra
	// byte.
	FieldMarkers bool

	Header  []HeaderStep
	Trailer []TrailerStep

	// CorePlugins are the plugins shipped with the game, used when a
	// tier infers custom plugins.
	CorePlugins []string
}

// CorePluginsOr returns override when it is non-empty and the layout's own
// core plugins otherwise.
func (l *Layout) CorePluginsOr(override []string) []string {
	if len(override) > 0 {
		return override
	}
	return l.CorePlugins
}

// Validate reports layouts the decoder cannot run.
func (l *Layout) Validate() error {
	if l == nil {
		return errors.New("nil layout")
	}
	if l.Magic == "" {
		return fmt.Errorf("layout %s: empty magic", l.Name)
	}

	opens := 0
	for i, step := range l.Trailer {
		switch step.Op {
		case TrailerOpen:
			opens++
		case TrailerPlugins, TrailerLightPlugins, TrailerMediumPlugins:
			switch step.CountWidth {
			case 0, 1, 2, 4:
			default:
				return fmt.Errorf("layout %s: trailer step %d: invalid count width %d", l.Name, i, step.CountWidth)
			}
		}
		if step.N < 0 {
			return fmt.Errorf("layout %s: trailer step %d: negative length", l.Name, i)
		}
	}
	if opens > 1 {
		return fmt.Errorf("layout %s: compressed data opened %d times", l.Name, opens)
	}

	for i, step := range l.Header {
		if step.N < 0 {
			return fmt.Errorf("layout %s: header step %d: negative length", l.Name, i)
		}
	}
	return nil
}
