// Package gamebryo decodes save games of Gamebryo and Creation engine
// titles, driven by a per-game Layout.
package gamebryo

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ossyrian/gbsave/internal/codec"
	"github.com/ossyrian/gbsave/internal/stream"
)

// ErrClosed is returned by accessors of a closed SaveGame.
var ErrClosed = errors.New("save game closed")

// State tracks how far a SaveGame has been decoded.
type State int

const (
	StateUnopened State = iota
	StateHeaderRead
	StateTrailerOpened
	StateFieldsDecoded
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateHeaderRead:
		return "header-read"
	case StateTrailerOpened:
		return "trailer-opened"
	case StateFieldsDecoded:
		return "fields-decoded"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Header holds the fields read eagerly when a save is opened.
type Header struct {
	Version          uint32             `json:"version" yaml:"version"`
	SaveNumber       uint32             `json:"save_number" yaml:"save_number"`
	PCName           string             `json:"pc_name" yaml:"pc_name"`
	PCLevel          uint32             `json:"pc_level" yaml:"pc_level"`
	PCLocation       string             `json:"pc_location" yaml:"pc_location"`
	CreationTime     time.Time          `json:"creation_time" yaml:"creation_time"`
	ScreenshotWidth  uint32             `json:"screenshot_width,omitempty" yaml:"screenshot_width,omitempty"`
	ScreenshotHeight uint32             `json:"screenshot_height,omitempty" yaml:"screenshot_height,omitempty"`
	Compression      stream.Compression `json:"-" yaml:"-"`
}

// Fields holds the expensive trailer data. It is never modified after
// being returned.
type Fields struct {
	FormatVersion uint8
	Plugins       []codec.PluginEntry
	LightPlugins  []codec.PluginEntry
	MediumPlugins []codec.PluginEntry
	Screenshot    *image.RGBA
}

// Options tune how a save is decoded.
type Options struct {
	Logger *slog.Logger
	// CorePlugins replaces the layout's list when non-empty.
	CorePlugins []string
	// ScreenshotWidth, when non-zero, downscales the screenshot.
	ScreenshotWidth int
}

// SaveGame is one save file bound to its game layout. The header is read
// by Open; plugin lists and screenshot are decoded once, on first use.
// SaveGame is safe for concurrent use.
type SaveGame struct {
	path   string
	layout *Layout
	opts   Options
	logger *slog.Logger
	size   int64
	header Header

	// trailerOffset is where the header program stopped.
	trailerOffset int64

	mu     sync.Mutex
	state  State
	fields *Fields
	group  singleflight.Group

	// onDecode is called at the start of every trailer decode.
	onDecode func()
}

// Open reads the header of the save at path.
func Open(path string, layout *Layout, opts Options) (*SaveGame, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &SaveGame{
		path:   path,
		layout: layout,
		opts:   opts,
		logger: logger.With("file", path, "game", layout.Name),
	}
	if err := s.readHeader(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *SaveGame) readHeader() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open save: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat save: %w", err)
	}
	s.size = info.Size()
	s.header.CreationTime = info.ModTime()

	cursor := stream.NewCursor(f, s.size)
	cursor.SetFieldMarkers(s.layout.FieldMarkers)

	magic := make([]byte, len(s.layout.Magic))
	if err := cursor.ReadFull(magic); err != nil {
		return fmt.Errorf("failed to read magic: %w", err)
	}
	if string(magic) != s.layout.Magic {
		got := string(magic)
		if i := strings.IndexByte(got, 0); i >= 0 {
			got = got[:i]
		}
		return &stream.FormatError{Expected: s.layout.Magic, Got: strings.ToValidUTF8(got, "?")}
	}

	for i, step := range s.layout.Header {
		if !step.Versions.Contains(s.header.Version) {
			continue
		}
		if err := s.runHeaderStep(cursor, step); err != nil {
			return fmt.Errorf("header step %d: %w", i, err)
		}
	}

	s.trailerOffset = cursor.Pos()
	s.state = StateHeaderRead

	s.logger.Debug("header is valid",
		"version", s.header.Version,
		"save_number", s.header.SaveNumber,
		"pc_name", s.header.PCName,
		"pc_level", s.header.PCLevel,
		"compression", s.header.Compression,
		"trailer_offset", s.trailerOffset,
	)
	return nil
}

func (s *SaveGame) runHeaderStep(c *stream.Cursor, step HeaderStep) error {
	h := &s.header
	var err error

	switch step.Op {
	case HeaderSkip:
		if err = c.Skip(int64(step.N)); err != nil {
			return fmt.Errorf("failed to skip %d bytes: %w", step.N, err)
		}
	case HeaderSkipString:
		if err = codec.SkipString(c, s.layout.HeaderStrings); err != nil {
			return fmt.Errorf("failed to skip string: %w", err)
		}
	case HeaderVersion:
		if h.Version, err = stream.Read[uint32](c); err != nil {
			return fmt.Errorf("failed to read header version: %w", err)
		}
	case HeaderSaveNumber:
		if h.SaveNumber, err = stream.Read[uint32](c); err != nil {
			return fmt.Errorf("failed to read save number: %w", err)
		}
	case HeaderPCName:
		if h.PCName, err = codec.ReadString(c, s.layout.HeaderStrings); err != nil {
			return fmt.Errorf("failed to read pc name: %w", err)
		}
	case HeaderPCLevel16:
		level, err := stream.Read[uint16](c)
		if err != nil {
			return fmt.Errorf("failed to read pc level: %w", err)
		}
		h.PCLevel = uint32(level)
	case HeaderPCLevel32:
		if h.PCLevel, err = stream.Read[uint32](c); err != nil {
			return fmt.Errorf("failed to read pc level: %w", err)
		}
	case HeaderPCLocation:
		if h.PCLocation, err = codec.ReadString(c, s.layout.HeaderStrings); err != nil {
			return fmt.Errorf("failed to read pc location: %w", err)
		}
	case HeaderSystemTime:
		var raw [16]byte
		if err = c.ReadFull(raw[:]); err != nil {
			return fmt.Errorf("failed to read save time: %w", err)
		}
		if t, ok := systemTime(raw); ok {
			h.CreationTime = t
		}
	case HeaderFileTime:
		ft, err := stream.Read[uint64](c)
		if err != nil {
			return fmt.Errorf("failed to read save time: %w", err)
		}
		if t, ok := fileTime(ft); ok {
			h.CreationTime = t
		}
	case HeaderScreenshotWidth:
		if h.ScreenshotWidth, err = stream.Read[uint32](c); err != nil {
			return fmt.Errorf("failed to read screenshot width: %w", err)
		}
	case HeaderScreenshotHeight:
		if h.ScreenshotHeight, err = stream.Read[uint32](c); err != nil {
			return fmt.Errorf("failed to read screenshot height: %w", err)
		}
	case HeaderCompression:
		code, err := stream.Read[uint16](c)
		if err != nil {
			return fmt.Errorf("failed to read compression type: %w", err)
		}
		if h.Compression, err = stream.ParseCompression(code); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown header op: %d", step.Op)
	}
	return nil
}

// Fields decodes the trailer on first use and returns the cached result
// afterwards. Concurrent callers share a single decode; a failed decode is
// not cached and is retried by the next call.
func (s *SaveGame) Fields() (*Fields, error) {
	if f, err := s.cached(); f != nil || err != nil {
		return f, err
	}

	v, err, _ := s.group.Do("fields", func() (any, error) {
		if f, err := s.cached(); f != nil || err != nil {
			return f, err
		}

		f, err := s.decodeFields()
		if err != nil {
			s.logger.Debug("failed to decode fields", "error", err)
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateClosed {
			return nil, ErrClosed
		}
		s.fields = f
		s.state = StateFieldsDecoded
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Fields), nil
}

func (s *SaveGame) cached() (*Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, ErrClosed
	}
	return s.fields, nil
}

func (s *SaveGame) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		s.state = state
	}
}

func (s *SaveGame) decodeFields() (*Fields, error) {
	if s.onDecode != nil {
		s.onDecode()
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open save: %w", s.path, err)
	}
	defer f.Close()

	cursor := stream.NewCursor(f, s.size)
	cursor.SetFieldMarkers(s.layout.FieldMarkers)
	if err := cursor.SeekTo(s.trailerOffset); err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	ctx := stream.NewContext(cursor, s.logger)
	defer ctx.Close()
	if err := ctx.SetCompressionType(s.header.Compression); err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	d := &trailerDecoder{
		save: s,
		ctx:  ctx,
		core: codec.NewCorePlugins(s.layout.CorePluginsOr(s.opts.CorePlugins)...),
	}
	for i, step := range s.layout.Trailer {
		if !step.HeaderVersions.Contains(s.header.Version) ||
			!step.FormatVersions.Contains(uint32(d.fields.FormatVersion)) {
			continue
		}
		if err := d.run(step); err != nil {
			return nil, fmt.Errorf("%s: trailer step %d: %w", s.path, i, err)
		}
	}

	s.logger.Debug("decoded fields",
		"format_version", d.fields.FormatVersion,
		"plugins", len(d.fields.Plugins),
		"light_plugins", len(d.fields.LightPlugins),
		"medium_plugins", len(d.fields.MediumPlugins),
		"screenshot", d.fields.Screenshot != nil,
	)
	return &d.fields, nil
}

type trailerDecoder struct {
	save   *SaveGame
	ctx    *stream.Context
	core   codec.CorePlugins
	fields Fields
}

func (d *trailerDecoder) run(step TrailerStep) error {
	s := d.save
	switch step.Op {
	case TrailerScreenshot:
		img, err := codec.ReadImage(d.ctx, codec.ImageOptions{
			Width:  s.header.ScreenshotWidth,
			Height: s.header.ScreenshotHeight,
			Scale:  s.opts.ScreenshotWidth,
			Alpha:  step.Alpha,
		})
		if err != nil {
			return err
		}
		d.fields.Screenshot = img

	case TrailerOpen:
		ok, err := d.ctx.Open(step.N)
		if err != nil {
			return fmt.Errorf("failed to open %s trailer: %w", d.ctx.Kind(), err)
		}
		s.setState(StateTrailerOpened)
		s.logger.Debug("trailer opened", "compression", d.ctx.Kind(), "decompressed", ok)

	case TrailerFormatVersion:
		if err := d.ctx.Skip(int64(step.N)); err != nil {
			return err
		}
		v, err := stream.Read[uint8](d.ctx)
		if err != nil {
			return fmt.Errorf("failed to read format version: %w", err)
		}
		d.fields.FormatVersion = v

	case TrailerSkip:
		if err := d.ctx.Skip(int64(step.N)); err != nil {
			return fmt.Errorf("failed to skip %d bytes: %w", step.N, err)
		}

	case TrailerSkipString:
		if err := d.ctx.Skip(int64(step.N)); err != nil {
			return err
		}
		if err := codec.SkipString(d.ctx, s.layout.PluginStrings); err != nil {
			return fmt.Errorf("failed to skip string: %w", err)
		}

	case TrailerPlugins, TrailerLightPlugins, TrailerMediumPlugins:
		tier := codec.TierFull
		dst := &d.fields.Plugins
		switch step.Op {
		case TrailerLightPlugins:
			tier, dst = codec.TierLight, &d.fields.LightPlugins
		case TrailerMediumPlugins:
			tier, dst = codec.TierMedium, &d.fields.MediumPlugins
		}
		plugins, err := codec.ReadPluginTier(d.ctx, tier, codec.TierOptions{
			CountWidth: step.CountWidth,
			Ignore:     step.N,
			ExtraData:  step.ExtraData,
			Core:       d.core,
			Strings:    s.layout.PluginStrings,
		})
		if err != nil {
			return err
		}
		*dst = plugins

	default:
		return fmt.Errorf("unknown trailer op: %d", step.Op)
	}
	return nil
}

// Close releases the cached fields. Every accessor fails afterwards.
func (s *SaveGame) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = nil
	s.state = StateClosed
	return nil
}

// State reports the current decoding state.
func (s *SaveGame) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SaveGame) Path() string            { return s.path }
func (s *SaveGame) Layout() *Layout         { return s.layout }
func (s *SaveGame) Size() int64             { return s.size }
func (s *SaveGame) Header() Header          { return s.header }
func (s *SaveGame) PCName() string          { return s.header.PCName }
func (s *SaveGame) PCLevel() uint32         { return s.header.PCLevel }
func (s *SaveGame) PCLocation() string      { return s.header.PCLocation }
func (s *SaveGame) SaveNumber() uint32      { return s.header.SaveNumber }
func (s *SaveGame) CreationTime() time.Time { return s.header.CreationTime }

// Name is the display name shown in save lists.
func (s *SaveGame) Name() string {
	return fmt.Sprintf("%s, #%d, Level %d, %s", s.header.PCName, s.header.SaveNumber, s.header.PCLevel, s.header.PCLocation)
}

// SaveGroupIdentifier groups saves by character.
func (s *SaveGame) SaveGroupIdentifier() string {
	return s.header.PCName
}

func (s *SaveGame) Plugins() ([]codec.PluginEntry, error) {
	f, err := s.Fields()
	if err != nil {
		return nil, err
	}
	return f.Plugins, nil
}

func (s *SaveGame) LightPlugins() ([]codec.PluginEntry, error) {
	f, err := s.Fields()
	if err != nil {
		return nil, err
	}
	return f.LightPlugins, nil
}

func (s *SaveGame) MediumPlugins() ([]codec.PluginEntry, error) {
	f, err := s.Fields()
	if err != nil {
		return nil, err
	}
	return f.MediumPlugins, nil
}

func (s *SaveGame) Screenshot() (*image.RGBA, error) {
	f, err := s.Fields()
	if err != nil {
		return nil, err
	}
	return f.Screenshot, nil
}

// scriptExtenderPath is the cosave path next to the save, or "" when the
// game has no script extender.
func (s *SaveGame) scriptExtenderPath() string {
	ext := s.layout.ScriptExtenderExtension
	if ext == "" {
		return ""
	}
	return strings.TrimSuffix(s.path, filepath.Ext(s.path)) + "." + ext
}

// HasScriptExtenderFile reports whether a cosave sits next to the save.
func (s *SaveGame) HasScriptExtenderFile() bool {
	p := s.scriptExtenderPath()
	if p == "" {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// AllFiles lists the save and its attached files.
func (s *SaveGame) AllFiles() []string {
	files := []string{s.path}
	if s.HasScriptExtenderFile() {
		files = append(files, s.scriptExtenderPath())
	}
	return files
}
