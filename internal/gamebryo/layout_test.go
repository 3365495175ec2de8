package gamebryo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ossyrian/gbsave/internal/testutil"
)

func TestLayoutFor(t *testing.T) {
	for _, name := range LayoutNames() {
		t.Run(name, func(t *testing.T) {
			l, err := LayoutFor(name)
			require.NoError(t, err)
			require.Equal(t, name, l.Name)
			require.NoError(t, l.Validate())
			require.NotEmpty(t, l.CorePlugins)
		})
	}

	_, err := LayoutFor("morrowind")
	require.Error(t, err)

	// callers get their own copy
	a, _ := LayoutFor("skyrimse")
	a.CorePlugins[0] = "changed"
	b, _ := LayoutFor("skyrimse")
	require.Equal(t, "Skyrim.esm", b.CorePlugins[0])
}

func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name   string
		layout *Layout
	}{
		{name: "nil", layout: nil},
		{name: "empty magic", layout: &Layout{Name: "x"}},
		{
			name: "opened twice",
			layout: &Layout{Magic: "X", Trailer: []TrailerStep{
				{Op: TrailerOpen}, {Op: TrailerOpen},
			}},
		},
		{
			name: "bad count width",
			layout: &Layout{Magic: "X", Trailer: []TrailerStep{
				{Op: TrailerPlugins, CountWidth: 3},
			}},
		},
		{
			name:   "negative trailer skip",
			layout: &Layout{Magic: "X", Trailer: []TrailerStep{{Op: TrailerSkip, N: -1}}},
		},
		{
			name:   "negative header skip",
			layout: &Layout{Magic: "X", Header: []HeaderStep{{Op: HeaderSkip, N: -4}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.layout.Validate())
		})
	}
}

func TestVersionRange_Contains(t *testing.T) {
	tests := []struct {
		r    VersionRange
		v    uint32
		want bool
	}{
		{VersionRange{}, 0, true},
		{VersionRange{}, 1000, true},
		{VersionRange{Min: 12}, 11, false},
		{VersionRange{Min: 12}, 12, true},
		{VersionRange{Max: 121}, 121, true},
		{VersionRange{Max: 121}, 122, false},
		{VersionRange{Min: 68, Max: 70}, 69, true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.r.Contains(tt.v), "%+v contains %d", tt.r, tt.v)
	}
}

func TestSystemTime(t *testing.T) {
	raw := func(b *testutil.Builder) [16]byte {
		var out [16]byte
		copy(out[:], b.Bytes())
		return out
	}

	got, ok := systemTime(raw((&testutil.Builder{}).SystemTime(2011, 11, 11, 23, 59, 58, 999)))
	require.True(t, ok)
	require.Equal(t, time.Date(2011, 11, 11, 23, 59, 58, 999*int(time.Millisecond), time.UTC), got)

	_, ok = systemTime(raw((&testutil.Builder{}).SystemTime(2011, 13, 1, 0, 0, 0, 0)))
	require.False(t, ok)
	_, ok = systemTime([16]byte{})
	require.False(t, ok)
}

func TestFileTime(t *testing.T) {
	want := time.Date(2015, 11, 10, 8, 30, 0, 500, time.UTC)
	got, ok := fileTime(uint64(want.UnixNano()/100) + fileTimeEpochDelta)
	require.True(t, ok)
	require.Equal(t, want.Truncate(100*time.Nanosecond), got)

	_, ok = fileTime(0)
	require.False(t, ok)
}

func TestSavesDirectory(t *testing.T) {
	g := LocalGame{Name: "skyrimse", Documents: "/docs/Skyrim Special Edition"}
	require.Equal(t, "/docs/Skyrim Special Edition/Saves", SavesDirectory(g))
	require.Equal(t, "skyrimse", g.ShortName())
}
