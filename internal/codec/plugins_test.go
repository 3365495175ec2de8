package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ossyrian/gbsave/internal/codec"
	"github.com/ossyrian/gbsave/internal/stream"
	"github.com/ossyrian/gbsave/internal/testutil"
)

var wstring = codec.StringEncoding{Prefix: codec.WString}

func TestReadPluginTier_LightNoExtraData(t *testing.T) {
	names := []string{"ccBGSSSE001-Fish.esl", "ccQDRSSE001-SurvivalMode.esl", "unofficial.esl"}
	b := (&testutil.Builder{}).U16(3)
	for _, n := range names {
		b.String(n, wstring)
	}
	c := cursorOver(b.Bytes())

	got, err := codec.ReadPluginTier(c, codec.TierLight, codec.TierOptions{Strings: wstring})
	require.NoError(t, err)
	require.Equal(t, []codec.PluginEntry{
		{Name: names[0]},
		{Name: names[1]},
		{Name: names[2]},
	}, got)
	require.Equal(t, c.Size(), c.Pos())
}

func TestReadPluginTier_InferredCustom(t *testing.T) {
	b := (&testutil.Builder{}).U8(3).
		String("Skyrim.esm", wstring).
		String("MyMod.esp", wstring).
		String("Other.esp", wstring)
	c := cursorOver(b.Bytes())

	got, err := codec.ReadPluginTier(c, codec.TierFull, codec.TierOptions{
		ExtraData: 1,
		Core:      codec.NewCorePlugins("skyrim.ESM"),
		Strings:   wstring,
	})
	require.NoError(t, err)
	require.Equal(t, []codec.PluginEntry{
		{Name: "Skyrim.esm", IsCustom: false},
		{Name: "MyMod.esp", IsCustom: true},
		{Name: "Other.esp", IsCustom: true},
	}, got)
	require.Equal(t, c.Size(), c.Pos())
}

func TestReadPluginTier_ExplicitCreationData(t *testing.T) {
	b := (&testutil.Builder{}).Raw([]byte{0xde, 0xad}).U32(2)
	b.String("Starfield.esm", wstring).Bool(false)
	b.String("SFBGS003.esm", wstring).Bool(true).
		String("Tracker's Alliance", wstring).
		String("SFBGS003", wstring).
		U16(3).Raw([]byte{1, 2, 3}).
		Bool(true)
	c := cursorOver(b.Bytes())

	got, err := codec.ReadPluginTier(c, codec.TierMedium, codec.TierOptions{
		Ignore:    2,
		ExtraData: 2,
		Strings:   wstring,
	})
	require.NoError(t, err)
	require.Equal(t, []codec.PluginEntry{
		{Name: "Starfield.esm"},
		{
			Name:     "SFBGS003.esm",
			IsCustom: true,
			Creation: &codec.CreationInfo{Name: "Tracker's Alliance", ID: "SFBGS003", IsCreation: true},
		},
	}, got)
	require.Equal(t, c.Size(), c.Pos())
}

func TestReadPluginTier_CountWidths(t *testing.T) {
	tests := []struct {
		name  string
		tier  codec.Tier
		width int
		count func(b *testutil.Builder)
	}{
		{name: "full default", tier: codec.TierFull, count: func(b *testutil.Builder) { b.U8(1) }},
		{name: "light default", tier: codec.TierLight, count: func(b *testutil.Builder) { b.U16(1) }},
		{name: "medium default", tier: codec.TierMedium, count: func(b *testutil.Builder) { b.U32(1) }},
		{name: "full override", tier: codec.TierFull, width: 2, count: func(b *testutil.Builder) { b.U16(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &testutil.Builder{}
			tt.count(b)
			b.String("Plugin.esp", wstring)

			got, err := codec.ReadPluginTier(cursorOver(b.Bytes()), tt.tier, codec.TierOptions{
				CountWidth: tt.width,
				Strings:    wstring,
			})
			require.NoError(t, err)
			require.Equal(t, []codec.PluginEntry{{Name: "Plugin.esp"}}, got)
		})
	}
}

func TestReadPluginTier_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		opts    codec.TierOptions
		wantErr error
	}{
		{
			name:    "count larger than data",
			input:   (&testutil.Builder{}).U8(2).String("One.esp", wstring).Bytes(),
			opts:    codec.TierOptions{Strings: wstring},
			wantErr: stream.ErrUnexpectedEOF,
		},
		{
			name:    "ignore past end",
			input:   []byte{1},
			opts:    codec.TierOptions{Ignore: 4, Strings: wstring},
			wantErr: stream.ErrUnexpectedEOF,
		},
		{
			name:    "missing custom flag",
			input:   (&testutil.Builder{}).U8(1).String("One.esp", wstring).Bytes(),
			opts:    codec.TierOptions{ExtraData: 2, Strings: wstring},
			wantErr: stream.ErrUnexpectedEOF,
		},
		{
			name:    "huge count",
			input:   (&testutil.Builder{}).U32(0xffffffff).Bytes(),
			opts:    codec.TierOptions{CountWidth: 4, Strings: wstring},
			wantErr: stream.ErrUnexpectedEOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.ReadPluginTier(cursorOver(tt.input), codec.TierFull, tt.opts)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := codec.ReadPluginTier(cursorOver([]byte{1}), codec.TierFull, codec.TierOptions{CountWidth: 3})
	require.Error(t, err)
}
