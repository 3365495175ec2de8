package report

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ossyrian/gbsave/internal/codec"
	"github.com/ossyrian/gbsave/internal/gamebryo"
	"github.com/ossyrian/gbsave/internal/testutil"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestRender_Missing(t *testing.T) {
	m := &MissingReport{Path: "Save1.ess", Missing: []string{"A.esp", "B.esl"}}

	var out bytes.Buffer
	require.NoError(t, Render(&out, FormatJSON, m))
	var decoded MissingReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, *m, decoded)

	out.Reset()
	require.NoError(t, Render(&out, FormatYAML, m))
	decoded = MissingReport{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, *m, decoded)

	out.Reset()
	require.NoError(t, Render(&out, FormatText, m))
	require.Equal(t, "Save1.ess: 2 missing\n  A.esp\n  B.esl\n", out.String())

	out.Reset()
	require.NoError(t, Render(&out, FormatText, &MissingReport{Path: "Save2.ess"}))
	require.Equal(t, "Save2.ess: all plugins active\n", out.String())
}

func TestRender_Errors(t *testing.T) {
	require.Error(t, Render(io.Discard, FormatText, struct{}{}))
	require.Error(t, Render(io.Discard, Format("toml"), &MissingReport{}))
}

func TestDescribe(t *testing.T) {
	header := codec.StringEncoding{Prefix: codec.BZString, Charset: codec.Local8Bit}
	plugin := codec.StringEncoding{Prefix: codec.BString, Charset: codec.Local8Bit}
	b := (&testutil.Builder{}).Raw([]byte("TES4SAVEGAME")).
		Zeros(18).
		U32(1).U32(0).U32(3).
		String("Hero", header).U16(12).String("Anvil", header).
		Zeros(8).
		SystemTime(2006, 3, 20, 14, 30, 15, 0).
		U32(0)
	b.U32(2).U32(1).Zeros(6)
	b.U8(2).String("Oblivion.esm", plugin).String("Knights.esp", plugin)
	path := testutil.WriteFile(t, "Save 3.ess", b.Bytes())

	layout, err := gamebryo.LayoutFor("oblivion")
	require.NoError(t, err)
	s, err := gamebryo.Open(path, layout, gamebryo.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	info, err := Describe(s)
	require.NoError(t, err)
	require.Equal(t, "Hero, #3, Level 12, Anvil", info.Name)
	require.Equal(t, "2x1", info.Screenshot)
	require.Equal(t, "raw", info.Compression)
	require.Len(t, info.Plugins, 2)

	var out bytes.Buffer
	require.NoError(t, Render(&out, FormatText, info))
	require.Contains(t, out.String(), "Plugins (2):\n  Oblivion.esm\n  Knights.esp\n")
	require.Contains(t, out.String(), "2006-03-20 14:30:15")

	out.Reset()
	require.NoError(t, Render(&out, FormatJSON, info))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, "Hero", decoded["character"])
	require.EqualValues(t, 1, decoded["version"])

	list := &SaveList{Game: "oblivion", Dir: "saves", Saves: []SaveSummary{Summarize(s)}}
	out.Reset()
	require.NoError(t, Render(&out, FormatText, list))
	require.Contains(t, out.String(), "Hero")

	out.Reset()
	require.NoError(t, Render(&out, FormatText, &SaveList{Game: "oblivion", Dir: "saves"}))
	require.Equal(t, "no oblivion saves in saves\n", out.String())
}
