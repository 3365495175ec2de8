package gamebryo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadLoadOrder(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "active only",
			in:   "# This file is used by the game\r\nOblivion.esm\r\n\r\nKnights.esp\r\n",
			want: []string{"Oblivion.esm", "Knights.esp"},
		},
		{
			name: "starred",
			in:   "\ufeff# comment\n*Skyrim.esm\n*Update.esm\nDisabled.esp\n* Spaced.esp\n",
			want: []string{"Skyrim.esm", "Update.esm", "Spaced.esp"},
		},
		{
			name: "windows-1252",
			in:   "Oblivion.esm\n\xc7a.esp\n",
			want: []string{"Oblivion.esm", "Ça.esp"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadLoadOrder(strings.NewReader(tt.in))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	got, err := ReadLoadOrder(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, got)
}
