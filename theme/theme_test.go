package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGPL = `GIMP Palette
Name: Mono
Columns: 2
# comment
0 0 0	black
255 255 255	white
300 0 0	out of range
`

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.gpl")
	require.NoError(t, os.WriteFile(path, []byte(testGPL), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Equal(t, "Mono", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {255, 255, 255}}, p.Colors)

	assert.Equal(t, RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(t, RGB{127, 127, 127}, p.Lookup(0.5))
	assert.Equal(t, RGB{255, 255, 255}, p.Lookup(2))
}

func TestLoadGPLErrors(t *testing.T) {
	_, err := LoadGPL(filepath.Join(t.TempDir(), "missing.gpl"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(t.TempDir(), "empty.gpl")
	require.NoError(t, os.WriteFile(empty, []byte("GIMP Palette\n"), 0644))
	_, err = LoadGPL(empty)
	assert.ErrorContains(t, err, "no colors")
}

func TestLoadDefault(t *testing.T) {
	th, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Panel", th.Palette.Name)
	assert.Equal(t, lipgloss.Color("#121014"), th.BG())
	assert.Equal(t, lipgloss.Color("#ffd24a"), th.Cursor())
	assert.Equal(t, '●', th.Symbols.Pulse)
}
