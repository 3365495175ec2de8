package gamebryo

import "path/filepath"

// GameContext is supplied by whatever discovered the game installation.
type GameContext interface {
	DataDirectory() string
	DocumentsDirectory() string
	ShortName() string
}

// LocalGame is a GameContext built from explicit paths.
type LocalGame struct {
	Name      string
	DataDir   string
	Documents string
}

func (g LocalGame) DataDirectory() string      { return g.DataDir }
func (g LocalGame) DocumentsDirectory() string { return g.Documents }
func (g LocalGame) ShortName() string          { return g.Name }

// SavesDirectory is where the game writes its saves.
func SavesDirectory(g GameContext) string {
	return filepath.Join(g.DocumentsDirectory(), "Saves")
}
