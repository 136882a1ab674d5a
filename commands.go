package voxelverse

import (
	"github.com/gekko3d/voxelverse/editor"
)

// Commands is handed to modules and systems for access to the app.
type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

// Editor returns the editor resource, or nil when EditorModule is not
// installed.
func (cmd *Commands) Editor() *editor.Editor {
	return Resource[editor.Editor](cmd.app)
}
