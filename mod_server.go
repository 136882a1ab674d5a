package voxelverse

import (
	"context"
	"time"

	"github.com/gekko3d/voxelverse/server"
	"github.com/gekko3d/voxelverse/world"
)

// ServerModule serves the editor over HTTP while the app runs. Structure
// uploads go through the ArchitectModule inbox when it is installed, and
// /metrics is served when MetricsModule is. When the listener cannot be
// opened the error is logged and no *server.Server resource is added.
type ServerModule struct {
	Addr            string
	Palette         []world.Color
	ShutdownTimeout time.Duration
}

func (mod ServerModule) Install(app *App, cmd *Commands) {
	ed := cmd.Editor()
	if ed == nil {
		panic("ServerModule requires EditorModule")
	}

	opts := server.Options{
		Addr:    mod.Addr,
		Logger:  cmd.Logger().Named("http"),
		Palette: mod.Palette,
	}
	if m := Resource[Metrics](app); m != nil {
		opts.Observer = m
		opts.Gatherer = m.Registry
	}
	inbox := Resource[StructureInbox](app)
	if inbox != nil {
		opts.Structures = inbox
	}

	srv := server.New(ed, opts)
	if err := srv.Start(); err != nil {
		cmd.Logger().Errorf("http server not started: %v", err)
		return
	}
	cmd.AddResources(srv)

	timeout := mod.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	app.OnClose(func() error {
		// no more ticks will run, so release handlers waiting on the inbox
		if inbox != nil {
			inbox.close()
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}
