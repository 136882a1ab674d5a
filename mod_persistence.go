package voxelverse

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gekko3d/voxelverse/editor"
	"github.com/gekko3d/voxelverse/persist"
)

// Persistence tracks whether the world changed since the last save.
type Persistence struct {
	store         persist.Store
	flushInterval time.Duration

	mu        sync.Mutex
	dirty     bool
	lastFlush time.Time
	saves     int
}

func (p *Persistence) markDirty(editor.Change) {
	p.mu.Lock()
	p.dirty = true
	p.mu.Unlock()
}

// Dirty reports whether there are changes not yet written.
func (p *Persistence) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// Saves counts successful flushes.
func (p *Persistence) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Flush writes the current world if it changed since the last save.
func (p *Persistence) Flush(ctx context.Context, ed *editor.Editor) error {
	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return nil
	}
	p.dirty = false
	p.mu.Unlock()

	if err := p.store.Save(ctx, ed.World()); err != nil {
		p.mu.Lock()
		p.dirty = true
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.lastFlush = time.Now()
	p.saves++
	p.mu.Unlock()
	return nil
}

func (p *Persistence) due(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty && now.Sub(p.lastFlush) >= p.flushInterval
}

// PersistenceModule restores the world from Store when the app is built and
// writes it back after every change, at most once per FlushInterval. It
// needs EditorModule installed first.
type PersistenceModule struct {
	Store         persist.Store
	FlushInterval time.Duration
}

func (mod PersistenceModule) Install(app *App, cmd *Commands) {
	ed := cmd.Editor()
	if ed == nil {
		panic("PersistenceModule requires EditorModule")
	}
	if mod.Store == nil {
		panic("PersistenceModule requires a Store")
	}
	log := cmd.Logger().Named("persist")

	w, dropped, err := mod.Store.Load(context.Background())
	switch {
	case errors.Is(err, persist.ErrMalformed):
		log.Warnf("stored world is unreadable, starting empty: %v", err)
	case err != nil:
		log.Errorf("failed to load world, starting empty: %v", err)
	}
	rejected := ed.Load(w)
	if skipped := dropped + rejected; skipped > 0 {
		log.Warnf("skipped %d stored voxels", skipped)
	}
	log.Infof("loaded %d voxels", ed.Len())

	p := &Persistence{
		store:         mod.Store,
		flushInterval: mod.FlushInterval,
	}
	ed.Subscribe(p.markDirty)

	cmd.AddResources(p)
	app.UseSystem(
		System(persistenceSystem).
			InStage(PostUpdate),
	)
	app.OnClose(func() error {
		if err := p.Flush(context.Background(), ed); err != nil {
			log.Errorf("final save failed: %v", err)
		}
		return mod.Store.Close()
	})
}

func persistenceSystem(cmd *Commands, p *Persistence, ed *editor.Editor) {
	if !p.due(time.Now()) {
		return
	}
	if err := p.Flush(context.Background(), ed); err != nil {
		cmd.Logger().Named("persist").Errorf("save failed: %v", err)
	}
}
