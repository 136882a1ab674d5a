// Package editor owns the world. Every mutation goes through Editor, which
// records the pre-mutation snapshot and applies the change under one lock.
package editor

import (
	"sync"

	"github.com/gekko3d/voxelverse/history"
	"github.com/gekko3d/voxelverse/merge"
	"github.com/gekko3d/voxelverse/placement"
	"github.com/gekko3d/voxelverse/world"
)

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
	OpUndo   Op = "undo"
	OpMerge  Op = "merge"
	OpLoad   Op = "load"
)

// Change is delivered to listeners after every mutation, outside the lock.
type Change struct {
	Op    Op
	World world.World

	// Voxels are the voxels added (add, merge) or removed (remove).
	Voxels []world.Voxel
}

type Listener func(Change)

type Editor struct {
	mu        sync.Mutex
	store     *world.Store
	history   *history.History
	selection Selection
	listeners []Listener

	Picker *placement.Picker
}

// New creates an editor over an empty world. historyCapacity <= 0 uses
// history.DefaultCapacity.
func New(historyCapacity int) *Editor {
	return &Editor{
		store:     world.NewStore(),
		history:   history.New(historyCapacity),
		selection: DefaultSelection(),
		Picker:    placement.NewPicker(),
	}
}

// Subscribe registers l for every subsequent change.
func (e *Editor) Subscribe(l Listener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

func (e *Editor) World() world.World {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Len()
}

func (e *Editor) Contains(pos world.Position) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Contains(pos)
}

func (e *Editor) Voxel(id string) (world.Voxel, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(id)
}

// HistoryLen is the number of undo steps available.
func (e *Editor) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Len()
}

func (e *Editor) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

func (e *Editor) SetSelection(s Selection) {
	e.mu.Lock()
	e.selection = s
	e.mu.Unlock()
}

func (e *Editor) SetColor(c world.Color) {
	e.mu.Lock()
	e.selection.Color = c
	e.mu.Unlock()
}

func (e *Editor) SetMaterial(m world.Material) {
	e.mu.Lock()
	e.selection.Material = m
	e.mu.Unlock()
}

func (e *Editor) SetTool(t Tool) {
	e.mu.Lock()
	e.selection.Tool = t
	e.mu.Unlock()
}

// Load replaces the world without recording history, as done once at
// startup from persisted data. It also drops any undo history. It returns
// how many records were rejected for sharing a cell or identifier.
func (e *Editor) Load(w world.World) int {
	e.mu.Lock()
	dropped := e.store.Restore(w)
	e.history.Reset()
	ch := e.changeLocked(OpLoad, nil)
	e.mu.Unlock()

	e.notify(ch)
	return dropped
}

// Add places a voxel at pos with the current selection.
func (e *Editor) Add(pos world.Position) (world.Voxel, error) {
	e.mu.Lock()
	sel := e.selection
	e.mu.Unlock()
	return e.AddVoxel(pos, sel.Color, sel.Material)
}

// AddVoxel places a voxel with explicit paint. An occupied cell yields
// world.ErrAlreadyOccupied and records no history.
func (e *Editor) AddVoxel(pos world.Position, color world.Color, material world.Material) (world.Voxel, error) {
	e.mu.Lock()
	if e.store.Contains(pos) {
		e.mu.Unlock()
		return world.Voxel{}, world.ErrAlreadyOccupied
	}
	e.history.Record(e.store.Snapshot())
	v, err := e.store.Add(pos, color, material)
	if err != nil {
		// Unreachable while the lock is held; undo the snapshot anyway.
		e.history.Undo()
		e.mu.Unlock()
		return world.Voxel{}, err
	}
	ch := e.changeLocked(OpAdd, []world.Voxel{v})
	e.mu.Unlock()

	e.notify(ch)
	return v, nil
}

// Remove deletes the voxel with the given id. An unknown id yields
// world.ErrNotFound and changes nothing.
func (e *Editor) Remove(id string) error {
	e.mu.Lock()
	v, ok := e.store.Get(id)
	if !ok {
		e.mu.Unlock()
		return world.ErrNotFound
	}
	e.history.Record(e.store.Snapshot())
	if err := e.store.Remove(id); err != nil {
		e.history.Undo()
		e.mu.Unlock()
		return err
	}
	ch := e.changeLocked(OpRemove, []world.Voxel{v})
	e.mu.Unlock()

	e.notify(ch)
	return nil
}

// Clear removes every voxel. It always records a snapshot, even of an empty
// world.
func (e *Editor) Clear() {
	e.mu.Lock()
	e.history.Record(e.store.Snapshot())
	e.store.Clear()
	ch := e.changeLocked(OpClear, nil)
	e.mu.Unlock()

	e.notify(ch)
}

// Undo restores the state before the most recent mutation. It reports false,
// and changes nothing, when there is no history.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	prev, ok := e.history.Undo()
	if !ok {
		e.mu.Unlock()
		return false
	}
	e.store.Restore(prev)
	ch := e.changeLocked(OpUndo, nil)
	e.mu.Unlock()

	e.notify(ch)
	return true
}

// ApplyStructure merges a candidate batch. See merge.Apply for the rules.
func (e *Editor) ApplyStructure(batch []merge.Candidate) merge.Result {
	e.mu.Lock()
	res := merge.Apply(e.store, e.history, batch)
	if len(res.Inserted) == 0 {
		e.mu.Unlock()
		return res
	}
	ch := e.changeLocked(OpMerge, res.Inserted)
	e.mu.Unlock()

	e.notify(ch)
	return res
}

func (e *Editor) changeLocked(op Op, voxels []world.Voxel) Change {
	return Change{Op: op, World: e.store.Snapshot(), Voxels: voxels}
}

func (e *Editor) notify(ch Change) {
	e.mu.Lock()
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, l := range listeners {
		l(ch)
	}
}
