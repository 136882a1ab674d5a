package voxelverse

import (
	"sync"

	"github.com/gekko3d/voxelverse/placement"
	"github.com/gekko3d/voxelverse/world"
)

// PointerEvent is one pointer interaction reported by the host. Exactly one
// of Hit or Ray is normally set: Hit when the host already hit-tested, Ray
// when the editor should pick against the world as it is when the event is
// processed. Neither set means the pointer was over nothing.
type PointerEvent struct {
	Hit   *placement.Hit
	Ray   *placement.Ray
	Alt   bool
	Hover bool
}

// PointerInput queues pointer events between ticks. Hosts may push from any
// goroutine.
type PointerInput struct {
	mu      sync.Mutex
	pending []PointerEvent
}

func (in *PointerInput) Push(ev PointerEvent) {
	in.mu.Lock()
	in.pending = append(in.pending, ev)
	in.mu.Unlock()
}

// Click queues a click on an already hit-tested surface.
func (in *PointerInput) Click(hit *placement.Hit, alt bool) {
	in.Push(PointerEvent{Hit: hit, Alt: alt})
}

// ClickScreen queues a click at pixel (x, y) of a width x height viewport.
func (in *PointerInput) ClickScreen(x, y float64, width, height int, cam placement.Camera, alt bool) {
	ray := placement.PickRay(x, y, width, height, cam)
	in.Push(PointerEvent{Ray: &ray, Alt: alt})
}

// Hover queues a pointer move used for placement preview.
func (in *PointerInput) Hover(hit *placement.Hit) {
	in.Push(PointerEvent{Hit: hit, Hover: true})
}

func (in *PointerInput) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}

func (in *PointerInput) drain() []PointerEvent {
	in.mu.Lock()
	defer in.mu.Unlock()
	events := in.pending
	in.pending = nil
	return events
}

// HoverPreview is the cell the next click would fill.
type HoverPreview struct {
	mu    sync.Mutex
	cell  world.Position
	valid bool
}

func (p *HoverPreview) Get() (world.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cell, p.valid
}

func (p *HoverPreview) set(cell world.Position, valid bool) {
	p.mu.Lock()
	p.cell, p.valid = cell, valid
	p.mu.Unlock()
}
