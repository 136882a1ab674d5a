package voxelverse

import (
	"context"
	"errors"
	"sync"

	"github.com/gekko3d/voxelverse/editor"
	"github.com/gekko3d/voxelverse/merge"
)

var ErrInboxClosed = errors.New("structure inbox closed")

// StructureBatch is one generated or imported structure waiting to be merged.
type StructureBatch struct {
	Message    string
	Candidates []merge.Candidate

	result chan merge.Result
}

// StructureInbox queues structure batches until the next tick merges them.
// Hosts may submit from any goroutine.
type StructureInbox struct {
	mu      sync.Mutex
	pending []*StructureBatch
	closed  bool
}

// Enqueue queues a batch without waiting for it to be merged.
func (in *StructureInbox) Enqueue(message string, batch []merge.Candidate) error {
	_, err := in.push(message, batch)
	return err
}

// Submit queues a batch and waits for the tick that merges it.
func (in *StructureInbox) Submit(ctx context.Context, message string, batch []merge.Candidate) (merge.Result, error) {
	b, err := in.push(message, batch)
	if err != nil {
		return merge.Result{}, err
	}
	select {
	case res, ok := <-b.result:
		if !ok {
			return merge.Result{}, ErrInboxClosed
		}
		return res, nil
	case <-ctx.Done():
		return merge.Result{}, ctx.Err()
	}
}

func (in *StructureInbox) push(message string, batch []merge.Candidate) (*StructureBatch, error) {
	b := &StructureBatch{
		Message:    message,
		Candidates: batch,
		result:     make(chan merge.Result, 1),
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil, ErrInboxClosed
	}
	in.pending = append(in.pending, b)
	return b, nil
}

func (in *StructureInbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}

func (in *StructureInbox) drain() []*StructureBatch {
	in.mu.Lock()
	defer in.mu.Unlock()
	batches := in.pending
	in.pending = nil
	return batches
}

// close rejects further batches and releases waiters of unmerged ones.
func (in *StructureInbox) close() {
	in.mu.Lock()
	pending := in.pending
	in.pending = nil
	in.closed = true
	in.mu.Unlock()
	for _, b := range pending {
		close(b.result)
	}
}

// ArchitectModule merges structure batches once per tick, in the order they
// were submitted. It needs EditorModule installed first.
type ArchitectModule struct{}

func (mod ArchitectModule) Install(app *App, cmd *Commands) {
	if cmd.Editor() == nil {
		panic("ArchitectModule requires EditorModule")
	}
	inbox := &StructureInbox{}
	cmd.AddResources(inbox)
	app.UseSystem(
		System(architectSystem).
			InStage(Update),
	)
	app.OnClose(func() error {
		inbox.close()
		return nil
	})
}

func architectSystem(cmd *Commands, inbox *StructureInbox, ed *editor.Editor) {
	log := cmd.Logger().Named("architect")
	metrics := Resource[Metrics](cmd.app)

	for _, b := range inbox.drain() {
		res := ed.ApplyStructure(b.Candidates)
		if metrics != nil {
			metrics.ObserveMerge(res)
		}
		b.result <- res

		if len(res.Inserted) == 0 {
			log.Infof("structure %q added nothing (%d collisions, %d invalid)", b.Message, res.Collisions, res.Invalid)
			continue
		}
		log.Infof("structure %q added %d voxels (%d collisions, %d overridden)",
			b.Message, len(res.Inserted), res.Collisions, res.Overridden)
	}
}
