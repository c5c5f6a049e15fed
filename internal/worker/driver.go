package worker

import (
	"context"
	"fmt"
	"log/slog"

	"clipforge/internal/cache"
	"clipforge/internal/mediaid"
	"clipforge/internal/pool"
)

// stageDriver captures the start-protocol and worker-body shape shared by
// the download and transcode stages: cache-based dedup, an index-store row,
// pool submission, and commit-to-store-before-broadcast-to-cache on every
// terminal transition. Both stages instantiate one of these rather than
// duplicating the protocol.
type stageDriver[K comparable, R any, S lifecycleState] struct {
	cache  *cache.Cache[K, S]
	pool   *pool.Pool
	logger *slog.Logger

	newZero func() S

	selectRow    func(K) (R, bool, error)
	rowStatus    func(R) mediaid.WorkerStatus
	rowHasOutput func(R) (path string, ok bool)
	insertRow    func(K) error

	// run drives the actual subprocess work, updating cell under its own
	// locking as progress arrives. It returns the artifact path on success.
	run func(ctx context.Context, key K, cell *cache.Cell[S]) (audioPath string, err error)
	// commit persists the terminal outcome (status + artifact path) to the
	// row store. Called before the cache broadcast, per the ordering
	// invariant that a waiter observing a terminal cache state must be able
	// to trust the row is already consistent with it.
	commit func(key K, status mediaid.WorkerStatus, audioPath string)
}

// TryStart implements the shared start protocol: fast-path cache hit,
// scope-guarded index consult + insert, pool submission.
func (d *stageDriver[K, R, S]) TryStart(ctx context.Context, key K) (mediaid.WorkerStatus, error) {
	cell := d.cache.EntryOrDefault(key)

	cell.Lock()
	status := cell.State().Status()
	switch status {
	case mediaid.StatusNone, mediaid.StatusFailed:
		fresh := d.newZero()
		fresh.SetStatus(mediaid.StatusQueued)
		cell.SetState(fresh)
		cell.Broadcast()
		cell.Unlock()
	default:
		cell.Unlock()
		return status, nil
	}

	armed := false
	defer func() {
		if !armed {
			cell.Lock()
			cell.SetState(d.newZero())
			cell.Broadcast()
			cell.Unlock()
		}
	}()

	row, ok, err := d.selectRow(key)
	if err != nil {
		return mediaid.StatusNone, err
	}
	if ok {
		if path, hasOutput := d.rowHasOutput(row); hasOutput && d.rowStatus(row) == mediaid.StatusFinished {
			cell.Lock()
			finished := d.newZero()
			finished.SetStatus(mediaid.StatusFinished)
			cell.SetState(finished)
			cell.Broadcast()
			cell.Unlock()
			_ = path
			armed = true
			return mediaid.StatusFinished, nil
		}
	}

	if err := d.insertRow(key); err != nil {
		return mediaid.StatusNone, err
	}

	// The worker body outlives the request that started it, so it must not
	// inherit the request's cancellation.
	bodyCtx := context.WithoutCancel(ctx)
	d.pool.Submit(func() {
		d.runWorkerBody(bodyCtx, key, cell)
	})
	armed = true
	return mediaid.StatusQueued, nil
}

func (d *stageDriver[K, R, S]) runWorkerBody(ctx context.Context, key K, cell *cache.Cell[S]) {
	audioPath, err := d.run(ctx, key, cell)

	status := mediaid.StatusFinished
	if err != nil {
		status = mediaid.StatusFailed
		d.logger.Error("worker failed", "key", keyLabel(key), "error", err)
	}

	d.commit(key, status, audioPath)

	cell.Lock()
	st := cell.State()
	st.SetStatus(status)
	if err != nil {
		st.SetFailReason(err.Error())
	}
	cell.SetState(st)
	cell.Broadcast()
	cell.Unlock()
}

// State returns a snapshot of key's current cell state, or (zero, false) if
// no cell has ever been touched for key.
func (d *stageDriver[K, R, S]) State(key K) (S, bool) {
	cell, ok := d.cache.Lookup(key)
	if !ok {
		var zero S
		return zero, false
	}
	cell.Lock()
	defer cell.Unlock()
	return cell.State(), true
}

// ResetIfNotBusy clears key's cell back to a fresh zero state, unless a
// worker is currently Queued or Running for it. Reports whether the reset
// happened (or was unnecessary because no cell exists yet).
func (d *stageDriver[K, R, S]) ResetIfNotBusy(key K) bool {
	cell, ok := d.cache.Lookup(key)
	if !ok {
		return true
	}
	cell.Lock()
	defer cell.Unlock()
	if cell.State().Status().IsBusy() {
		return false
	}
	cell.SetState(d.newZero())
	cell.Broadcast()
	return true
}

func keyLabel(key any) string {
	if s, ok := key.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(key)
}
