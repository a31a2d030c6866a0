package uplink

import (
	"sync"

	"github.com/strandbio/uplink/uplinktypes"
)

// Progress is the single consumer of the uploader's progress channel. It
// folds the latest update per file into an aggregation map on Poll and
// hands out copies on Snapshot.
//
// Part uploads send fire-and-forget: when the poller falls behind or was
// never claimed, updates are dropped rather than slowing an upload down.
// Polling at any cadence therefore always observes a consistent, possibly
// coarser, view of per-file progress.
type Progress struct {
	updates <-chan uplinktypes.ProgressUpdate

	mu    sync.Mutex
	stats map[string]uplinktypes.ProgressUpdate
}

func newProgress(updates <-chan uplinktypes.ProgressUpdate) *Progress {
	return &Progress{
		updates: updates,
		stats:   make(map[string]uplinktypes.ProgressUpdate),
	}
}

// Poll drains every pending update without blocking. The latest update
// for a file replaces any prior entry, so byte counts observed through
// Snapshot are monotonically non-decreasing per file.
func (p *Progress) Poll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		select {
		case update, ok := <-p.updates:
			if !ok {
				return
			}
			p.stats[update.Path] = update
		default:
			return
		}
	}
}

// Snapshot returns a copy of the latest update per file path. It has no
// side effects; call Poll first to fold in anything pending.
func (p *Progress) Snapshot() map[string]uplinktypes.ProgressUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]uplinktypes.ProgressUpdate, len(p.stats))
	for path, update := range p.stats {
		out[path] = update
	}
	return out
}
