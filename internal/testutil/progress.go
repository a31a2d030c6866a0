package testutil

import (
	"sync"

	"github.com/strandbio/uplink/uplinktypes"
)

// RecordingCallback is a ProgressCallback implementation that captures every
// update it receives. Part uploads invoke the callback from concurrent
// workers, so all access is guarded by a mutex.
type RecordingCallback struct {
	mu      sync.Mutex
	updates []uplinktypes.ProgressUpdate
}

// OnUpdate records a progress update.
func (c *RecordingCallback) OnUpdate(u uplinktypes.ProgressUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
}

// Updates returns a copy of all recorded updates in arrival order.
func (c *RecordingCallback) Updates() []uplinktypes.ProgressUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uplinktypes.ProgressUpdate, len(c.updates))
	copy(out, c.updates)
	return out
}

// Last returns the most recently recorded update and whether one exists.
func (c *RecordingCallback) Last() (uplinktypes.ProgressUpdate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.updates) == 0 {
		return uplinktypes.ProgressUpdate{}, false
	}
	return c.updates[len(c.updates)-1], true
}

// Count returns how many updates have been recorded.
func (c *RecordingCallback) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.updates)
}

// Reset clears all recorded updates.
func (c *RecordingCallback) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = nil
}

// Ensure RecordingCallback implements the progress callback interface
var _ uplinktypes.ProgressCallback = (*RecordingCallback)(nil)
