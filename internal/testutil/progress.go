package testutil

import "sync"

// ProgressUpdate is a single progress notification.
type ProgressUpdate struct {
	Total int64
	Sent  int64
}

// ProgressRecorder records progress notifications in the order they arrive.
type ProgressRecorder struct {
	mu      sync.Mutex
	updates []ProgressUpdate
}

func (r *ProgressRecorder) Record(total, sent int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, ProgressUpdate{Total: total, Sent: sent})
}

func (r *ProgressRecorder) Updates() []ProgressUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ProgressUpdate(nil), r.updates...)
}

// StrictlyIncreasing reports whether every update sent more than the one
// before it.
func (r *ProgressRecorder) StrictlyIncreasing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 1; i < len(r.updates); i++ {
		if r.updates[i].Sent <= r.updates[i-1].Sent {
			return false
		}
	}
	return true
}

// Last returns the final update, or the zero value when nothing was recorded.
func (r *ProgressRecorder) Last() ProgressUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return ProgressUpdate{}
	}
	return r.updates[len(r.updates)-1]
}
