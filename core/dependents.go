//go:build unix

package core

// addDependent registers d as waiting for t to terminate.
func (t *Thread) addDependent(d *Thread) {
	t.dependents = append(t.dependents, d)
}

// removeDependent drops d from t's waiters, keeping the order of the rest.
func (t *Thread) removeDependent(d *Thread) {
	for i, dep := range t.dependents {
		if dep == d {
			copy(t.dependents[i:], t.dependents[i+1:])
			t.dependents[len(t.dependents)-1] = nil
			t.dependents = t.dependents[:len(t.dependents)-1]
			return
		}
	}
}

// reviveDependentsLocked is run when t terminates. Every waiter loses its
// sync relationship; those that are not also explicitly blocked become ready
// and join the ready queue in the order they synced.
func (s *Scheduler) reviveDependentsLocked(t *Thread) {
	for _, d := range t.dependents {
		d.syncTarget = NoSyncTarget
		if d.explicitBlock {
			continue
		}
		d.status = StatusReady
		s.ready.PushBack(d)
		s.logger.Debug("sync waiter revived", F("tid", d.id), F("terminated", t.id))
	}
	clear(t.dependents)
	t.dependents = nil
}

// clearSyncLocked removes t from the dependents of the thread it waits on.
func (s *Scheduler) clearSyncLocked(t *Thread) {
	if !t.synced() {
		return
	}
	if target := s.threads[t.syncTarget]; target != nil {
		target.removeDependent(t)
	}
	t.syncTarget = NoSyncTarget
}
