package session

import "sync"

// Registry is the process-wide table of active sessions per group. It is
// delivery-side bookkeeping only; presence shown to clients comes from the
// store's online set, which sessions mutate in lockstep with the registry
// on every join and leave.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]map[string]*Session)}
}

// Join registers s under group. Joining twice leaves membership unchanged.
func (r *Registry) Join(group string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.groups[group]
	if set == nil {
		set = make(map[string]*Session)
		r.groups[group] = set
	}
	set[s.SubscriberID()] = s
}

// Leave deregisters s from group. Leaving a non-member group is a no-op.
func (r *Registry) Leave(group string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.groups[group]
	delete(set, s.SubscriberID())
	if len(set) == 0 {
		delete(r.groups, group)
	}
}

// Count reports the number of active sessions in a group.
func (r *Registry) Count(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[group])
}

// Members snapshots the sessions currently in a group.
func (r *Registry) Members(group string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]*Session, 0, len(r.groups[group]))
	for _, s := range r.groups[group] {
		members = append(members, s)
	}
	return members
}
