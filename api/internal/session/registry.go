package session

import (
	"sync"

	"github.com/google/uuid"
)

// Registry holds live sessions by id.
type Registry struct {
	m sync.Map // id -> *Session
}

func NewRegistry() *Registry { return &Registry{} }

// Create opens a session under a fresh uuid.
func (r *Registry) Create() *Session {
	s := New(uuid.NewString())
	r.m.Store(s.ID, s)
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	v, ok := r.m.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// GetOrCreate is for front-ends that already own a stable id (a chat).
func (r *Registry) GetOrCreate(id string) *Session {
	if s, ok := r.Get(id); ok {
		return s
	}
	v, _ := r.m.LoadOrStore(id, New(id))
	return v.(*Session)
}

func (r *Registry) Delete(id string) { r.m.Delete(id) }
