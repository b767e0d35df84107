package engine

import "sync/atomic"

// Snapshot is an immutable view of every flag and experiment definition.
// Writers build a fresh Snapshot and publish it with a single pointer swap;
// readers grab the pointer once per evaluation and never block.
type Snapshot struct {
	Flags       map[string]*Flag
	Experiments map[string]*Experiment
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Flags:       map[string]*Flag{},
		Experiments: map[string]*Experiment{},
	}
}

func (s *Snapshot) Flag(key string) (*Flag, bool) {
	f, ok := s.Flags[key]
	return f, ok
}

func (s *Snapshot) Experiment(key string) (*Experiment, bool) {
	e, ok := s.Experiments[key]
	return e, ok
}

// Clone copies the maps (not the entries; entries are treated as immutable
// once published) so a writer can derive the next snapshot from the current
// one without touching what readers hold.
func (s *Snapshot) Clone() *Snapshot {
	next := &Snapshot{
		Flags:       make(map[string]*Flag, len(s.Flags)),
		Experiments: make(map[string]*Experiment, len(s.Experiments)),
	}
	for k, f := range s.Flags {
		next.Flags[k] = f
	}
	for k, e := range s.Experiments {
		next.Experiments[k] = e
	}
	return next
}

// Store publishes snapshots. Load is wait-free; Swap replaces the whole view
// atomically so concurrent readers see either the old or the new state,
// never a mix.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	s := &Store{}
	s.current.Store(NewSnapshot())
	return s
}

func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

func (s *Store) Swap(next *Snapshot) {
	if next == nil {
		next = NewSnapshot()
	}
	s.current.Store(next)
}
