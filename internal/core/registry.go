package core

import (
	"sort"
	"sync"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/rs/zerolog/log"
)

// registryImpl is a threadsafe in-memory session registry.
// It never closes adapter-owned resources.
type registryImpl struct {
	mu     sync.RWMutex
	byName map[domain.Name]Session
}

func NewRegistry() Registry {
	return &registryImpl{byName: make(map[domain.Name]Session)}
}

func (r *registryImpl) Register(name domain.Name, conn Connection) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return nil, ErrNameTaken
	}
	s := NewSession(&domain.Participant{Name: name}, conn)
	r.byName[name] = s
	log.Info().Str("module", "core.registry").Str("name", string(name)).Int("count", len(r.byName)).Msg("session registered")
	return s, nil
}

func (r *registryImpl) Unregister(s Session) bool {
	name := s.Meta().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	// A rejoin under the same name creates a distinct session; a stale
	// teardown of the old one must not evict the new one.
	current, ok := r.byName[name]
	if !ok || current != s {
		return false
	}
	delete(r.byName, name)
	log.Info().Str("module", "core.registry").Str("name", string(name)).Int("count", len(r.byName)).Msg("session unregistered")
	return true
}

func (r *registryImpl) Lookup(name domain.Name) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

func (r *registryImpl) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

func (r *registryImpl) Snapshot() []ParticipantDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ParticipantDTO, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, ParticipantDTO{Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *registryImpl) Broadcast(f Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, s := range r.byName {
		if err := s.Conn().TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, s)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.registry").Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
