package editor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Manager keeps at most one live session per appraisal id.
type Manager struct {
	repo      Persistence
	templates TemplateSource
	opts      Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(repo Persistence, templates TemplateSource, opts Options) *Manager {
	return &Manager{
		repo:      repo,
		templates: templates,
		opts:      opts,
		sessions:  map[string]*Session{},
	}
}

// Open returns the live session for id, loading it if needed.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s, err := LoadSession(ctx, m.repo, m.templates, id, m.opts)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = s
	return s, nil
}

// Get returns the live session for id or ErrNotLoaded.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	return s, nil
}

// IDs lists the appraisals with a live session.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Close saves and closes the session for id. The session is closed even
// when the save fails; the save error is returned.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	err := s.SaveNow(ctx)
	s.Close()
	return err
}

// Discard closes the session for id without saving. It is a no-op when
// no session is live.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll saves and closes every session.
func (m *Manager) CloseAll(ctx context.Context) error {
	var errs []error
	for _, id := range m.IDs() {
		if err := m.Close(ctx, id); err != nil && !errors.Is(err, ErrNotLoaded) {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
