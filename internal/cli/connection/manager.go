package connection

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"sync"
)

var (
	ErrProfileNotFound = errors.New("connection: profile not found")
	ErrNoProfile       = errors.New("connection: no active profile")
)

var profileNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,31}$`)

// Profile is a named API server. Each profile keeps its own session.
type Profile struct {
	Name   string `json:"name"`
	Server string `json:"server"`
}

// Validate checks the profile name and server URL.
func (p Profile) Validate() error {
	if !profileNamePattern.MatchString(p.Name) {
		return fmt.Errorf("invalid profile name %q", p.Name)
	}
	u, err := url.Parse(NormalizeServer(p.Server))
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid server %q", p.Server)
	}
	return nil
}

// Manager tracks the known profiles and the active one, and hands out a
// cached HTTPClient per profile.
type Manager struct {
	mu       sync.Mutex
	opts     Options
	profiles map[string]Profile
	current  string
	clients  map[string]*HTTPClient
}

// NewManager creates a manager whose clients share opts.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts,
		profiles: make(map[string]Profile),
		clients:  make(map[string]*HTTPClient),
	}
}

// Add registers or replaces a profile.
func (m *Manager) Add(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[p.Name] = p
	delete(m.clients, p.Name)
	return nil
}

// Remove forgets a profile. Removing the active profile leaves none active.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	delete(m.profiles, name)
	delete(m.clients, name)
	if m.current == name {
		m.current = ""
	}
	return nil
}

// Use makes name the active profile.
func (m *Manager) Use(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	m.current = name
	return nil
}

// Current returns the active profile.
func (m *Manager) Current() (Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[m.current]
	return p, ok
}

// Profiles returns all profiles sorted by name.
func (m *Manager) Profiles() []Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Client returns the HTTP client of the active profile.
func (m *Manager) Client() (*HTTPClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[m.current]
	if !ok {
		return nil, ErrNoProfile
	}
	if c, ok := m.clients[p.Name]; ok {
		return c, nil
	}
	c := NewHTTPClient(p.Server, m.opts)
	m.clients[p.Name] = c
	return c, nil
}
