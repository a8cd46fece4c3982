package stream

import (
	"sort"
	"sync"
	"time"
)

// Session describes one live audio connection.
type Session struct {
	MeetingID   string
	UserID      string
	ConnectedAt time.Time
}

// Stats is the diagnostics snapshot exposed over HTTP.
type Stats struct {
	ActiveConnections int      `json:"activeConnections"`
	Meetings          []string `json:"meetings"`
}

// Registry tracks live connections by connection ID. All methods are safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

func (r *Registry) Add(connID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = s
}

// Remove is idempotent: removing an unknown connection is a no-op.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connID)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Stats returns the connection count and the sorted, deduplicated list of
// meetings with at least one live connection.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.sessions))
	meetings := make([]string, 0, len(r.sessions))
	for _, s := range r.sessions {
		if _, ok := seen[s.MeetingID]; ok {
			continue
		}
		seen[s.MeetingID] = struct{}{}
		meetings = append(meetings, s.MeetingID)
	}
	sort.Strings(meetings)

	return Stats{
		ActiveConnections: len(r.sessions),
		Meetings:          meetings,
	}
}
