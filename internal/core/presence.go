package core

import "sync"

// Presence tracks which users currently hold at least one joined connection.
// Entries are keyed by (userID, connectionID) so that a user joined from two
// devices stays online until the last of their connections goes away, and a
// disconnect only removes that connection's own entries.
type Presence struct {
	mu       sync.Mutex
	sessions map[int64]map[string]struct{} // userID -> connection ids
}

// NewPresence constructs an empty presence registry. One instance is owned by
// the application and injected where needed.
func NewPresence() *Presence {
	return &Presence{sessions: make(map[int64]map[string]struct{})}
}

// MarkOnline records that connID holds an open session for userID. Idempotent.
func (p *Presence) MarkOnline(userID int64, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	conns, ok := p.sessions[userID]
	if !ok {
		conns = make(map[string]struct{})
		p.sessions[userID] = conns
	}
	conns[connID] = struct{}{}
}

// MarkOffline removes connID's session for userID. Idempotent.
func (p *Presence) MarkOffline(userID int64, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	conns, ok := p.sessions[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(p.sessions, userID)
	}
}

// DropConnection removes every entry held by connID, for any user. Used at
// connection teardown; other connections' entries are untouched.
func (p *Presence) DropConnection(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for userID, conns := range p.sessions {
		if _, ok := conns[connID]; !ok {
			continue
		}
		delete(conns, connID)
		if len(conns) == 0 {
			delete(p.sessions, userID)
		}
	}
}

// IsOnline reports whether any connection holds a session for userID.
func (p *Presence) IsOnline(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions[userID]) > 0
}

// OnlineCount returns the number of distinct online users.
func (p *Presence) OnlineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}
