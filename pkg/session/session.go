// Package session implements the per-L4-5-tuple session table every
// L3-capable node's session manager multiplexes outbound traffic through
// (spec.md §4.4). Sessions are weak relations: either endpoint may expire
// its own entry on timeout without needing to notify the other side.
package session

import (
	"strconv"

	"github.com/cyberrange/rangesim/pkg/model"
)

// Direction is which side of the session this node is.
type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// Session is one live 5-tuple flow.
type Session struct {
	ID        model.ID
	SrcIP     string
	DstIP     string
	SrcPort   int
	DstPort   int
	Protocol  model.IPProtocol
	Direction Direction

	TimeoutTicks    int
	remainingTicks  int
}

// Manager multiplexes sessions keyed by their 5-tuple.
type Manager struct {
	sessions map[string]*Session
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

func key(srcIP, dstIP string, srcPort, dstPort int, protocol model.IPProtocol) string {
	return srcIP + "|" + dstIP + "|" + strconv.Itoa(srcPort) + "|" + strconv.Itoa(dstPort) + "|" + string(protocol)
}

// Open creates (or refreshes) a session for the given 5-tuple, with
// timeoutTicks as its remaining-session budget.
func (m *Manager) Open(srcIP, dstIP string, srcPort, dstPort int, protocol model.IPProtocol, dir Direction, timeoutTicks int) *Session {
	k := key(srcIP, dstIP, srcPort, dstPort, protocol)
	if s, ok := m.sessions[k]; ok {
		s.remainingTicks = timeoutTicks
		return s
	}
	s := &Session{
		ID: model.NewID(), SrcIP: srcIP, DstIP: dstIP, SrcPort: srcPort, DstPort: dstPort,
		Protocol: protocol, Direction: dir, TimeoutTicks: timeoutTicks, remainingTicks: timeoutTicks,
	}
	m.sessions[k] = s
	return s
}

// ApplyTimestep decrements every open session's remaining budget, removing
// sessions that hit zero (spec.md §5: "per-session countdown ... expires
// them in apply_timestep").
func (m *Manager) ApplyTimestep() {
	for k, s := range m.sessions {
		if s.remainingTicks <= 0 {
			delete(m.sessions, k)
			continue
		}
		s.remainingTicks--
		if s.remainingTicks <= 0 {
			delete(m.sessions, k)
		}
	}
}

// All returns every currently open session.
func (m *Manager) All() []*Session {
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	return len(m.sessions)
}
