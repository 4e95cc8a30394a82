package scheduler

import (
	"sync"

	"CandleWatch/internal/model"
)

// Outcome is what happened to a finished cycle's results.
type Outcome string

const (
	// OutcomeApplied means the results reached the renderer and sink.
	OutcomeApplied Outcome = "applied"
	// OutcomeStale means the selection was replaced while the cycle was in flight.
	OutcomeStale Outcome = "stale"
	// OutcomeSuperseded means a newer cycle for the same selection already applied.
	OutcomeSuperseded Outcome = "superseded"
)

// Ticket identifies one refresh cycle: the selection it was started for, the
// selection epoch at that moment, and a sequence number unique across cycles.
type Ticket struct {
	Selection model.Selection
	Epoch     uint64
	Seq       uint64
}

// Session is the process-wide view state owned by the Scheduler: the current
// selection and the bookkeeping that decides whether a cycle may still apply.
type Session struct {
	mu          sync.Mutex
	selection   model.Selection
	epoch       uint64
	seq         uint64
	lastApplied uint64
}

// NewSession creates a session watching sel.
func NewSession(sel model.Selection) *Session {
	return &Session{selection: sel}
}

// CurrentSelection returns the selection new cycles will be started for.
func (s *Session) CurrentSelection() model.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// ReplaceSelection installs sel and invalidates every cycle begun before the call,
// including cycles for an identical selection.
func (s *Session) ReplaceSelection(sel model.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
	s.epoch++
}

// Begin captures the selection current at trigger time and issues a ticket for it.
func (s *Session) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return Ticket{Selection: s.selection, Epoch: s.epoch, Seq: s.seq}
}

// Check reports what Commit would do with t right now, without applying anything.
func (s *Session) Check(t Ticket) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check(t)
}

// Commit runs apply while holding the session lock if t is still current and newer
// than the last applied cycle. Holding the lock makes each application atomic with
// respect to other cycles and to selection changes.
func (s *Session) Commit(t Ticket, apply func()) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := s.check(t)
	if outcome != OutcomeApplied {
		return outcome
	}
	s.lastApplied = t.Seq
	apply()
	return OutcomeApplied
}

func (s *Session) check(t Ticket) Outcome {
	if t.Epoch != s.epoch {
		return OutcomeStale
	}
	if t.Seq <= s.lastApplied {
		return OutcomeSuperseded
	}
	return OutcomeApplied
}
