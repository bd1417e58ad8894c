package custody

import (
	"fmt"
	"strings"
	"sync"
)

// StepState is the lifecycle state of one transfer step.
type StepState int

const (
	StepPending StepState = iota
	StepConfirmed
	StepFailed
)

func (s StepState) String() string {
	switch s {
	case StepPending:
		return "⏳ pending"
	case StepConfirmed:
		return "✅ confirmed"
	case StepFailed:
		return "❌ failed"
	default:
		return "unknown"
	}
}

// AnnounceFunc receives the re-rendered status text on every state
// change. The front-end typically edits a chat message in place.
type AnnounceFunc func(text string)

// Status tracks one transfer's ledger operations as an ordered list of
// steps. It lives only for the duration of the transfer call and is not
// persisted.
type Status struct {
	mu          sync.Mutex
	baseMsg     string
	explorerURL string
	announce    AnnounceFunc
	steps       []*Step
}

// Step is one ledger operation within a Status.
type Step struct {
	parent *Status
	label  string
	state  StepState
	txID   string
}

// NewStatus creates a pending status around a base message.
func NewStatus(baseMsg string) *Status {
	return &Status{baseMsg: baseMsg}
}

// SetAnnounce installs the update callback. Returns the status for
// chaining.
func (s *Status) SetAnnounce(fn AnnounceFunc) *Status {
	s.mu.Lock()
	s.announce = fn
	s.mu.Unlock()
	return s
}

// SetExplorerURL enables explorer links on steps that carry a
// transaction id.
func (s *Status) SetExplorerURL(url string) *Status {
	s.mu.Lock()
	s.explorerURL = strings.TrimRight(url, "/")
	s.mu.Unlock()
	return s
}

// AddStep appends a pending step and announces the update.
func (s *Status) AddStep(label string) *Step {
	if label == "" {
		label = "Status"
	}
	s.mu.Lock()
	step := &Step{parent: s, label: label, state: StepPending}
	s.steps = append(s.steps, step)
	s.announceLocked()
	s.mu.Unlock()
	return step
}

// Steps returns a snapshot of the current step list.
func (s *Status) Steps() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Step, len(s.steps))
	for i, st := range s.steps {
		out[i] = *st
	}
	return out
}

func (s *Status) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked()
}

func (s *Status) renderLocked() string {
	var b strings.Builder
	b.WriteString(s.baseMsg)
	for _, st := range s.steps {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>: %s", st.label, st.state))
		if st.txID != "" && s.explorerURL != "" {
			b.WriteString(fmt.Sprintf(" (<a href=%q>tx</a>)", s.explorerURL+"/transactions/"+st.txID))
		}
	}
	return b.String()
}

func (s *Status) announceLocked() {
	if s.announce != nil {
		s.announce(s.renderLocked())
	}
}

// Label returns the step's display label.
func (st *Step) Label() string { return st.label }

// State returns the step's current state.
func (st *Step) State() StepState { return st.state }

// TxID returns the ledger transaction id attached to the step, if any.
func (st *Step) TxID() string { return st.txID }

// SetTxID attaches a ledger transaction id and announces the update.
func (st *Step) SetTxID(txID string) *Step {
	st.parent.mu.Lock()
	st.txID = txID
	st.parent.announceLocked()
	st.parent.mu.Unlock()
	return st
}

// Confirmed marks the step confirmed and announces the update.
func (st *Step) Confirmed() *Step { return st.setState(StepConfirmed) }

// Failed marks the step failed and announces the update.
func (st *Step) Failed() *Step { return st.setState(StepFailed) }

func (st *Step) setState(state StepState) *Step {
	st.parent.mu.Lock()
	st.state = state
	st.parent.announceLocked()
	st.parent.mu.Unlock()
	return st
}
