// Package governance implements the proposal lifecycle and weighted voting.
package governance

import (
	"errors"
	"time"
)

var (
	ErrInvalidDuration  = errors.New("invalid voting duration")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrVotingClosed     = errors.New("voting period has closed")
	ErrVotingStillOpen  = errors.New("voting period still open")
	ErrAlreadyVoted     = errors.New("account already voted")
	ErrAlreadyFinalized = errors.New("proposal already finalized")
)

// State is the proposal lifecycle state. The Closed phase between Open and a
// terminal state is implicit from the clock: a proposal whose voting window
// has elapsed no longer accepts votes even while State is still Open.
type State string

const (
	StateOpen     State = "open"
	StateExecuted State = "executed"
	StateRejected State = "rejected"
)

// VoteReceipt records one account's cast vote. Weight is snapshotted at cast
// time so later stake or reputation changes cannot move a recorded tally.
type VoteReceipt struct {
	Support bool      `json:"support"`
	Weight  uint64    `json:"weight"`
	At      time.Time `json:"at"`
}

// Proposal is retained forever; terminal proposals are immutable history.
type Proposal struct {
	ID             uint64                 `json:"id"`
	Proposer       string                 `json:"proposer"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	VotesFor       uint64                 `json:"votesFor"`
	VotesAgainst   uint64                 `json:"votesAgainst"`
	OpenedAt       time.Time              `json:"openedAt"`
	VotingDuration time.Duration          `json:"votingDuration"`
	State          State                  `json:"state"`
	Voters         map[string]VoteReceipt `json:"voters"`
}

func (p *Proposal) closesAt() time.Time { return p.OpenedAt.Add(p.VotingDuration) }

// Engine holds all proposals. Not safe for concurrent use; the owning facade
// serializes access.
type Engine struct {
	proposals   []*Proposal
	maxDuration time.Duration
	quorum      uint64
}

func NewEngine(maxDuration time.Duration, quorum uint64) *Engine {
	return &Engine{maxDuration: maxDuration, quorum: quorum}
}

// Submit opens a new proposal and returns its id. Ids are dense and
// monotonic: the id is the index into the proposal history.
func (e *Engine) Submit(proposer, title, description string, duration time.Duration, at time.Time) (uint64, error) {
	if duration <= 0 || duration > e.maxDuration {
		return 0, ErrInvalidDuration
	}
	return e.open(proposer, title, description, duration, at), nil
}

// Restore reopens a journaled proposal without the duration gate. The maximum
// in force when the proposal was first accepted may differ from the current
// one.
func (e *Engine) Restore(proposer, title, description string, duration time.Duration, at time.Time) uint64 {
	return e.open(proposer, title, description, duration, at)
}

func (e *Engine) open(proposer, title, description string, duration time.Duration, at time.Time) uint64 {
	p := &Proposal{
		ID:             uint64(len(e.proposals)),
		Proposer:       proposer,
		Title:          title,
		Description:    description,
		OpenedAt:       at,
		VotingDuration: duration,
		State:          StateOpen,
		Voters:         make(map[string]VoteReceipt),
	}
	e.proposals = append(e.proposals, p)
	return p.ID
}

// Vote records a weighted vote. The caller computes weight from the voter's
// governance stake and reputation at cast time.
func (e *Engine) Vote(id uint64, voter string, support bool, weight uint64, at time.Time) error {
	p, err := e.proposal(id)
	if err != nil {
		return err
	}
	if p.State != StateOpen || !at.Before(p.closesAt()) {
		return ErrVotingClosed
	}
	if _, dup := p.Voters[voter]; dup {
		return ErrAlreadyVoted
	}
	if support {
		p.VotesFor += weight
	} else {
		p.VotesAgainst += weight
	}
	p.Voters[voter] = VoteReceipt{Support: support, Weight: weight, At: at}
	return nil
}

// Execute finalizes a proposal whose voting window has elapsed. It passes
// only when ayes strictly exceed nays and the combined weight meets quorum.
// Calling Execute on a terminal proposal fails instead of re-applying.
func (e *Engine) Execute(id uint64, at time.Time) (executed bool, err error) {
	p, err := e.proposal(id)
	if err != nil {
		return false, err
	}
	if p.State != StateOpen {
		return false, ErrAlreadyFinalized
	}
	if at.Before(p.closesAt()) {
		return false, ErrVotingStillOpen
	}
	if p.VotesFor > p.VotesAgainst && p.VotesFor+p.VotesAgainst >= e.quorum {
		p.State = StateExecuted
		return true, nil
	}
	p.State = StateRejected
	return false, nil
}

func (e *Engine) proposal(id uint64) (*Proposal, error) {
	if id >= uint64(len(e.proposals)) {
		return nil, ErrProposalNotFound
	}
	return e.proposals[id], nil
}

// Get returns a deep copy of the proposal record.
func (e *Engine) Get(id uint64) (*Proposal, error) {
	p, err := e.proposal(id)
	if err != nil {
		return nil, err
	}
	cp := *p
	cp.Voters = make(map[string]VoteReceipt, len(p.Voters))
	for addr, rcpt := range p.Voters {
		cp.Voters[addr] = rcpt
	}
	return &cp, nil
}

// HasVoted reports whether addr has a recorded vote on proposal id.
func (e *Engine) HasVoted(id uint64, addr string) (bool, error) {
	p, err := e.proposal(id)
	if err != nil {
		return false, err
	}
	_, ok := p.Voters[addr]
	return ok, nil
}

// Count reports how many proposals have ever been submitted.
func (e *Engine) Count() uint64 { return uint64(len(e.proposals)) }
