package event

import "time"

// Kind identifies the ledger operation an event was emitted for.
type Kind string

const (
	TokenMinted       Kind = "token.minted"
	TokenTransferred  Kind = "token.transferred"
	TokenApproved     Kind = "token.approved"
	TokenStaked       Kind = "token.staked"
	TokenUnstaked     Kind = "token.unstaked"
	ReputationUpdated Kind = "reputation.updated"
	ProposalSubmitted Kind = "proposal.submitted"
	VoteCast          Kind = "proposal.vote_cast"
	ProposalExecuted  Kind = "proposal.executed"
	ModelRegistered   Kind = "model.registered"
	ModelToggled      Kind = "model.toggled"
	ModelPurchased    Kind = "model.purchased"
	ModelDeregistered Kind = "model.deregistered"
)

// Event is one committed ledger mutation. Every mutation emits exactly one
// event, and the journal of events is sufficient to rebuild ledger state.
type Event struct {
	Seq   uint64    `json:"seq"`
	Kind  Kind      `json:"kind"`
	At    time.Time `json:"at"`
	Actor string    `json:"actor,omitempty"`

	// Token fields
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Spender string `json:"spender,omitempty"`
	Amount  uint64 `json:"amount,omitempty"`
	Purpose string `json:"purpose,omitempty"`

	// Reputation fields
	Category     string `json:"category,omitempty"`
	Delta        int64  `json:"delta,omitempty"`
	NewTotal     int64  `json:"newTotal,omitempty"`
	EvidenceHash string `json:"evidenceHash,omitempty"`
	Verified     bool   `json:"verified,omitempty"`

	// Governance fields
	ProposalID  uint64 `json:"proposalId,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	DurationSec int64  `json:"durationSec,omitempty"`
	Support     bool   `json:"support,omitempty"`
	Weight      uint64 `json:"weight,omitempty"`
	Executed    bool   `json:"executed,omitempty"`

	// Registry fields
	ModelID     uint64   `json:"modelId,omitempty"`
	Name        string   `json:"name,omitempty"`
	Version     string   `json:"version,omitempty"`
	ContentRef  string   `json:"contentRef,omitempty"`
	MetadataRef string   `json:"metadataRef,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Public      bool     `json:"public,omitempty"`
	Price       uint64   `json:"price,omitempty"`
}

// Sink receives events after the mutation that produced them has committed.
// Publish is called under the ledger write lock, so implementations see
// events in sequence order and must not call back into the ledger.
type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Publish(ev Event) {
	for _, s := range m {
		s.Publish(ev)
	}
}
