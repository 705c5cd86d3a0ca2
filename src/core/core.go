// Package core is the access facade over the four marketplace ledgers:
// token custody, reputation, governance and the model registry. All external
// callers go through a Ledger; engines never call each other directly.
//
// Mutations are applied one at a time under a single write lock and either
// commit fully or leave no trace. Queries take the read lock and return
// copies of committed state.
package core

import (
	"errors"
	"sync"
	"time"

	"github.com/cortexmarket/cortex-ledger/src/core/event"
	"github.com/cortexmarket/cortex-ledger/src/core/governance"
	"github.com/cortexmarket/cortex-ledger/src/core/registry"
	"github.com/cortexmarket/cortex-ledger/src/core/reputation"
	"github.com/cortexmarket/cortex-ledger/src/core/token"
)

var (
	// ErrUnauthorized is returned when the caller lacks the capability an
	// operation requires (reputation updater, treasury).
	ErrUnauthorized = errors.New("caller not authorized")

	ErrUnknownEvent = errors.New("unknown event kind in journal")
)

// Config carries the static tunables loaded at startup.
type Config struct {
	BaseStakingRequirement uint64
	InfluencerThreshold    int64
	QuorumMinimum          uint64
	MaxVotingDuration      time.Duration
	ReputationWeightFactor uint64
	MaxTags                int
	CategoryWeights        map[string]int64 // empty table = open categories, weight 1

	Updaters []string // addresses holding the reputation-updater capability
	Treasury []string // addresses allowed to mint

	Clock func() time.Time // nil = time.Now
}

// GovernancePurpose is the stake purpose tag that feeds vote weight.
const GovernancePurpose = "governance"

// Ledger is the authoritative marketplace state.
type Ledger struct {
	mu sync.RWMutex

	cfg      Config
	tokens   *token.Ledger
	rep      *reputation.Engine
	gov      *governance.Engine
	market   *registry.Marketplace
	updaters map[string]bool
	treasury map[string]bool
	sink     event.Sink
	now      func() time.Time
	seq      uint64
}

// New builds an empty ledger. sink may be nil when no event consumers exist
// (tests, replay-only boots).
func New(cfg Config, sink event.Sink) *Ledger {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	l := &Ledger{
		cfg:      cfg,
		tokens:   token.NewLedger(),
		rep:      reputation.NewEngine(cfg.CategoryWeights, cfg.InfluencerThreshold),
		gov:      governance.NewEngine(cfg.MaxVotingDuration, cfg.QuorumMinimum),
		market:   registry.NewMarketplace(cfg.BaseStakingRequirement, cfg.MaxTags),
		updaters: make(map[string]bool),
		treasury: make(map[string]bool),
		sink:     sink,
		now:      now,
	}
	for _, addr := range cfg.Updaters {
		l.updaters[addr] = true
	}
	for _, addr := range cfg.Treasury {
		l.treasury[addr] = true
	}
	return l
}

func (l *Ledger) emit(ev event.Event) {
	l.seq++
	ev.Seq = l.seq
	if l.sink != nil {
		l.sink.Publish(ev)
	}
}

// --- Account operations ---

// Mint issues tokens to an account. Treasury capability required.
func (l *Ledger) Mint(caller, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.treasury[caller] {
		return ErrUnauthorized
	}
	at := l.now()
	if err := l.tokens.Mint(to, amount); err != nil {
		return err
	}
	l.emit(event.Event{Kind: event.TokenMinted, At: at, Actor: caller, To: to, Amount: amount})
	return nil
}

// Transfer moves spendable tokens from the caller to another account.
func (l *Ledger) Transfer(caller, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	if err := l.tokens.Transfer(caller, to, amount); err != nil {
		return err
	}
	l.emit(event.Event{Kind: event.TokenTransferred, At: at, Actor: caller, From: caller, To: to, Amount: amount})
	return nil
}

// Approve authorizes spender to move up to amount out of the caller's
// spendable balance via TransferFrom.
func (l *Ledger) Approve(caller, spender string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	l.tokens.Approve(caller, spender, amount)
	l.emit(event.Event{Kind: event.TokenApproved, At: at, Actor: caller, From: caller, Spender: spender, Amount: amount})
	return nil
}

// TransferFrom moves tokens on behalf of an approving owner.
func (l *Ledger) TransferFrom(caller, from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	if err := l.tokens.TransferFrom(caller, from, to, amount); err != nil {
		return err
	}
	l.emit(event.Event{Kind: event.TokenTransferred, At: at, Actor: caller, From: from, To: to, Amount: amount, Spender: caller})
	return nil
}

// StakeGovernance escrows the caller's tokens under the governance purpose.
func (l *Ledger) StakeGovernance(caller string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	if err := l.tokens.Stake(caller, GovernancePurpose, amount); err != nil {
		return err
	}
	l.emit(event.Event{Kind: event.TokenStaked, At: at, Actor: caller, Purpose: GovernancePurpose, Amount: amount})
	return nil
}

// UnstakeGovernance releases governance stake back to spendable balance.
func (l *Ledger) UnstakeGovernance(caller string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	if err := l.tokens.ReleaseStake(caller, GovernancePurpose, amount, token.AuthorityGovernance); err != nil {
		return err
	}
	l.emit(event.Event{Kind: event.TokenUnstaked, At: at, Actor: caller, Purpose: GovernancePurpose, Amount: amount})
	return nil
}

func (l *Ledger) BalanceOf(addr string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokens.BalanceOf(addr)
}

func (l *Ledger) StakedOf(addr, purpose string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokens.StakedOf(addr, purpose)
}

func (l *Ledger) Allowance(owner, spender string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokens.Allowance(owner, spender)
}

func (l *Ledger) TotalSupply() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokens.TotalSupply()
}

// --- Reputation operations ---

// UpdateReputation applies an evidence-tagged reputation change. Updater
// capability required. Unverified updates only append evidence.
func (l *Ledger) UpdateReputation(caller, addr, category string, delta int64, evidenceHash string, verified bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.updaters[caller] {
		return ErrUnauthorized
	}
	at := l.now()
	newTotal, err := l.rep.Update(addr, category, delta, evidenceHash, verified, at)
	if err != nil {
		return err
	}
	l.emit(event.Event{
		Kind: event.ReputationUpdated, At: at, Actor: caller, To: addr,
		Category: category, Delta: delta, NewTotal: newTotal,
		EvidenceHash: evidenceHash, Verified: verified,
	})
	return nil
}

// GetReputation returns a snapshot of addr's reputation record, or nil when
// the account has no history.
func (l *Ledger) GetReputation(addr string) *reputation.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rep.Get(addr)
}

// --- Governance operations ---

// SubmitProposal opens a proposal and returns its id.
func (l *Ledger) SubmitProposal(caller, title, description string, duration time.Duration) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	id, err := l.gov.Submit(caller, title, description, duration, at)
	if err != nil {
		return 0, err
	}
	l.emit(event.Event{
		Kind: event.ProposalSubmitted, At: at, Actor: caller, ProposalID: id,
		Title: title, Description: description, DurationSec: int64(duration / time.Second),
	})
	return id, nil
}

// Vote casts the caller's vote. Weight is derived from the caller's
// governance stake and weighted reputation total at cast time:
//
//	weight = stake + ReputationWeightFactor * max(totalScore, 0)
func (l *Ledger) Vote(id uint64, caller string, support bool) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	weight := l.voteWeight(caller)
	if err := l.gov.Vote(id, caller, support, weight, at); err != nil {
		return 0, err
	}
	l.emit(event.Event{
		Kind: event.VoteCast, At: at, Actor: caller, ProposalID: id,
		Support: support, Weight: weight,
	})
	return weight, nil
}

func (l *Ledger) voteWeight(addr string) uint64 {
	weight := l.tokens.StakedOf(addr, GovernancePurpose)
	if total := l.rep.TotalScore(addr); total > 0 {
		weight += l.cfg.ReputationWeightFactor * uint64(total)
	}
	return weight
}

// ExecuteProposal finalizes a proposal whose voting window has elapsed.
func (l *Ledger) ExecuteProposal(id uint64, caller string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	executed, err := l.gov.Execute(id, at)
	if err != nil {
		return false, err
	}
	l.emit(event.Event{Kind: event.ProposalExecuted, At: at, Actor: caller, ProposalID: id, Executed: executed})
	return executed, nil
}

func (l *Ledger) GetProposal(id uint64) (*governance.Proposal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gov.Get(id)
}

func (l *Ledger) HasVoted(id uint64, addr string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gov.HasVoted(id, addr)
}

func (l *Ledger) ProposalCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gov.Count()
}

// --- Registry operations ---

// RegisterModelParams carries registerModel inputs.
type RegisterModelParams struct {
	Name        string
	Version     string
	Description string
	ContentRef  string
	MetadataRef string
	Tags        []string
	Public      bool
	Stake       uint64
}

// RegisterModel escrows the owner's stake under the new listing's purpose
// tag and stores the listing as active.
func (l *Ledger) RegisterModel(caller string, p RegisterModelParams) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	if err := l.market.Validate(p.Stake, p.Tags); err != nil {
		return 0, err
	}
	id := l.market.NextID()
	if err := l.tokens.Stake(caller, registry.PurposeTag(id), p.Stake); err != nil {
		return 0, err
	}
	l.market.Register(caller, p.Name, p.Version, p.Description, p.ContentRef, p.MetadataRef, p.Tags, p.Public, p.Stake, at)
	l.emit(event.Event{
		Kind: event.ModelRegistered, At: at, Actor: caller, ModelID: id,
		Name: p.Name, Version: p.Version, Description: p.Description,
		ContentRef: p.ContentRef, MetadataRef: p.MetadataRef,
		Tags: p.Tags, Public: p.Public, Amount: p.Stake,
	})
	return id, nil
}

// ToggleModel flips a listing's active flag. Owner only.
func (l *Ledger) ToggleModel(id uint64, caller string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	active, err := l.market.ToggleStatus(id, caller)
	if err != nil {
		return false, err
	}
	l.emit(event.Event{Kind: event.ModelToggled, At: at, Actor: caller, ModelID: id, Public: active})
	return active, nil
}

// PurchaseModel records a purchase, settling price in native tokens from the
// buyer to the listing owner when price is non-zero.
func (l *Ledger) PurchaseModel(id uint64, caller string, price uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	listing, err := l.market.Get(id)
	if err != nil {
		return err
	}
	if price > 0 {
		if err := l.tokens.Transfer(caller, listing.Owner, price); err != nil {
			return err
		}
	}
	if _, err := l.market.RecordPurchase(id, caller, price, at); err != nil {
		return err
	}
	l.emit(event.Event{Kind: event.ModelPurchased, At: at, Actor: caller, ModelID: id, To: listing.Owner, Price: price})
	return nil
}

// DeregisterModel withdraws an inactive listing and releases its escrow back
// to the owner's spendable balance.
func (l *Ledger) DeregisterModel(id uint64, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	stake, err := l.market.CanDeregister(id, caller)
	if err != nil {
		return err
	}
	if stake > 0 {
		if err := l.tokens.ReleaseStake(caller, registry.PurposeTag(id), stake, token.AuthorityRegistry); err != nil {
			return err
		}
	}
	if _, err := l.market.Deregister(id, caller); err != nil {
		return err
	}
	l.emit(event.Event{Kind: event.ModelDeregistered, At: at, Actor: caller, ModelID: id, Amount: stake})
	return nil
}

func (l *Ledger) GetModel(id uint64) (*registry.Listing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.market.Get(id)
}

func (l *Ledger) UserModels(addr string) []uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.market.ByOwner(addr)
}

func (l *Ledger) ModelCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.market.Count()
}

// ModelPurchases returns the purchase audit log for a model.
func (l *Ledger) ModelPurchases(id uint64) []registry.Purchase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.market.Purchases(id)
}
