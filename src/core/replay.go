package core

import (
	"fmt"
	"time"

	"github.com/cortexmarket/cortex-ledger/src/core/event"
	"github.com/cortexmarket/cortex-ledger/src/core/registry"
	"github.com/cortexmarket/cortex-ledger/src/core/token"
)

// Replay re-applies one journaled event to rebuild in-memory state at boot.
// Authorization and config-derived gates (category weight table, voting
// duration cap) are not re-checked: journal rows passed them when first
// applied, and roles and settings may have changed since. Nothing is emitted.
//
// Events must be replayed in sequence order against a fresh ledger.
func (l *Ledger) Replay(ev event.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.apply(ev); err != nil {
		return fmt.Errorf("replay seq %d (%s): %w", ev.Seq, ev.Kind, err)
	}
	l.seq = ev.Seq
	return nil
}

func (l *Ledger) apply(ev event.Event) error {
	switch ev.Kind {
	case event.TokenMinted:
		return l.tokens.Mint(ev.To, ev.Amount)
	case event.TokenTransferred:
		if ev.Spender != "" {
			return l.tokens.TransferFrom(ev.Spender, ev.From, ev.To, ev.Amount)
		}
		return l.tokens.Transfer(ev.From, ev.To, ev.Amount)
	case event.TokenApproved:
		l.tokens.Approve(ev.From, ev.Spender, ev.Amount)
		return nil
	case event.TokenStaked:
		return l.tokens.Stake(ev.Actor, ev.Purpose, ev.Amount)
	case event.TokenUnstaked:
		return l.tokens.ReleaseStake(ev.Actor, ev.Purpose, ev.Amount, token.AuthorityGovernance)
	case event.ReputationUpdated:
		l.rep.Restore(ev.To, ev.Category, ev.Delta, ev.EvidenceHash, ev.Verified, ev.At)
		return nil
	case event.ProposalSubmitted:
		l.gov.Restore(ev.Actor, ev.Title, ev.Description, time.Duration(ev.DurationSec)*time.Second, ev.At)
		return nil
	case event.VoteCast:
		// Weight was snapshotted at cast time; reuse it verbatim.
		return l.gov.Vote(ev.ProposalID, ev.Actor, ev.Support, ev.Weight, ev.At)
	case event.ProposalExecuted:
		_, err := l.gov.Execute(ev.ProposalID, ev.At)
		return err
	case event.ModelRegistered:
		id := l.market.NextID()
		if err := l.tokens.Stake(ev.Actor, registry.PurposeTag(id), ev.Amount); err != nil {
			return err
		}
		l.market.Register(ev.Actor, ev.Name, ev.Version, ev.Description, ev.ContentRef, ev.MetadataRef, ev.Tags, ev.Public, ev.Amount, ev.At)
		return nil
	case event.ModelToggled:
		_, err := l.market.ToggleStatus(ev.ModelID, ev.Actor)
		return err
	case event.ModelPurchased:
		if ev.Price > 0 {
			if err := l.tokens.Transfer(ev.Actor, ev.To, ev.Price); err != nil {
				return err
			}
		}
		_, err := l.market.RecordPurchase(ev.ModelID, ev.Actor, ev.Price, ev.At)
		return err
	case event.ModelDeregistered:
		stake, err := l.market.Deregister(ev.ModelID, ev.Actor)
		if err != nil {
			return err
		}
		if stake > 0 {
			return l.tokens.ReleaseStake(ev.Actor, registry.PurposeTag(ev.ModelID), stake, token.AuthorityRegistry)
		}
		return nil
	default:
		return ErrUnknownEvent
	}
}
