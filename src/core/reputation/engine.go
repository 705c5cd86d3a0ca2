// Package reputation implements per-category reputation scores backed by an
// append-only evidence log.
package reputation

import (
	"errors"
	"time"
)

var ErrInvalidCategory = errors.New("invalid reputation category")

// EvidenceEntry is one immutable row of the evidence log. Unverified entries
// record disputed or pending claims without granting score.
type EvidenceEntry struct {
	Category     string    `json:"category"`
	Delta        int64     `json:"delta"`
	EvidenceHash string    `json:"evidenceHash"`
	Verified     bool      `json:"verified"`
	At           time.Time `json:"at"`
}

// Record is one account's reputation state.
type Record struct {
	Address        string           `json:"address"`
	CategoryScores map[string]int64 `json:"categoryScores"`
	TotalScore     int64            `json:"totalScore"`
	Influencer     bool             `json:"influencer"`
	Evidence       []EvidenceEntry  `json:"evidence"`
}

// Engine holds all reputation records. Category weights are static
// configuration: a non-empty weight table closes the category set, an empty
// table accepts any category at weight 1. Not safe for concurrent use; the
// owning facade serializes access.
type Engine struct {
	records             map[string]*Record
	weights             map[string]int64
	influencerThreshold int64
}

func NewEngine(weights map[string]int64, influencerThreshold int64) *Engine {
	return &Engine{
		records:             make(map[string]*Record),
		weights:             weights,
		influencerThreshold: influencerThreshold,
	}
}

func (e *Engine) record(addr string) *Record {
	r, ok := e.records[addr]
	if !ok {
		r = &Record{Address: addr, CategoryScores: make(map[string]int64)}
		e.records[addr] = r
	}
	return r
}

func (e *Engine) weight(category string) int64 {
	if len(e.weights) == 0 {
		return 1
	}
	return e.weights[category]
}

// Update appends an evidence entry and, if verified, applies delta to the
// category score and recomputes the weighted total and influencer flag.
func (e *Engine) Update(addr, category string, delta int64, evidenceHash string, verified bool, at time.Time) (newTotal int64, err error) {
	if len(e.weights) > 0 {
		if _, ok := e.weights[category]; !ok {
			return 0, ErrInvalidCategory
		}
	}
	return e.apply(addr, category, delta, evidenceHash, verified, at), nil
}

// Restore re-applies a journaled entry without the category gate. The weight
// table in force when the entry was written may differ from the current one;
// a category absent from a closed table contributes weight 0 to the total.
func (e *Engine) Restore(addr, category string, delta int64, evidenceHash string, verified bool, at time.Time) int64 {
	return e.apply(addr, category, delta, evidenceHash, verified, at)
}

func (e *Engine) apply(addr, category string, delta int64, evidenceHash string, verified bool, at time.Time) int64 {
	r := e.record(addr)
	r.Evidence = append(r.Evidence, EvidenceEntry{
		Category:     category,
		Delta:        delta,
		EvidenceHash: evidenceHash,
		Verified:     verified,
		At:           at,
	})
	if verified {
		r.CategoryScores[category] += delta
		r.TotalScore = 0
		for cat, score := range r.CategoryScores {
			r.TotalScore += score * e.weight(cat)
		}
		r.Influencer = r.TotalScore >= e.influencerThreshold
	}
	return r.TotalScore
}

// TotalScore reports the weighted total for addr; unknown accounts read as 0.
func (e *Engine) TotalScore(addr string) int64 {
	if r, ok := e.records[addr]; ok {
		return r.TotalScore
	}
	return 0
}

// Get returns a deep copy of addr's record, or nil if the account has no
// reputation history.
func (e *Engine) Get(addr string) *Record {
	r, ok := e.records[addr]
	if !ok {
		return nil
	}
	cp := &Record{
		Address:        r.Address,
		CategoryScores: make(map[string]int64, len(r.CategoryScores)),
		TotalScore:     r.TotalScore,
		Influencer:     r.Influencer,
		Evidence:       append([]EvidenceEntry(nil), r.Evidence...),
	}
	for cat, score := range r.CategoryScores {
		cp.CategoryScores[cat] = score
	}
	return cp
}
