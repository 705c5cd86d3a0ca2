// Package registry implements the stake-gated model marketplace.
package registry

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrUnauthorized  = errors.New("caller does not own this model")
	ErrStakeTooLow   = errors.New("stake below registration requirement")
	ErrStillActive   = errors.New("model must be inactive before deregistration")
	ErrTooManyTags   = errors.New("too many tags")
)

// Listing is one registered model. ContentRef and MetadataRef are opaque
// content-addressed identifiers resolved by external storage.
type Listing struct {
	ID           uint64    `json:"id"`
	Owner        string    `json:"owner"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Description  string    `json:"description"`
	ContentRef   string    `json:"contentRef"`
	MetadataRef  string    `json:"metadataRef"`
	Tags         []string  `json:"tags"`
	Public       bool      `json:"public"`
	StakedAmount uint64    `json:"stakedAmount"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registeredAt"`
	Deregistered bool      `json:"deregistered"`
}

// Purchase is an audit record of a completed model purchase. Payment
// settlement and content access policy live outside the core.
type Purchase struct {
	ModelID uint64    `json:"modelId"`
	Buyer   string    `json:"buyer"`
	Price   uint64    `json:"price"`
	At      time.Time `json:"at"`
}

// PurposeTag returns the escrow purpose tag for a model id.
func PurposeTag(id uint64) string { return fmt.Sprintf("model:%d", id) }

// Marketplace holds all listings and the purchase log. Not safe for
// concurrent use; the owning facade serializes access.
type Marketplace struct {
	listings  []*Listing
	byOwner   map[string][]uint64
	purchases []Purchase
	baseStake uint64
	maxTags   int
}

func NewMarketplace(baseStake uint64, maxTags int) *Marketplace {
	return &Marketplace{byOwner: make(map[string][]uint64), baseStake: baseStake, maxTags: maxTags}
}

// NextID returns the id the next successful registration will take. The
// facade needs it up front to escrow under the model's purpose tag.
func (m *Marketplace) NextID() uint64 { return uint64(len(m.listings)) }

// Validate checks registration inputs before any state is touched.
func (m *Marketplace) Validate(stake uint64, tags []string) error {
	if stake < m.baseStake {
		return fmt.Errorf("%w: %d < %d", ErrStakeTooLow, stake, m.baseStake)
	}
	if len(tags) > m.maxTags {
		return fmt.Errorf("%w: %d > %d", ErrTooManyTags, len(tags), m.maxTags)
	}
	return nil
}

// Register stores a new listing as active. The caller has already escrowed
// stake under PurposeTag(NextID()).
func (m *Marketplace) Register(owner, name, version, description, contentRef, metadataRef string, tags []string, public bool, stake uint64, at time.Time) uint64 {
	l := &Listing{
		ID:           m.NextID(),
		Owner:        owner,
		Name:         name,
		Version:      version,
		Description:  description,
		ContentRef:   contentRef,
		MetadataRef:  metadataRef,
		Tags:         append([]string(nil), tags...),
		Public:       public,
		StakedAmount: stake,
		Active:       true,
		RegisteredAt: at,
	}
	m.listings = append(m.listings, l)
	m.byOwner[owner] = append(m.byOwner[owner], l.ID)
	return l.ID
}

// ToggleStatus flips the active flag. Only the owner may toggle.
func (m *Marketplace) ToggleStatus(id uint64, caller string) (active bool, err error) {
	l, err := m.listing(id)
	if err != nil {
		return false, err
	}
	if l.Owner != caller {
		return false, ErrUnauthorized
	}
	l.Active = !l.Active
	return l.Active, nil
}

// Deregister marks the listing withdrawn and returns the escrowed amount the
// caller must release. The listing must already be inactive.
// CanDeregister reports the escrow that deregistering id would release,
// without mutating the listing.
func (m *Marketplace) CanDeregister(id uint64, caller string) (stake uint64, err error) {
	l, err := m.listing(id)
	if err != nil {
		return 0, err
	}
	if l.Owner != caller {
		return 0, ErrUnauthorized
	}
	if l.Active {
		return 0, ErrStillActive
	}
	return l.StakedAmount, nil
}

func (m *Marketplace) Deregister(id uint64, caller string) (stake uint64, err error) {
	stake, err = m.CanDeregister(id, caller)
	if err != nil {
		return 0, err
	}
	l, _ := m.listing(id)
	l.StakedAmount = 0
	l.Deregistered = true
	return stake, nil
}

// RecordPurchase appends a purchase audit record and returns the listing.
func (m *Marketplace) RecordPurchase(id uint64, buyer string, price uint64, at time.Time) (*Listing, error) {
	l, err := m.listing(id)
	if err != nil {
		return nil, err
	}
	m.purchases = append(m.purchases, Purchase{ModelID: id, Buyer: buyer, Price: price, At: at})
	return l, nil
}

func (m *Marketplace) listing(id uint64) (*Listing, error) {
	if id >= uint64(len(m.listings)) || m.listings[id].Deregistered {
		return nil, ErrModelNotFound
	}
	return m.listings[id], nil
}

// Get returns a deep copy of the listing.
func (m *Marketplace) Get(id uint64) (*Listing, error) {
	l, err := m.listing(id)
	if err != nil {
		return nil, err
	}
	cp := *l
	cp.Tags = append([]string(nil), l.Tags...)
	return &cp, nil
}

// ByOwner returns the owner's model ids in registration order, including
// deregistered ones for audit.
func (m *Marketplace) ByOwner(owner string) []uint64 {
	return append([]uint64(nil), m.byOwner[owner]...)
}

// Count reports how many models have ever been registered.
func (m *Marketplace) Count() uint64 { return uint64(len(m.listings)) }

// Purchases returns a copy of the purchase log for a model.
func (m *Marketplace) Purchases(id uint64) []Purchase {
	var out []Purchase
	for _, p := range m.purchases {
		if p.ModelID == id {
			out = append(out, p)
		}
	}
	return out
}
