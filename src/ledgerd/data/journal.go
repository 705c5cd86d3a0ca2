package data

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/OneOfOne/xxhash"
	"gorm.io/gorm"

	"github.com/cortexmarket/cortex-ledger/src/core"
	"github.com/cortexmarket/cortex-ledger/src/core/event"
	"github.com/cortexmarket/cortex-ledger/src/ledgerd/types"
)

// Journal persists every committed ledger event to MySQL. It doubles as the
// durability layer: on boot the journal is replayed through the facade to
// rebuild in-memory state.
type Journal struct {
	db *gorm.DB
}

func NewJournal(db *gorm.DB) *Journal { return &Journal{db: db} }

// Checksum is the integrity hash stored beside each payload.
func Checksum(payload []byte) uint64 {
	h := xxhash.NewS64(0)
	_, _ = h.Write(payload)
	return h.Sum64()
}

// Publish implements event.Sink. It runs under the ledger write lock, so a
// write failure here is fatal: continuing would let in-memory state drift
// ahead of the journal.
func (j *Journal) Publish(ev event.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Fatalf("journal: marshal seq %d: %v", ev.Seq, err)
	}
	row := types.JournalEntry{
		Seq:      ev.Seq,
		Kind:     string(ev.Kind),
		Actor:    ev.Actor,
		Payload:  string(payload),
		Checksum: Checksum(payload),
		At:       ev.At,
	}
	if err := j.db.Create(&row).Error; err != nil {
		log.Fatalf("journal: append seq %d: %v", ev.Seq, err)
	}
}

// Replay feeds every journaled event through the ledger in sequence order,
// verifying checksums along the way.
func (j *Journal) Replay(l *core.Ledger) (int, error) {
	var rows []types.JournalEntry
	if err := j.db.Order("seq ASC").Find(&rows).Error; err != nil {
		return 0, err
	}
	for _, row := range rows {
		if got := Checksum([]byte(row.Payload)); got != row.Checksum {
			return 0, fmt.Errorf("journal seq %d: checksum mismatch (stored %d, computed %d)", row.Seq, row.Checksum, got)
		}
		var ev event.Event
		if err := json.Unmarshal([]byte(row.Payload), &ev); err != nil {
			return 0, fmt.Errorf("journal seq %d: %w", row.Seq, err)
		}
		if err := l.Replay(ev); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}
