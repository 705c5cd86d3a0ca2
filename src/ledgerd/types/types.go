package types

import "time"

// Participant holds the off-ledger role grants the facade enforces.
type Participant struct {
	Address string `gorm:"primaryKey;size:128"`
	Role    string `gorm:"primaryKey;size:32"` // updater | treasury
}

const (
	RoleUpdater  = "updater"
	RoleTreasury = "treasury"
)

// Setting is one named configuration value, loaded into a cache at boot.
// Reputation category weights live here under "rep_weight_<category>" keys.
type Setting struct {
	ID    uint32 `gorm:"primaryKey"`
	Name  string `gorm:"size:64;unique;not null"`
	Value string `gorm:"size:256;not null"`
}

// JournalEntry is one committed ledger mutation, appended in sequence order.
// Payload is the JSON-encoded core event; Checksum is an xxhash of the
// payload so corruption is caught before replay.
type JournalEntry struct {
	Seq      uint64 `gorm:"primaryKey;autoIncrement:false"`
	Kind     string `gorm:"size:32;index;not null"`
	Actor    string `gorm:"size:128;index"`
	Payload  string `gorm:"type:text;not null"`
	Checksum uint64 `gorm:"not null"`
	At       time.Time
}
