package data

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cortexmarket/cortex-ledger/src/core/event"
)

func TestChecksumDetectsCorruption(t *testing.T) {
	ev := event.Event{Seq: 1, Kind: event.TokenTransferred, From: "alice", To: "bob", Amount: 40, At: time.Unix(1748779200, 0).UTC()}
	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}

	sum := Checksum(payload)
	if sum != Checksum(payload) {
		t.Error("checksum not deterministic")
	}

	tampered := append([]byte(nil), payload...)
	tampered[10] ^= 0xff
	if Checksum(tampered) == sum {
		t.Error("checksum unchanged after tampering")
	}
}

func TestCategoryWeights(t *testing.T) {
	settingsMu.Lock()
	settingsCache = map[string]string{
		"rep_weight_accuracy":       "3",
		"rep_weight_early_adoption": "1",
		"rep_weight_bogus":          "not-a-number",
		"rep_weight_negative":       "-2",
		"quorum_minimum":            "100",
	}
	settingsMu.Unlock()

	weights := CategoryWeights()
	if len(weights) != 2 {
		t.Fatalf("weights = %v, want 2 parseable entries", weights)
	}
	if weights["accuracy"] != 3 || weights["early_adoption"] != 1 {
		t.Errorf("weights = %v", weights)
	}

	if got := GetSetting("quorum_minimum"); got != "100" {
		t.Errorf("GetSetting = %q, want 100", got)
	}
}
