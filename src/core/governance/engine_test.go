package governance

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const week = 7 * 24 * time.Hour

func TestSubmitDurationBounds(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		wantErr  error
	}{
		{"one hour", time.Hour, nil},
		{"max duration", week, nil},
		{"zero", 0, ErrInvalidDuration},
		{"negative", -time.Hour, ErrInvalidDuration},
		{"over max", week + time.Second, ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(week, 0)
			_, err := e.Submit("alice", "t", "d", tt.duration, t0)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Submit() err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRestoreBypassesDurationCap(t *testing.T) {
	e := NewEngine(week, 0)

	id := e.Restore("alice", "t", "d", 2*week, t0)
	p, err := e.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if p.VotingDuration != 2*week {
		t.Errorf("restored duration = %v, want %v", p.VotingDuration, 2*week)
	}
	if _, err := e.Submit("alice", "t", "d", 2*week, t0); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("live submit err = %v, want ErrInvalidDuration", err)
	}
}

func TestMonotonicIDs(t *testing.T) {
	e := NewEngine(week, 0)
	for want := uint64(0); want < 3; want++ {
		id, err := e.Submit("alice", "t", "d", time.Hour, t0)
		if err != nil {
			t.Fatal(err)
		}
		if id != want {
			t.Errorf("id = %d, want %d", id, want)
		}
	}
	if e.Count() != 3 {
		t.Errorf("count = %d, want 3", e.Count())
	}
}

func TestVoteOncePerAccount(t *testing.T) {
	e := NewEngine(week, 0)
	id, _ := e.Submit("alice", "t", "d", time.Hour, t0)

	if err := e.Vote(id, "bob", true, 100, t0.Add(time.Minute)); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if err := e.Vote(id, "bob", false, 500, t0.Add(2*time.Minute)); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second vote err = %v, want ErrAlreadyVoted", err)
	}

	p, _ := e.Get(id)
	if p.VotesFor != 100 || p.VotesAgainst != 0 {
		t.Errorf("tally = %d/%d, want 100/0 after rejected duplicate", p.VotesFor, p.VotesAgainst)
	}
}

func TestVoteTiming(t *testing.T) {
	e := NewEngine(week, 0)
	id, _ := e.Submit("alice", "t", "d", time.Hour, t0)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"just opened", t0, nil},
		{"last instant", t0.Add(time.Hour - time.Nanosecond), nil},
		{"exactly at close", t0.Add(time.Hour), ErrVotingClosed},
		{"after close", t0.Add(time.Hour + time.Second), ErrVotingClosed},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voter := string(rune('a' + i))
			err := e.Vote(id, voter, true, 1, tt.at)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Vote() err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := e.Vote(99, "bob", true, 1, t0); !errors.Is(err, ErrProposalNotFound) {
		t.Errorf("unknown proposal err = %v, want ErrProposalNotFound", err)
	}
}

func TestExecuteLifecycle(t *testing.T) {
	e := NewEngine(week, 50)
	id, _ := e.Submit("alice", "t", "d", time.Hour, t0)
	if err := e.Vote(id, "bob", true, 80, t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	// Before the window elapses execution is rejected.
	if _, err := e.Execute(id, t0.Add(time.Hour-time.Second)); !errors.Is(err, ErrVotingStillOpen) {
		t.Fatalf("early execute err = %v, want ErrVotingStillOpen", err)
	}

	executed, err := e.Execute(id, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !executed {
		t.Error("expected proposal to pass")
	}
	if p, _ := e.Get(id); p.State != StateExecuted {
		t.Errorf("state = %s, want %s", p.State, StateExecuted)
	}

	// Idempotent-safe: a second call fails, it never re-applies.
	if _, err := e.Execute(id, t0.Add(2*time.Hour)); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("re-execute err = %v, want ErrAlreadyFinalized", err)
	}
}

func TestExecuteOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		forW     uint64
		againstW uint64
		quorum   uint64
		want     State
	}{
		{"passes", 60, 10, 50, StateExecuted},
		{"majority but no quorum", 30, 10, 50, StateRejected},
		{"quorum but no majority", 30, 40, 50, StateRejected},
		{"tie rejected", 40, 40, 50, StateRejected},
		{"no votes", 0, 0, 0, StateRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(week, tt.quorum)
			id, _ := e.Submit("alice", "t", "d", time.Hour, t0)
			if tt.forW > 0 {
				if err := e.Vote(id, "bob", true, tt.forW, t0.Add(time.Minute)); err != nil {
					t.Fatal(err)
				}
			}
			if tt.againstW > 0 {
				if err := e.Vote(id, "carol", false, tt.againstW, t0.Add(time.Minute)); err != nil {
					t.Fatal(err)
				}
			}
			executed, err := e.Execute(id, t0.Add(2*time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			if executed != (tt.want == StateExecuted) {
				t.Errorf("executed = %v, want state %s", executed, tt.want)
			}
			if p, _ := e.Get(id); p.State != tt.want {
				t.Errorf("state = %s, want %s", p.State, tt.want)
			}
		})
	}
}

func TestHasVotedAndReceipts(t *testing.T) {
	e := NewEngine(week, 0)
	id, _ := e.Submit("alice", "t", "d", time.Hour, t0)
	castAt := t0.Add(time.Minute)
	if err := e.Vote(id, "bob", false, 42, castAt); err != nil {
		t.Fatal(err)
	}

	voted, err := e.HasVoted(id, "bob")
	if err != nil || !voted {
		t.Errorf("HasVoted(bob) = %v, %v, want true", voted, err)
	}
	voted, _ = e.HasVoted(id, "carol")
	if voted {
		t.Error("HasVoted(carol) = true, want false")
	}

	p, _ := e.Get(id)
	rcpt, ok := p.Voters["bob"]
	if !ok || rcpt.Weight != 42 || rcpt.Support || !rcpt.At.Equal(castAt) {
		t.Errorf("receipt = %+v, want weight 42 against at cast time", rcpt)
	}

	// The returned proposal is a copy.
	p.Voters["mallory"] = VoteReceipt{Weight: 1}
	if fresh, _ := e.Get(id); len(fresh.Voters) != 1 {
		t.Error("mutating a returned proposal leaked into engine state")
	}
}
