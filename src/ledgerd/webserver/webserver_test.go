package webserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cortexmarket/cortex-ledger/src/core"
	"github.com/cortexmarket/cortex-ledger/src/ledgerd/config"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*gin.Engine, *core.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ledger := core.New(core.Config{
		BaseStakingRequirement: 1000,
		InfluencerThreshold:    500,
		QuorumMinimum:          100,
		MaxVotingDuration:      30 * 24 * time.Hour,
		ReputationWeightFactor: 10,
		MaxTags:                5,
		Updaters:               []string{"oracle"},
		Treasury:               []string{"treasury"},
	}, nil)
	if err := ledger.Mint("treasury", "alice", 10000); err != nil {
		t.Fatalf("mint: %v", err)
	}

	cfg := config.Config{JWTSecret: testSecret, Port: "0"}
	return New(cfg, ledger, nil), ledger
}

func doJSON(t *testing.T, router *gin.Engine, method, path, addr string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if addr != "" {
		token, err := issueJWT(addr, []byte(testSecret))
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMutationsRequireJWT(t *testing.T) {
	router, _ := newTestServer(t)

	paths := []string{"/v1/transfer", "/v1/stake", "/v1/reputation", "/v1/proposals", "/v1/models"}
	for _, p := range paths {
		w := doJSON(t, router, http.MethodPost, p, "", gin.H{})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("POST %s without token = %d, want 401", p, w.Code)
		}
	}
}

func TestTransferFlow(t *testing.T) {
	router, ledger := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/v1/transfer", "alice", gin.H{"to": "bob", "amount": 400})
	if w.Code != http.StatusCreated {
		t.Fatalf("transfer = %d: %s", w.Code, w.Body)
	}
	if got := ledger.BalanceOf("bob"); got != 400 {
		t.Errorf("bob balance = %d, want 400", got)
	}

	// Overdraft maps to 422 with a typed error message.
	w = doJSON(t, router, http.MethodPost, "/v1/transfer", "alice", gin.H{"to": "bob", "amount": 100000})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraft = %d, want 422: %s", w.Code, w.Body)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/accounts/bob/balance", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("balance read = %d", w.Code)
	}
	var resp struct {
		Balance uint64 `json:"balance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Balance != 400 {
		t.Errorf("balance body = %d, want 400", resp.Balance)
	}
}

func TestMintRequiresTreasuryRole(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/v1/mint", "alice", gin.H{"to": "alice", "amount": 5})
	if w.Code != http.StatusForbidden {
		t.Errorf("mint by non-treasury = %d, want 403: %s", w.Code, w.Body)
	}
	w = doJSON(t, router, http.MethodPost, "/v1/mint", "treasury", gin.H{"to": "carol", "amount": 5})
	if w.Code != http.StatusCreated {
		t.Errorf("mint by treasury = %d, want 201: %s", w.Code, w.Body)
	}
}

func TestProposalEndpoints(t *testing.T) {
	router, ledger := newTestServer(t)

	if err := ledger.StakeGovernance("alice", 2000); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodPost, "/v1/proposals", "alice", gin.H{
		"title": "raise base stake", "description": "from 1000 to 2000", "votingDurationSec": 3600,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit = %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, router, http.MethodPost, "/v1/proposals/0/vote", "alice", gin.H{"support": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("vote = %d: %s", w.Code, w.Body)
	}
	var voteResp struct {
		Weight uint64 `json:"weight"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &voteResp); err != nil {
		t.Fatal(err)
	}
	if voteResp.Weight != 2000 {
		t.Errorf("weight = %d, want 2000", voteResp.Weight)
	}

	// Double vote maps to 409.
	w = doJSON(t, router, http.MethodPost, "/v1/proposals/0/vote", "alice", gin.H{"support": false})
	if w.Code != http.StatusConflict {
		t.Errorf("double vote = %d, want 409: %s", w.Code, w.Body)
	}

	// Execute before the window elapses maps to 409.
	w = doJSON(t, router, http.MethodPost, "/v1/proposals/0/execute", "alice", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("early execute = %d, want 409: %s", w.Code, w.Body)
	}

	// Unknown proposal maps to 404 on reads.
	w = doJSON(t, router, http.MethodGet, "/v1/proposals/99", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown proposal = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/proposals/0/voted/alice", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("true")) {
		t.Errorf("hasVoted = %d %s, want voted true", w.Code, w.Body)
	}
	w = doJSON(t, router, http.MethodGet, "/v1/proposals/count", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"count":1`)) {
		t.Errorf("count = %d %s", w.Code, w.Body)
	}
}

func TestModelEndpoints(t *testing.T) {
	router, ledger := newTestServer(t)

	body := gin.H{
		"name": "sentiment-v2", "version": "2.0.0", "description": "classifier",
		"contentRef": "QmContent", "metadataRef": "QmMeta",
		"tags": []string{"nlp"}, "isPublic": true, "stakeAmount": 1000,
	}
	w := doJSON(t, router, http.MethodPost, "/v1/models", "alice", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", w.Code, w.Body)
	}
	if got := ledger.StakedOf("alice", "model:0"); got != 1000 {
		t.Errorf("escrow = %d, want 1000", got)
	}

	// Under the stake gate maps to 422 and records nothing.
	low := gin.H{"name": "m", "version": "1", "contentRef": "Qm", "stakeAmount": 10}
	w = doJSON(t, router, http.MethodPost, "/v1/models", "alice", low)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("understaked register = %d, want 422: %s", w.Code, w.Body)
	}

	// Toggle by a non-owner maps to 403.
	w = doJSON(t, router, http.MethodPost, "/v1/models/0/toggle", "bob", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign toggle = %d, want 403: %s", w.Code, w.Body)
	}

	// Deregistration while active maps to 409.
	w = doJSON(t, router, http.MethodPost, "/v1/models/0/deregister", "alice", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("active deregister = %d, want 409: %s", w.Code, w.Body)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/models/0", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get model = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/v1/accounts/alice/models", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"models":[0]`)) {
		t.Errorf("user models = %d %s", w.Code, w.Body)
	}
}

func TestReputationEndpoints(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/v1/reputation", "oracle", gin.H{
		"address": "alice", "category": "accuracy", "delta": 100,
		"evidenceHash": "0xabc", "verified": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("update = %d: %s", w.Code, w.Body)
	}

	// Non-updater maps to 403.
	w = doJSON(t, router, http.MethodPost, "/v1/reputation", "alice", gin.H{
		"address": "alice", "category": "accuracy", "delta": 100,
		"evidenceHash": "0xabc", "verified": true,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("non-updater = %d, want 403: %s", w.Code, w.Body)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/reputation/alice", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	var resp struct {
		TotalScore int64 `json:"totalScore"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalScore != 100 {
		t.Errorf("total = %d, want 100", resp.TotalScore)
	}

	// Accounts with no history read as zero, not 404.
	w = doJSON(t, router, http.MethodGet, "/v1/reputation/nobody", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("empty reputation = %d, want 200", w.Code)
	}
}

func TestSupplyEndpoint(t *testing.T) {
	router, _ := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/v1/supply", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("supply = %d", w.Code)
	}
	want := fmt.Sprintf(`"totalSupply":%d`, 10000)
	if !bytes.Contains(w.Body.Bytes(), []byte(want)) {
		t.Errorf("supply body = %s, want %s", w.Body, want)
	}
}
