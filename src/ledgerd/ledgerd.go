package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/cortexmarket/cortex-ledger/src/core"
	"github.com/cortexmarket/cortex-ledger/src/core/event"
	"github.com/cortexmarket/cortex-ledger/src/ledgerd/config"
	"github.com/cortexmarket/cortex-ledger/src/ledgerd/data"
	"github.com/cortexmarket/cortex-ledger/src/ledgerd/types"
	"github.com/cortexmarket/cortex-ledger/src/ledgerd/webserver"
)

var allModels = []interface{}{
	&types.Participant{}, &types.Setting{}, &types.JournalEntry{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	migrate(db)

	if err := data.LoadSettings(db); err != nil {
		log.Fatalf("settings: %v", err)
	}
	updaters, treasury, err := data.LoadParticipants(db)
	if err != nil {
		log.Fatalf("participants: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)
	journal := data.NewJournal(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := event.MultiSink{
		journal,
		event.SinkFunc(func(ev event.Event) {
			if err := data.PublishEvent(ctx, rdb, ev); err != nil {
				log.Printf("event stream: publish seq %d: %v", ev.Seq, err)
			}
		}),
	}

	ledger := core.New(core.Config{
		BaseStakingRequirement: cfg.BaseStakingRequirement,
		InfluencerThreshold:    cfg.InfluencerThreshold,
		QuorumMinimum:          cfg.QuorumMinimum,
		MaxVotingDuration:      cfg.MaxVotingDuration,
		ReputationWeightFactor: cfg.ReputationWeightFactor,
		MaxTags:                cfg.MaxTags,
		CategoryWeights:        data.CategoryWeights(),
		Updaters:               updaters,
		Treasury:               treasury,
	}, sink)

	// Rebuild state from the journal before taking traffic. Replay bypasses
	// the sink, so journaled events are not re-appended.
	n, err := journal.Replay(ledger)
	if err != nil {
		log.Fatalf("journal replay: %v", err)
	}
	log.Printf("ledger state rebuilt from %d journaled events", n)

	router := webserver.New(cfg, ledger, rdb)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("cortex-ledger listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
