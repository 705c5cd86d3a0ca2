package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/cortexmarket/cortex-ledger/src/ledgerd/data"
	"github.com/cortexmarket/cortex-ledger/src/notifier/config"
)

func main() {
	cfg := config.Load()

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatalf("discord: %v", err)
	}
	if err := session.Open(); err != nil {
		log.Fatalf("discord open: %v", err)
	}
	defer session.Close()

	rdb := data.MustRedis(cfg.RedisURL)

	ctx, cancel := context.WithCancel(context.Background())
	monitor := NewEventMonitor(rdb, session, cfg.ChannelID)
	go monitor.Start(ctx)

	log.Println("cortex-ledger notifier running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()
}
