package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"

	"github.com/cortexmarket/cortex-ledger/src/core/event"
	"github.com/cortexmarket/cortex-ledger/src/ledgerd/data"
)

// EventMonitor tails the ledger event stream and posts governance and
// registry activity to a Discord channel. Token movements are intentionally
// not posted; they are too chatty for a public channel.
type EventMonitor struct {
	rdb       *redis.Client
	session   *discordgo.Session
	channelID string
	lastID    string
}

func NewEventMonitor(rdb *redis.Client, session *discordgo.Session, channelID string) *EventMonitor {
	// "$" tails from stream end: notifications are at-most-once, events
	// published while the notifier is down are not posted on restart.
	return &EventMonitor{rdb: rdb, session: session, channelID: channelID, lastID: "$"}
}

func (m *EventMonitor) Start(ctx context.Context) {
	log.Println("Starting ledger event monitor")
	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping ledger event monitor")
			return
		default:
		}

		streams, err := m.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{data.EventStream(), m.lastID},
			Block:   5 * time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			log.Printf("event monitor: read: %v", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				m.lastID = msg.ID
				if err := m.post(msg); err != nil {
					log.Printf("event monitor: post %s: %v", msg.ID, err)
				}
			}
		}
	}
}

func (m *EventMonitor) post(msg redis.XMessage) error {
	payload, _ := msg.Values["payload"].(string)
	var ev event.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return err
	}

	text := format(ev)
	if text == "" {
		return nil
	}
	_, err := m.session.ChannelMessageSend(m.channelID, text)
	return err
}

func format(ev event.Event) string {
	switch ev.Kind {
	case event.ProposalSubmitted:
		return fmt.Sprintf("📜 Proposal #%d submitted by `%s`: **%s** (voting open %s)",
			ev.ProposalID, short(ev.Actor), ev.Title, time.Duration(ev.DurationSec)*time.Second)
	case event.VoteCast:
		side := "against"
		if ev.Support {
			side = "for"
		}
		return fmt.Sprintf("🗳️ `%s` voted %s proposal #%d with weight %d", short(ev.Actor), side, ev.ProposalID, ev.Weight)
	case event.ProposalExecuted:
		if ev.Executed {
			return fmt.Sprintf("✅ Proposal #%d passed", ev.ProposalID)
		}
		return fmt.Sprintf("❌ Proposal #%d rejected", ev.ProposalID)
	case event.ModelRegistered:
		return fmt.Sprintf("🧠 Model #%d **%s** v%s registered by `%s` (stake %d)",
			ev.ModelID, ev.Name, ev.Version, short(ev.Actor), ev.Amount)
	case event.ModelPurchased:
		return fmt.Sprintf("💰 Model #%d purchased by `%s` for %d", ev.ModelID, short(ev.Actor), ev.Price)
	case event.ModelDeregistered:
		return fmt.Sprintf("🗑️ Model #%d withdrawn, %d stake released", ev.ModelID, ev.Amount)
	default:
		return ""
	}
}

func short(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
