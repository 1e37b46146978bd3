package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSSubscriber subscribes to NATS JetStream subjects and feeds
// decoded-but-untyped events into the fold loop via eventChan. The
// host pipeline publishes one subject per event family.
type NATSSubscriber struct {
	js        jetstream.JetStream
	eventChan chan<- RawEvent
	consumers []jetstream.ConsumeContext
}

// RawEvent is the received-but-unparsed event from NATS, ready for the
// shell to convert into a typed event.Event before folding.
type RawEvent struct {
	Subject   string
	EventType string
	Data      []byte
	Received  time.Time
	AckFunc   func() // ACK after the event was folded (or skipped as duplicate)
	NakFunc   func() // NAK on transient failure (redelivered)
}

// SubjectConfig maps NATS subjects to event types.
type SubjectConfig struct {
	Subject      string
	EventType    string
	ConsumerName string
	StreamName   string
}

// DefaultSubjects returns the standard subject configuration.
func DefaultSubjects() []SubjectConfig {
	return []SubjectConfig{
		{Subject: "mint.transfers.token.>", EventType: "Transfer", ConsumerName: "view-transfers", StreamName: "MINT_TRANSFERS"},
		{Subject: "mint.transfers.gauge.>", EventType: "GaugeTransfer", ConsumerName: "view-gauge-transfers", StreamName: "MINT_TRANSFERS"},
		{Subject: "mint.pool.deposit.>", EventType: "Deposit", ConsumerName: "view-pool-deposit", StreamName: "MINT_POOL"},
		{Subject: "mint.pool.withdraw.>", EventType: "Withdraw", ConsumerName: "view-pool-withdraw", StreamName: "MINT_POOL"},
		{Subject: "mint.offers.created.>", EventType: "OfferCreated", ConsumerName: "view-offers-created", StreamName: "MINT_OFFERS"},
		{Subject: "mint.offers.modified.>", EventType: "OfferModified", ConsumerName: "view-offers-modified", StreamName: "MINT_OFFERS"},
		{Subject: "mint.offers.taken.>", EventType: "OfferTaken", ConsumerName: "view-offers-taken", StreamName: "MINT_OFFERS"},
		{Subject: "mint.offers.cancelled.>", EventType: "OfferCancelled", ConsumerName: "view-offers-cancelled", StreamName: "MINT_OFFERS"},
		{Subject: "mint.engine.mint.>", EventType: "MintSwap", ConsumerName: "view-engine-mint", StreamName: "MINT_ENGINE"},
		{Subject: "mint.engine.swap.>", EventType: "Swap", ConsumerName: "view-engine-swap", StreamName: "MINT_ENGINE"},
		{Subject: "mint.engine.redeem.>", EventType: "Redeem", ConsumerName: "view-engine-redeem", StreamName: "MINT_ENGINE"},
		{Subject: "mint.amm.exchange.>", EventType: "TokenExchange", ConsumerName: "view-amm-exchange", StreamName: "MINT_AMM"},
		{Subject: "mint.bonds.new.>", EventType: "NewBond", ConsumerName: "view-bonds-new", StreamName: "MINT_BONDS"},
		{Subject: "mint.bonds.remove.>", EventType: "RemoveBond", ConsumerName: "view-bonds-remove", StreamName: "MINT_BONDS"},
	}
}

func NewNATSSubscriber(js jetstream.JetStream, eventChan chan<- RawEvent) *NATSSubscriber {
	return &NATSSubscriber{
		js:        js,
		eventChan: eventChan,
	}
}

// Subscribe creates JetStream consumers for all configured subjects.
// Consumers use explicit ACK, max_deliver=5, ack_wait=30s.
func (ns *NATSSubscriber) Subscribe(ctx context.Context, subjects []SubjectConfig) error {
	for _, cfg := range subjects {
		cfg := cfg
		consumer, err := ns.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
			Durable:       cfg.ConsumerName,
			FilterSubject: cfg.Subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       30 * time.Second,
			MaxDeliver:    5,
			DeliverPolicy: jetstream.DeliverAllPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
		}

		consumerContext, err := consumer.Consume(func(msg jetstream.Msg) {
			raw := RawEvent{
				Subject:   msg.Subject(),
				EventType: cfg.EventType,
				Data:      msg.Data(),
				Received:  time.Now(),
				AckFunc:   func() { msg.Ack() },
				NakFunc:   func() { msg.Nak() },
			}

			select {
			case ns.eventChan <- raw:
			case <-ctx.Done():
				msg.Nak()
			}
		})
		if err != nil {
			return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
		}

		ns.consumers = append(ns.consumers, consumerContext)
		log.Printf("INFO: subscribed to %s (consumer=%s)", cfg.Subject, cfg.ConsumerName)
	}

	return nil
}

// EnsureStreams creates the required JetStream streams if they don't
// exist. Streams use FileStorage, retention=Limits, max_age=72h.
func EnsureStreams(ctx context.Context, js jetstream.JetStream) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      "MINT_TRANSFERS",
			Subjects:  []string{"mint.transfers.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "MINT_POOL",
			Subjects:  []string{"mint.pool.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "MINT_OFFERS",
			Subjects:  []string{"mint.offers.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "MINT_ENGINE",
			Subjects:  []string{"mint.engine.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "MINT_AMM",
			Subjects:  []string{"mint.amm.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "MINT_BONDS",
			Subjects:  []string{"mint.bonds.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
	}

	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		log.Printf("INFO: ensured stream %s", cfg.Name)
	}

	return nil
}

// Stop gracefully stops all consumers.
func (ns *NATSSubscriber) Stop() {
	for _, cc := range ns.consumers {
		cc.Stop()
	}
	log.Println("INFO: NATS subscribers stopped")
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("WARN: NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("INFO: NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
