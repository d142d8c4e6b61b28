// Package resolvedevents streams fresh address resolutions to Kafka.
package resolvedevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/garage-geo/internal/core/model"
)

type Event struct {
	Address  string    `json:"address"`
	Outcome  string    `json:"outcome"`
	District string    `json:"district,omitempty"`
	Lat      float64   `json:"lat,omitempty"`
	Lng      float64   `json:"lng,omitempty"`
	Cell     string    `json:"h3_cell,omitempty"`
	Provider string    `json:"provider,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	TS       time.Time `json:"ts"`
}

func FromLocation(loc model.ResolvedLocation, ts time.Time) Event {
	ev := Event{
		Address:  loc.Address,
		Outcome:  string(loc.Outcome),
		District: loc.District,
		Cell:     loc.Cell,
		Provider: loc.Provider,
		Reason:   loc.Reason,
		TS:       ts.UTC(),
	}
	if loc.Resolved() {
		ev.Lat, ev.Lng = loc.Coordinate.Lat, loc.Coordinate.Lng
	}
	return ev
}

type Publisher struct {
	topic   string
	events  chan Event
	prod    sarama.AsyncProducer
	logger  *slog.Logger
	dropped atomic.Int64
	mu      sync.RWMutex
	closed  bool
	stopped chan struct{}
	errDone chan struct{}
}

func NewPublisher(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolvedevents: create async producer: %w", err)
	}
	return newWithProducer(prod, topic, queueSize, logger), nil
}

func newWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		events:  make(chan Event, queueSize),
		prod:    prod,
		logger:  logger,
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Warn("resolvedevents: marshal", "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.Address),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		defer close(p.errDone)
		for err := range p.prod.Errors() {
			if err != nil {
				p.logger.Warn("resolvedevents: producer error", "err", err)
			}
		}
	}()

	return p
}

// Observe queues loc for publishing. It never blocks: a full queue or a
// closed publisher drops the event.
func (p *Publisher) Observe(_ context.Context, loc model.ResolvedLocation) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.events <- FromLocation(loc, time.Now()):
	default:
		p.dropped.Add(1)
	}
}

func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Close flushes queued events and closes the producer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	<-p.stopped

	err := p.prod.Close()
	<-p.errDone
	if err != nil {
		return fmt.Errorf("resolvedevents: close producer: %w", err)
	}
	return nil
}
