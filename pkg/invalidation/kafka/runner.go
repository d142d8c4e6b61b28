// Package kafka consumes cache invalidation events and applies them to the
// geocode cache.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
	"github.com/mohammed-shakir/garage-geo/internal/invalidation"
)

// clearKey tracks the sequence of whole-cache clears in the dedupe table.
const clearKey = "\x00clear"

var ErrNotAssigned = errors.New("invalidation: no partitions assigned")

type Runner struct {
	log      *slog.Logger
	cfg      InvalidationConfig
	store    cache.Store
	ms       *metricSet
	ver      *versionDedupe
	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   map[int32]struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

type Options struct {
	Logger   *slog.Logger
	Register prometheus.Registerer
}

func New(cfg InvalidationConfig, store cache.Store, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		log:    opts.Logger,
		cfg:    cfg,
		store:  store,
		ms:     newMetricSet(opts.Register),
		ver:    newVersionDedupe(8192),
		assign: map[int32]struct{}{},
	}
}

func (r *Runner) Enabled() bool {
	return r.cfg.Enabled && r.cfg.Driver == DriverKafka
}

func (r *Runner) Start(ctx context.Context) error {
	if !r.Enabled() {
		r.log.Info("invalidation runner disabled", "driver", r.cfg.Driver, "enabled", r.cfg.Enabled)
		return nil
	}
	if r.store == nil {
		return errors.New("kafka runner: cache dependency is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = r.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = r.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = r.cfg.RebalanceTimeout
	if r.cfg.InitialOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(r.cfg.Brokers, r.cfg.GroupID, cfg)
	if err != nil {
		cancel()
		return fmt.Errorf("consumer group: %w", err)
	}

	h := &groupHandler{
		setup: func(sess sarama.ConsumerGroupSession) {
			claims := sess.Claims()
			r.assignMu.Lock()
			r.assigned.Store(true)
			r.assign = map[int32]struct{}{}
			for _, parts := range claims {
				for _, p := range parts {
					r.assign[p] = struct{}{}
				}
			}
			r.assignMu.Unlock()
		},
		cleanup: func(sarama.ConsumerGroupSession) {
			r.assignMu.Lock()
			r.assigned.Store(false)
			r.assign = map[int32]struct{}{}
			r.assignMu.Unlock()
		},
		process: r.handleMessage,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				r.log.Error("kafka consumer group close", "err", err)
			}
		}()

		for {
			if err := group.Consume(ctx, []string{r.cfg.Topic}, h); err != nil {
				r.log.Error("kafka consume error", "err", err)
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range group.Errors() {
			r.log.Error("kafka group error", "err", err)
		}
	}()

	r.log.Info("kafka invalidation runner started",
		"topic", r.cfg.Topic, "group", r.cfg.GroupID, "brokers", r.cfg.Brokers)
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("kafka invalidation runner stopped")
}

func (r *Runner) Readiness() (ready bool, partitions []int32) {
	if !r.assigned.Load() {
		return false, nil
	}
	r.assignMu.RLock()
	defer r.assignMu.RUnlock()
	for p := range r.assign {
		partitions = append(partitions, p)
	}
	return true, partitions
}

// Probe adapts Readiness to a health check.
func (r *Runner) Probe(context.Context) error {
	if ok, _ := r.Readiness(); !ok {
		return ErrNotAssigned
	}
	return nil
}

// handleMessage applies one event. Malformed events are counted and skipped so
// a bad message cannot wedge the partition.
func (r *Runner) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()

	if !msg.Timestamp.IsZero() {
		r.ms.lagGauge.Set(time.Since(msg.Timestamp).Seconds())
	}

	ev, err := invalidation.Decode(msg.Value)
	if err != nil {
		r.ms.msgs.WithLabelValues("invalid").Inc()
		r.log.Warn("invalidation event rejected",
			"partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}

	err = r.apply(ctx, ev)
	r.observe(ev.Op, err, time.Since(start))
	return err
}

func (r *Runner) observe(op string, err error, dur time.Duration) {
	if op == "" {
		op = "unknown"
	}
	if err != nil {
		r.ms.msgs.WithLabelValues("error").Inc()
	} else {
		r.ms.msgs.WithLabelValues("ok").Inc()
	}
	r.ms.proc.WithLabelValues(op).Observe(dur.Seconds())
}

func (r *Runner) apply(ctx context.Context, ev invalidation.Event) error {
	switch ev.Op {
	case invalidation.OpClear:
		if ev.Seq > 0 && r.ver.stale(clearKey, ev.Seq) {
			r.ms.apply.WithLabelValues("skip_version").Inc()
			return nil
		}
		if err := r.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		if ev.Seq > 0 {
			r.ver.record(clearKey, ev.Seq)
		}
		r.ms.apply.WithLabelValues("clear").Inc()
		r.log.Info("geocode cache cleared by event", "seq", ev.Seq, "source", ev.Source)
		return nil

	default:
		todo := make([]string, 0, len(ev.Addresses))
		for _, a := range ev.Addresses {
			if ev.Seq > 0 && r.ver.stale(a, ev.Seq) {
				r.ms.apply.WithLabelValues("skip_version").Inc()
				continue
			}
			todo = append(todo, a)
		}
		if len(todo) == 0 {
			return nil
		}
		// sequences are recorded only once the delete went through, so a
		// redelivered message after a failure is applied again
		if err := r.store.Delete(ctx, todo...); err != nil {
			return fmt.Errorf("delete %d cache entries: %w", len(todo), err)
		}
		if ev.Seq > 0 {
			for _, a := range todo {
				r.ver.record(a, ev.Seq)
			}
		}
		r.ms.apply.WithLabelValues("delete").Add(float64(len(todo)))
		return nil
	}
}

type groupHandler struct {
	setup   func(sarama.ConsumerGroupSession)
	cleanup func(sarama.ConsumerGroupSession)
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	if h.setup != nil {
		h.setup(sess)
	}
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	if h.cleanup != nil {
		h.cleanup(sess)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		if err := h.process(ctx, msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
