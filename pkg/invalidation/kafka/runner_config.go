package kafka

import (
	"strings"
	"time"

	"github.com/mohammed-shakir/garage-geo/internal/core/config"
)

type Driver string

const (
	DriverNone  Driver = "none"
	DriverKafka Driver = "kafka"
)

type InvalidationConfig struct {
	Enabled bool
	Driver  Driver

	Brokers []string
	Topic   string
	GroupID string

	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
}

// FromConfig maps the env-derived settings onto consumer defaults.
func FromConfig(c config.InvalidationCfg) InvalidationConfig {
	driver := Driver(strings.ToLower(strings.TrimSpace(c.Driver)))
	if driver == "" {
		driver = DriverNone
	}
	return InvalidationConfig{
		Enabled:          c.Enabled,
		Driver:           driver,
		Brokers:          config.Brokers(c.Brokers),
		Topic:            c.Topic,
		GroupID:          c.GroupID,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		InitialOldest:    true,
	}
}
