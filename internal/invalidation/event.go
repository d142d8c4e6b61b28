// Package invalidation defines the cache invalidation event carried over Kafka.
package invalidation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	OpDelete = "delete"
	OpClear  = "clear"
)

// Event removes cached geocode outcomes. Seq orders events from one producer;
// zero disables replay detection for the event.
type Event struct {
	Version   int       `json:"version"`
	Op        string    `json:"op"`
	Addresses []string  `json:"addresses,omitempty"`
	Seq       uint64    `json:"seq,omitempty"`
	TS        time.Time `json:"ts"`
	Source    string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	switch e.Op {
	case OpDelete:
		if len(e.Addresses) == 0 {
			return fmt.Errorf("delete requires at least one address")
		}
		for i, a := range e.Addresses {
			if strings.TrimSpace(a) == "" {
				return fmt.Errorf("addresses[%d] is empty", i)
			}
		}
	case OpClear:
		if len(e.Addresses) > 0 {
			return fmt.Errorf("clear takes no addresses")
		}
	default:
		return fmt.Errorf("op must be delete|clear")
	}
	return nil
}

// Decode parses and validates one message value.
func Decode(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("decode: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, fmt.Errorf("validate: %w", err)
	}
	return ev, nil
}
