// Package feed consumes raw DCL log payloads from a NATS subject and turns
// them into particles. This is the transport for the telemetered variant:
// shore-side relays publish each received log fragment as one NATS message,
// the consumer parses it and republishes the decoded particles as JSON.
package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"fuelcell_parser/internal/driver"
)

// Config holds NATS connection and subject settings.
type Config struct {
	URL        string // NATS server URL, e.g. nats://localhost:4222.
	Subject    string // Subject carrying raw DCL log payloads.
	Queue      string // Optional queue group for load-shared consumption.
	OutSubject string // Optional subject to republish decoded particles on.
	Dataset    string // Dataset name to parse payloads with.
}

// Handler receives the parse result of each payload after any republish.
type Handler func(*driver.Result)

// Consumer subscribes to the raw feed and parses each payload.
type Consumer struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	drv     *driver.Driver
	out     string
	handler Handler
}

// NewConsumer connects to NATS and starts consuming. Each message payload is
// treated as a self-contained chunk of DCL log lines.
func NewConsumer(cfg Config, handler Handler) (*Consumer, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("feed: subject is required")
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("fuelcell_parser feed"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	c := &Consumer{
		nc:      nc,
		drv:     driver.New(cfg.Dataset),
		out:     cfg.OutSubject,
		handler: handler,
	}

	if cfg.Queue != "" {
		c.sub, err = nc.QueueSubscribe(cfg.Subject, cfg.Queue, c.onMessage)
	} else {
		c.sub, err = nc.Subscribe(cfg.Subject, c.onMessage)
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", cfg.Subject, err)
	}

	return c, nil
}

// onMessage parses one payload. Parse-level warnings ride along in the
// result; only transport or configuration problems are logged.
func (c *Consumer) onMessage(m *nats.Msg) {
	res, err := c.drv.Process(bytes.NewReader(m.Data))
	if err != nil {
		log.Printf("feed: payload on %s not processed: %v", m.Subject, err)
		return
	}

	if c.out != "" {
		for _, p := range res.Particles {
			b, err := json.Marshal(p)
			if err != nil {
				log.Printf("feed: marshal particle: %v", err)
				continue
			}
			if err := c.nc.Publish(c.out, b); err != nil {
				log.Printf("feed: publish particle: %v", err)
			}
		}
	}

	if c.handler != nil {
		c.handler(res)
	}
}

// Close drains the subscription and closes the connection.
func (c *Consumer) Close() error {
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			c.nc.Close()
			return fmt.Errorf("drain subscription: %w", err)
		}
	}
	return c.nc.Drain()
}
