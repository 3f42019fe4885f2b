// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package publish delivers readings to the MQTT hub.
//
// A topic must be registered with CreatePublisher before Publish accepts it.
// Payloads are JSON encoded and every publish is awaited before returning.
package publish

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/climate_agent/internal/config"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	disconnectWait = 250 // ms
)

// client is the part of mqtt.Client a Connection uses.
type client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Connection is a hub session. Safe for concurrent use.
type Connection struct {
	c   client
	qos byte

	mu     sync.RWMutex
	topics map[string]struct{}
}

// Connect dials the hub configured in cfg.
func Connect(cfg *config.Config) (*Connection, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.HubEndpoint).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(connectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: %s: timeout after %v", ErrConnectionFailed, cfg.HubEndpoint, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, cfg.HubEndpoint, err)
	}
	return newConnection(c, cfg.QoS), nil
}

func newConnection(c client, qos byte) *Connection {
	return &Connection{
		c:      c,
		qos:    qos,
		topics: make(map[string]struct{}),
	}
}

// CreatePublisher registers topic. Registering twice is a no-op.
func (p *Connection) CreatePublisher(topic string) error {
	if topic == "" || strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	p.mu.Lock()
	p.topics[topic] = struct{}{}
	p.mu.Unlock()
	return nil
}

// Publish JSON-encodes payload and sends it on topic.
func (p *Connection) Publish(topic string, payload any) error {
	p.mu.RLock()
	_, ok := p.topics[topic]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchTopic, topic)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPublishFailed, err)
	}

	if !p.c.IsConnected() {
		return ErrNotConnected
	}

	token := p.c.Publish(topic, p.qos, false, b)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close disconnects from the hub.
func (p *Connection) Close() error {
	p.c.Disconnect(disconnectWait)
	return nil
}
