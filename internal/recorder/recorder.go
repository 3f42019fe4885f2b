// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package recorder stores readings in InfluxDB alongside the MQTT feed.
//
// Each published protocol.Payload becomes one "sensor_readings" point tagged
// with the record kind, the topic and the agent id. Writes are batched and
// non-blocking; asynchronous failures go to the SetOnError callback.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/relabs-tech/climate_agent/internal/config"
	"github.com/relabs-tech/climate_agent/internal/protocol"
)

// Measurement is the InfluxDB measurement name for all readings.
const Measurement = "sensor_readings"

const (
	connectTimeout        = 10 * time.Second
	millisecondsPerSecond = 1000
)

var (
	ErrDisabled           = errors.New("recorder: disabled in configuration")
	ErrConnectionFailed   = errors.New("recorder: connection failed")
	ErrUnknownTopic       = errors.New("recorder: unknown topic")
	ErrUnsupportedPayload = errors.New("recorder: payload is not a protocol.Payload")
)

// pointWriter is satisfied by api.WriteAPI.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// Recorder implements the scheduler's sink interface on top of InfluxDB.
type Recorder struct {
	w       pointWriter
	agentID string
	close   func()
	now     func() time.Time

	mu      sync.RWMutex
	topics  map[string]struct{}
	onError func(err error)
}

// Connect pings the server and opens a batching write API.
func Connect(cfg config.InfluxDBConfig, agentID string) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	r := newRecorder(writeAPI, agentID)
	r.close = client.Close
	go r.handleWriteErrors(writeAPI.Errors())
	return r, nil
}

func newRecorder(w pointWriter, agentID string) *Recorder {
	return &Recorder{
		w:       w,
		agentID: agentID,
		now:     time.Now,
		topics:  make(map[string]struct{}),
	}
}

func (r *Recorder) handleWriteErrors(errs <-chan error) {
	for err := range errs {
		r.mu.RLock()
		cb := r.onError
		r.mu.RUnlock()
		if cb != nil {
			cb(err)
		}
	}
}

// SetOnError sets the callback for asynchronous write failures.
func (r *Recorder) SetOnError(cb func(err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = cb
}

// CreatePublisher registers topic. Registering twice is a no-op.
func (r *Recorder) CreatePublisher(topic string) error {
	r.mu.Lock()
	r.topics[topic] = struct{}{}
	r.mu.Unlock()
	return nil
}

// Publish queues payload as one point. Payloads without fields are dropped.
func (r *Recorder) Publish(topic string, payload any) error {
	r.mu.RLock()
	_, ok := r.topics[topic]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}

	var p protocol.Payload
	switch v := payload.(type) {
	case protocol.Payload:
		p = v
	case *protocol.Payload:
		if v == nil {
			return ErrUnsupportedPayload
		}
		p = *v
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
	if len(p.Fields) == 0 {
		return nil
	}

	ts := p.Time
	if ts.IsZero() {
		ts = r.now()
	}
	tags := map[string]string{
		"kind":  p.Kind,
		"topic": topic,
	}
	if r.agentID != "" {
		tags["agent"] = r.agentID
	}
	r.w.WritePoint(write.NewPoint(Measurement, tags, p.Fields, ts))
	return nil
}

// Close flushes pending points and closes the client.
func (r *Recorder) Close() error {
	r.w.Flush()
	if r.close != nil {
		r.close()
	}
	return nil
}
