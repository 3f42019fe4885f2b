// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/climate_agent/internal/protocol"
)

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Error() error { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

var _ mqtt.Token = (*fakeToken)(nil)

type sent struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	connected    bool
	token        *fakeToken
	sent         []sent
	disconnected bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{connected: true, token: &fakeToken{}}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, sent{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestCreatePublisherIdempotent(t *testing.T) {
	c := newFakeClient()
	p := newConnection(c, 1)

	for i := 0; i < 2; i++ {
		if err := p.CreatePublisher("climate/office"); err != nil {
			t.Fatalf("CreatePublisher() #%d error = %v", i, err)
		}
	}
	if len(p.topics) != 1 {
		t.Errorf("registered %d topics, want 1", len(p.topics))
	}
}

func TestCreatePublisherInvalidTopic(t *testing.T) {
	p := newConnection(newFakeClient(), 0)
	for _, topic := range []string{"", "climate/+", "climate/#"} {
		if err := p.CreatePublisher(topic); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("CreatePublisher(%q) error = %v, want ErrInvalidTopic", topic, err)
		}
	}
}

func TestPublish(t *testing.T) {
	c := newFakeClient()
	p := newConnection(c, 1)
	if err := p.CreatePublisher("climate/office"); err != nil {
		t.Fatal(err)
	}

	payload := protocol.Payload{
		Kind: protocol.KindHTU21D,
		Data: map[string]any{"humidity": map[string]float64{"relative": 32.3}},
	}
	if err := p.Publish("climate/office", payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(c.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(c.sent))
	}
	msg := c.sent[0]
	if msg.topic != "climate/office" || msg.qos != 1 {
		t.Errorf("sent to %q qos %d", msg.topic, msg.qos)
	}

	env, err := protocol.Decode(msg.payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if env.Kind != protocol.KindHTU21D {
		t.Errorf("Kind = %q", env.Kind)
	}
	var body struct {
		Humidity struct {
			Relative float64 `json:"relative"`
		} `json:"humidity"`
	}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatal(err)
	}
	if math.Abs(body.Humidity.Relative-32.3) > 1e-9 {
		t.Errorf("relative = %v", body.Humidity.Relative)
	}
}

func TestPublishErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(c *fakeClient)
		topic   string
		payload any
		want    error
	}{
		{
			name:    "unregistered topic",
			topic:   "climate/other",
			payload: 1,
			want:    ErrNoSuchTopic,
		},
		{
			name:    "unencodable payload",
			topic:   "climate/office",
			payload: math.NaN(),
			want:    ErrPublishFailed,
		},
		{
			name:    "disconnected",
			setup:   func(c *fakeClient) { c.connected = false },
			topic:   "climate/office",
			payload: 1,
			want:    ErrNotConnected,
		},
		{
			name:    "transport failure",
			setup:   func(c *fakeClient) { c.token.err = errors.New("broker gone") },
			topic:   "climate/office",
			payload: 1,
			want:    ErrPublishFailed,
		},
		{
			name:    "timeout",
			setup:   func(c *fakeClient) { c.token.timeout = true },
			topic:   "climate/office",
			payload: 1,
			want:    ErrPublishFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeClient()
			if tt.setup != nil {
				tt.setup(c)
			}
			p := newConnection(c, 0)
			if err := p.CreatePublisher("climate/office"); err != nil {
				t.Fatal(err)
			}
			err := p.Publish(tt.topic, tt.payload)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClose(t *testing.T) {
	c := newFakeClient()
	if err := newConnection(c, 0).Close(); err != nil || !c.disconnected {
		t.Errorf("Close() = %v, disconnected = %v", err, c.disconnected)
	}
}

type recordingSink struct {
	name    string
	created []string
	topics  []string
	err     error
}

func (s *recordingSink) CreatePublisher(topic string) error {
	s.created = append(s.created, topic)
	return s.err
}

func (s *recordingSink) Publish(topic string, _ any) error {
	s.topics = append(s.topics, topic)
	return s.err
}

func TestFanout(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b", err: errors.New("b down")}
	c := &recordingSink{name: "c"}
	f := NewFanout(a, nil, b, c)

	if err := f.CreatePublisher("t"); err == nil || !strings.Contains(err.Error(), "b down") {
		t.Errorf("CreatePublisher() error = %v", err)
	}
	err := f.Publish("t", 1)
	if err == nil || !strings.Contains(err.Error(), "b down") {
		t.Errorf("Publish() error = %v", err)
	}
	for _, s := range []*recordingSink{a, b, c} {
		if len(s.created) != 1 || len(s.topics) != 1 {
			t.Errorf("sink %s: created %v, published %v", s.name, s.created, s.topics)
		}
	}

	if err := NewFanout(a, c).Publish("t", 1); err != nil {
		t.Errorf("Publish() with healthy sinks error = %v", err)
	}
}
