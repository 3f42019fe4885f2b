// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/climate_agent/internal/measure"
	"github.com/relabs-tech/climate_agent/internal/protocol"
	"github.com/relabs-tech/climate_agent/internal/sensors/htu21d"
)

var (
	htuMessage = []byte(`{"htu21dData":{"temperature":{"value":24.7,"unit":"celsius"},"humidity":{"relative":32.3},"timestamp":"2026-03-01T12:00:00Z"}}`)
	bmxMessage = []byte(`{"bmx280Data":{"source":"BME280{bus}","pressureHpa":998.2,"timestamp":"2026-03-01T12:00:05Z"}}`)
)

func fixedFeed() *Feed {
	f := NewFeed()
	f.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC) }
	return f
}

func TestDecodeReading(t *testing.T) {
	r, err := DecodeReading("climate/office", htuMessage)
	if err != nil {
		t.Fatalf("DecodeReading() error = %v", err)
	}
	if r.Kind != protocol.KindHTU21D || r.Topic != "climate/office" {
		t.Errorf("Kind/Topic = %q %q", r.Kind, r.Topic)
	}
	if r.Temperature == nil || r.Temperature.Value != 24.7 || r.Temperature.Unit != measure.Celsius {
		t.Errorf("Temperature = %+v", r.Temperature)
	}
	if r.Humidity == nil || r.Humidity.Relative != 32.3 || r.PressureHPa != nil {
		t.Errorf("Humidity/Pressure = %+v %v", r.Humidity, r.PressureHPa)
	}
	if got := strings.Join(r.Lines(), "|"); got != "T: 24.70°C|H: 32.30%" {
		t.Errorf("Lines() = %q", got)
	}

	b, err := DecodeReading("climate/lab", bmxMessage)
	if err != nil {
		t.Fatalf("DecodeReading() error = %v", err)
	}
	if b.PressureHPa == nil || *b.PressureHPa != 998.2 || b.Temperature != nil || b.Source != "BME280{bus}" {
		t.Errorf("bmx reading = %+v", b)
	}
}

func TestDecodeReadingErrors(t *testing.T) {
	for _, msg := range []string{
		`not json`,
		`{}`,
		`{"gpsData":{}}`,
		`{"htu21dData":{"temperature":{"unit":"kelvin"}}}`,
	} {
		if _, err := DecodeReading("t", []byte(msg)); err == nil {
			t.Errorf("DecodeReading(%s) succeeded", msg)
		}
	}
}

func TestDecodeReadingFromDriverPayload(t *testing.T) {
	// A payload produced by the driver decodes back to the same values.
	res := htu21dResult(t)
	b, err := json.Marshal(res.Payload())
	if err != nil {
		t.Fatal(err)
	}
	r, err := DecodeReading("t", b)
	if err != nil {
		t.Fatalf("DecodeReading() error = %v", err)
	}
	temp, _ := res.Temperature()
	if r.Temperature == nil || *r.Temperature != temp || r.Humidity != nil {
		t.Errorf("round trip = %+v, want temperature %+v only", r, temp)
	}
}

func htu21dResult(t *testing.T) htu21d.PollResult {
	t.Helper()
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x40, W: []byte{0xFE}},
			{Addr: 0x40, W: []byte{0xE3}},
			{Addr: 0x40, R: []byte{0x68, 0x3A, 0x7C}},
		},
		DontPanic: true,
	}
	dev, err := htu21d.New(bus, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := dev.Poll(htu21d.SelectTemperature)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestFeed(t *testing.T) {
	f := fixedFeed()
	ch, stop := f.Listen(4)

	if _, err := f.Handle("climate/office", htuMessage); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if _, err := f.Handle("climate/attic", bmxMessage); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if _, err := f.Handle("climate/attic", []byte("garbage")); err == nil {
		t.Error("Handle(garbage) succeeded")
	}

	latest := f.Latest()
	if len(latest) != 2 || latest[0].Topic != "climate/attic" || latest[1].Topic != "climate/office" {
		t.Fatalf("Latest() = %+v", latest)
	}
	r, ok := f.Get("climate/attic")
	if !ok || r.Kind != protocol.KindBMX280 || !r.Received.Equal(f.now()) {
		t.Errorf("Get() = %+v, %v", r, ok)
	}

	if got := (<-ch).Topic; got != "climate/office" {
		t.Errorf("first forwarded reading on %q", got)
	}
	if got := (<-ch).Topic; got != "climate/attic" {
		t.Errorf("second forwarded reading on %q", got)
	}

	stop()
	stop()
	if _, ok := <-ch; ok {
		t.Error("listener channel still open after stop")
	}
	if _, err := f.Handle("climate/office", htuMessage); err != nil {
		t.Fatalf("Handle() after stop error = %v", err)
	}
}

func TestFeedDropsForSlowListener(t *testing.T) {
	f := fixedFeed()
	ch, stop := f.Listen(1)
	defer stop()

	for i := 0; i < 3; i++ {
		if _, err := f.Handle("climate/office", htuMessage); err != nil {
			t.Fatal(err)
		}
	}
	if len(ch) != 1 {
		t.Errorf("buffered %d readings, want 1", len(ch))
	}
}

func TestConsoleHandler(t *testing.T) {
	var out bytes.Buffer
	h := consoleHandler(fixedFeed(), &out, testLogger())
	h("climate/office", htuMessage)
	h("climate/office", []byte("garbage"))

	got := out.String()
	if strings.Count(got, "\n") != 1 {
		t.Fatalf("output = %q, want one line", got)
	}
	for _, want := range []string{"climate/office", "htu21dData", "T: 24.70°C", "H: 32.30%"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestWebReadings(t *testing.T) {
	f := fixedFeed()
	srv := httptest.NewServer(newWebHandler(f, testLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/readings?topic=climate/office")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status before data = %d, want 404", resp.StatusCode)
	}

	if _, err := f.Handle("climate/office", htuMessage); err != nil {
		t.Fatal(err)
	}

	resp, err = http.Get(srv.URL + "/api/readings")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var readings []Reading
	if err := json.NewDecoder(resp.Body).Decode(&readings); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(readings) != 1 || readings[0].Temperature == nil || readings[0].Temperature.Value != 24.7 {
		t.Errorf("readings = %+v", readings)
	}
}

func TestWebSocketFeed(t *testing.T) {
	f := fixedFeed()
	if _, err := f.Handle("climate/office", htuMessage); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(newWebHandler(f, testLogger()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snapshot Reading
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if snapshot.Topic != "climate/office" {
		t.Errorf("snapshot topic = %q", snapshot.Topic)
	}

	// The listener is registered before the snapshot is written, so this
	// reading is delivered live.
	if _, err := f.Handle("climate/attic", bmxMessage); err != nil {
		t.Fatal(err)
	}
	var live Reading
	if err := conn.ReadJSON(&live); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if live.Topic != "climate/attic" || live.PressureHPa == nil {
		t.Errorf("live reading = %+v", live)
	}
}

func TestRenderReading(t *testing.T) {
	r, err := DecodeReading("climate/office", htuMessage)
	if err != nil {
		t.Fatal(err)
	}
	img := renderReading(r)
	if b := img.Bounds(); b.Dx() != displayWidth || b.Dy() != displayHeight {
		t.Fatalf("bounds = %v", b)
	}
	lit := 0
	for _, px := range img.Pix {
		if px != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("nothing drawn")
	}

	// Lines past the bottom edge are dropped.
	many := renderLines("1", "2", "3", "4", "5", "6", "7")
	if many.Bounds().Dy() != displayHeight {
		t.Errorf("bounds = %v", many.Bounds())
	}
}
