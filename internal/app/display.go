// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/climate_agent/internal/config"
	"github.com/relabs-tech/climate_agent/internal/logging"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13 // basicfont.Face7x13
)

// RunDisplay shows the latest reading of one topic on an SSD1306 OLED.
func RunDisplay(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	topic := cfg.Display.Topic
	if topic == "" {
		topics := sensorTopics(cfg)
		if len(topics) == 0 {
			return fmt.Errorf("display: no topic configured")
		}
		topic = topics[0]
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(cfg.Display.Bus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Info("display initialized", "bus", bus.String())

	if err := dev.Draw(dev.Bounds(), renderLines("climate agent", topic, "Waiting..."), image.Point{}); err != nil {
		log.Warn("splash failed", "error", err)
	}

	client, err := connectSubscriber(cfg, "display")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	feed := NewFeed()
	err = subscribeTopics(client, []string{topic}, cfg.QoS, func(t string, payload []byte) {
		if _, err := feed.Handle(t, payload); err != nil {
			log.Warn("undecodable message", "topic", t, "error", err)
		}
	})
	if err != nil {
		return err
	}
	log.Info("display subscribed", "topic", topic)

	ticker := time.NewTicker(time.Duration(cfg.Display.UpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	var shown time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		r, ok := feed.Get(topic)
		if !ok || r.Received.Equal(shown) {
			continue
		}
		if err := dev.Draw(dev.Bounds(), renderReading(r), image.Point{}); err != nil {
			log.Warn("display update failed", "error", err)
			continue
		}
		shown = r.Received
	}
}

// renderReading lays out the timestamp and up to three quantities.
func renderReading(r Reading) *image1bit.VerticalLSB {
	lines := append([]string{r.Timestamp.Local().Format("15:04:05")}, r.Lines()...)
	return renderLines(lines...)
}

func renderLines(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		y := (i + 1) * lineHeight
		if y > displayHeight {
			break
		}
		drawer.Dot = fixed.P(0, y)
		// The 7x13 face is ASCII only.
		drawer.DrawString(strings.ReplaceAll(line, "°", ""))
	}
	return img
}
