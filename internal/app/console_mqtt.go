// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/relabs-tech/climate_agent/internal/config"
	"github.com/relabs-tech/climate_agent/internal/logging"
)

// RunConsoleMQTT prints every reading published on the configured sensor
// topics, plus any extra topics, until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, extra []string, out io.Writer, log *logging.Logger) error {
	topics := append(sensorTopics(cfg), extra...)
	if len(topics) == 0 {
		return errors.New("console: no topics to subscribe to")
	}

	client, err := connectSubscriber(cfg, "console")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Info("connected to hub", "endpoint", cfg.HubEndpoint)

	feed := NewFeed()
	if err := subscribeTopics(client, topics, cfg.QoS, consoleHandler(feed, out, log)); err != nil {
		return err
	}
	log.Info("subscribed", "topics", topics)

	<-ctx.Done()
	return nil
}

func consoleHandler(feed *Feed, out io.Writer, log *logging.Logger) func(topic string, payload []byte) {
	return func(topic string, payload []byte) {
		r, err := feed.Handle(topic, payload)
		if err != nil {
			log.Warn("undecodable message", "topic", topic, "error", err)
			return
		}
		fmt.Fprintln(out, r.String())
	}
}
