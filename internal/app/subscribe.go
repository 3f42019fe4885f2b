// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/climate_agent/internal/config"
)

// connectSubscriber opens a hub session for a read-only tool. role is
// appended to the client id so tools can run next to the agent.
func connectSubscriber(cfg *config.Config, role string) (mqtt.Client, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "climate"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.HubEndpoint).
		SetClientID(clientID + "-" + role)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.HubEndpoint, token.Error())
	}
	return client, nil
}

// subscribeTopics subscribes handle to every topic.
func subscribeTopics(client mqtt.Client, topics []string, qos byte, handle func(topic string, payload []byte)) error {
	for _, topic := range topics {
		token := client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
			handle(msg.Topic(), msg.Payload())
		})
		token.Wait()
		if err := token.Error(); err != nil {
			return fmt.Errorf("subscribe %q: %w", topic, err)
		}
	}
	return nil
}

// sensorTopics lists the distinct topics of the configured sensors.
func sensorTopics(cfg *config.Config) []string {
	seen := make(map[string]bool, len(cfg.Sensors))
	var topics []string
	for _, s := range cfg.Sensors {
		if s.TopicChannel == "" || seen[s.TopicChannel] {
			continue
		}
		seen[s.TopicChannel] = true
		topics = append(topics, s.TopicChannel)
	}
	return topics
}
