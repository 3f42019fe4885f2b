// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/climate_agent/internal/measure"
)

// Sensor model discriminants used in the "type" key of a sensor entry.
const (
	SensorHTU21DF = "HTU21DF"
	SensorBMX280  = "BMX280"
)

// Quantities accepted in a sensor's "select" list.
const (
	QuantityTemperature = "temperature"
	QuantityHumidity    = "humidity"
	QuantityPressure    = "pressure"
)

// Config holds all application configuration values.
// The file is YAML; JSON documents are accepted as well.
type Config struct {
	// Device identity and hub
	ID          string `yaml:"id"`
	HubEndpoint string `yaml:"hubEndpoint"` // MQTT broker URL, e.g. tcp://localhost:1883
	ClientID    string `yaml:"clientId"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         byte   `yaml:"qos"`

	Logging  LoggingConfig  `yaml:"logging"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Display  DisplayConfig  `yaml:"display"`
	Web      WebConfig      `yaml:"web"`

	Sensors []SensorConfig `yaml:"sensors"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	Output string `yaml:"output"` // stdout, stderr
}

// InfluxDBConfig contains the optional time-series recorder settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batchSize"`
	FlushInterval int    `yaml:"flushInterval"` // seconds
}

// DisplayConfig drives the SSD1306 OLED viewer.
type DisplayConfig struct {
	Bus            string `yaml:"bus"` // the panel answers at 0x3C
	Topic          string `yaml:"topic"`
	UpdateInterval int    `yaml:"updateInterval"` // milliseconds
}

// WebConfig drives the web dashboard.
type WebConfig struct {
	Port int `yaml:"port"`
}

// SensorConfig is one polled sensor. Type selects the model.
type SensorConfig struct {
	Type         string                  `yaml:"type"`
	PollingFreq  uint32                  `yaml:"pollingFreq"` // seconds between polls
	TopicChannel string                  `yaml:"topicChannel"`
	Bus          string                  `yaml:"bus"` // i2creg name; empty opens the first bus
	Address      uint16                  `yaml:"address"`
	Unit         measure.TemperatureUnit `yaml:"unit"`
	Select       []string                `yaml:"select"` // empty selects every quantity of the model
}

// Interval returns the polling period.
func (s SensorConfig) Interval() time.Duration {
	return time.Duration(s.PollingFreq) * time.Second
}

// Selects reports whether quantity q is requested.
func (s SensorConfig) Selects(q string) bool {
	if len(s.Select) == 0 {
		return true
	}
	for _, v := range s.Select {
		if strings.EqualFold(v, q) {
			return true
		}
	}
	return false
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := defaultConfig()

	// yaml rejects tab indentation before a top-level JSON object.
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		data = trimmed
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		HubEndpoint: "tcp://localhost:1883",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Display: DisplayConfig{
			UpdateInterval: 500,
		},
		Web: WebConfig{
			Port: 8080,
		},
	}
}

// applyEnvOverrides lets deployments keep secrets out of the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLIMATE_HUB_ENDPOINT"); v != "" {
		cfg.HubEndpoint = v
	}
	if v := os.Getenv("CLIMATE_MQTT_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("CLIMATE_MQTT_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("CLIMATE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// normalize fills per-model defaults.
func (c *Config) normalize() {
	if c.ClientID == "" && c.ID != "" {
		c.ClientID = "climate-agent-" + c.ID
	}
	for i := range c.Sensors {
		s := &c.Sensors[i]
		if s.Address != 0 {
			continue
		}
		switch s.Type {
		case SensorHTU21DF:
			s.Address = 0x40
		case SensorBMX280:
			s.Address = 0x76
		}
	}
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.HubEndpoint == "" {
		return fmt.Errorf("hubEndpoint is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0-2, got %d", c.QoS)
	}
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			return fmt.Errorf("influxdb: url, org and bucket are required when enabled")
		}
	}
	for i, s := range c.Sensors {
		if err := s.validate(); err != nil {
			return fmt.Errorf("sensors[%d]: %w", i, err)
		}
	}
	return nil
}

func (s SensorConfig) validate() error {
	var allowed []string
	switch s.Type {
	case SensorHTU21DF:
		allowed = []string{QuantityTemperature, QuantityHumidity}
	case SensorBMX280:
		allowed = []string{QuantityTemperature, QuantityHumidity, QuantityPressure}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown sensor type %q", s.Type)
	}
	if s.PollingFreq == 0 {
		return fmt.Errorf("%s: pollingFreq is required", s.Type)
	}
	if s.TopicChannel == "" {
		return fmt.Errorf("%s: topicChannel is required", s.Type)
	}
	if s.Address > 0x7F {
		return fmt.Errorf("%s: address 0x%X is not a 7-bit I2C address", s.Type, s.Address)
	}
	for _, q := range s.Select {
		ok := false
		for _, a := range allowed {
			if strings.EqualFold(q, a) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s: cannot select %q", s.Type, q)
		}
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return nil.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
