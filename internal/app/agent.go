// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/climate_agent/internal/config"
	"github.com/relabs-tech/climate_agent/internal/logging"
	"github.com/relabs-tech/climate_agent/internal/poll"
	"github.com/relabs-tech/climate_agent/internal/publish"
	"github.com/relabs-tech/climate_agent/internal/recorder"
	"github.com/relabs-tech/climate_agent/internal/sensors/bmx280"
	"github.com/relabs-tech/climate_agent/internal/sensors/htu21d"
	"github.com/relabs-tech/climate_agent/internal/sim"
)

// busOpener opens an I²C bus by its i2creg name.
type busOpener func(name string) (i2c.BusCloser, error)

// RunAgent polls every configured sensor and publishes to the hub until ctx
// is cancelled.
func RunAgent(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return runAgent(ctx, cfg, log, i2creg.Open)
}

// RunSimulatedAgent is RunAgent with every bus replaced by a simulated
// HTU21D. Only HTU21DF sensors at the default address can be simulated.
func RunSimulatedAgent(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	log.Warn("running on simulated sensors")
	return runAgent(ctx, cfg, log, func(string) (i2c.BusCloser, error) {
		return sim.NewHTU21D(), nil
	})
}

func runAgent(ctx context.Context, cfg *config.Config, log *logging.Logger, open busOpener) error {
	if len(cfg.Sensors) == 0 {
		return errors.New("agent: no sensors configured")
	}

	buses := newBusSet(open)
	defer buses.Close()

	jobs, err := buildJobs(cfg.Sensors, buses)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		log.Info("sensor ready", "sensor", j.Name, "topic", j.Topic, "interval", j.Interval)
	}

	conn, err := publish.Connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("connected to hub", "endpoint", cfg.HubEndpoint, "client_id", cfg.ClientID)

	sinks := []publish.Sink{conn}
	if cfg.InfluxDB.Enabled {
		rec, err := recorder.Connect(cfg.InfluxDB, cfg.ID)
		if err != nil {
			return err
		}
		defer rec.Close()
		rec.SetOnError(func(err error) {
			log.Error("influxdb write failed", "error", err)
		})
		sinks = append(sinks, rec)
		log.Info("recording to influxdb", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	sched := poll.NewScheduler(publish.NewFanout(sinks...), log.With("component", "scheduler"))
	log.Info("agent started", "id", cfg.ID, "jobs", len(jobs))
	err = sched.Run(ctx, jobs...)
	log.Info("agent stopped")
	return err
}

// busSet opens each named bus once.
type busSet struct {
	open  busOpener
	buses map[string]i2c.BusCloser
}

func newBusSet(open busOpener) *busSet {
	return &busSet{open: open, buses: make(map[string]i2c.BusCloser)}
}

func (s *busSet) Get(name string) (i2c.Bus, error) {
	if b, ok := s.buses[name]; ok {
		return b, nil
	}
	b, err := s.open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", name, err)
	}
	s.buses[name] = b
	return b, nil
}

func (s *busSet) Close() error {
	var errs []error
	for _, b := range s.buses {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildJobs(sensors []config.SensorConfig, buses *busSet) ([]poll.Job, error) {
	jobs := make([]poll.Job, 0, len(sensors))
	for i, sc := range sensors {
		bus, err := buses.Get(sc.Bus)
		if err != nil {
			return nil, fmt.Errorf("sensors[%d]: %w", i, err)
		}
		j, err := newJob(sc, bus)
		if err != nil {
			return nil, fmt.Errorf("sensors[%d]: %w", i, err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// newJob constructs the driver named by sc.Type on bus.
func newJob(sc config.SensorConfig, bus i2c.Bus) (poll.Job, error) {
	switch sc.Type {
	case config.SensorHTU21DF:
		dev, err := htu21d.New(bus, &htu21d.Opts{Addr: sc.Address, Unit: sc.Unit})
		if err != nil {
			return poll.Job{}, err
		}
		return poll.NewJob[htu21d.Selection, htu21d.PollResult](sc.TopicChannel, sc.Interval(), dev, htu21dSelection(sc))
	case config.SensorBMX280:
		dev, err := bmx280.OpenI2C(bus, sc.Address, sc.Unit)
		if err != nil {
			return poll.Job{}, err
		}
		return poll.NewJob[bmx280.Selection, bmx280.PollResult](sc.TopicChannel, sc.Interval(), dev, bmx280Selection(sc, dev.HasHumidity()))
	default:
		return poll.Job{}, fmt.Errorf("unknown sensor type %q", sc.Type)
	}
}

func htu21dSelection(sc config.SensorConfig) htu21d.Selection {
	var sel htu21d.Selection
	if sc.Selects(config.QuantityTemperature) {
		sel |= htu21d.SelectTemperature
	}
	if sc.Selects(config.QuantityHumidity) {
		sel |= htu21d.SelectHumidity
	}
	return sel
}

// bmx280Selection leaves humidity out of an implicit "everything" selection
// on chips without a humidity channel.
func bmx280Selection(sc config.SensorConfig, hasHumidity bool) bmx280.Selection {
	var sel bmx280.Selection
	if sc.Selects(config.QuantityTemperature) {
		sel |= bmx280.SelectTemperature
	}
	if sc.Selects(config.QuantityPressure) {
		sel |= bmx280.SelectPressure
	}
	if sc.Selects(config.QuantityHumidity) && (hasHumidity || len(sc.Select) > 0) {
		sel |= bmx280.SelectHumidity
	}
	return sel
}
