// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/climate_agent/internal/config"
	"github.com/relabs-tech/climate_agent/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served on the local network
	},
}

const (
	wsWriteWait  = 5 * time.Second
	wsBufferSize = 16
)

// RunWeb serves the latest readings over HTTP and a live websocket feed.
func RunWeb(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	topics := sensorTopics(cfg)
	if len(topics) == 0 {
		return errors.New("web: no sensor topics configured")
	}

	client, err := connectSubscriber(cfg, "web")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	feed := NewFeed()
	err = subscribeTopics(client, topics, cfg.QoS, func(topic string, payload []byte) {
		if _, err := feed.Handle(topic, payload); err != nil {
			log.Warn("undecodable message", "topic", topic, "error", err)
		}
	})
	if err != nil {
		return err
	}
	log.Info("subscribed", "topics", topics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           newWebHandler(feed, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("web server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newWebHandler(feed *Feed, log *logging.Logger) http.Handler {
	mux := http.NewServeMux()

	// Latest reading per topic, or of one topic with ?topic=.
	mux.HandleFunc("GET /api/readings", func(w http.ResponseWriter, r *http.Request) {
		var body any
		if topic := r.URL.Query().Get("topic"); topic != "" {
			reading, ok := feed.Get(topic)
			if !ok {
				http.Error(w, "no data yet", http.StatusNotFound)
				return
			}
			body = reading
		} else {
			body = feed.Latest()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Warn("json encode error", "error", err)
		}
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveFeedWS(w, r, feed, log)
	})

	return mux
}

// serveFeedWS sends the current snapshot, then every new reading.
func serveFeedWS(w http.ResponseWriter, r *http.Request, feed *Feed, log *logging.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	readings, stop := feed.Listen(wsBufferSize)
	defer stop()

	// Reader loop only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	for _, reading := range feed.Latest() {
		if err := writeReading(conn, reading); err != nil {
			return
		}
	}
	for {
		select {
		case <-closed:
			return
		case reading := <-readings:
			if err := writeReading(conn, reading); err != nil {
				return
			}
		}
	}
}

func writeReading(conn *websocket.Conn, r Reading) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(r)
}
