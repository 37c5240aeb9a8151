// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/gyro_bias/internal/bias"
	"github.com/relabs-tech/gyro_bias/internal/config"
	"github.com/relabs-tech/gyro_bias/internal/imu"
	"github.com/relabs-tech/gyro_bias/internal/metrics"
	"github.com/relabs-tech/gyro_bias/internal/tracking"
)

// RunBiasService subscribes to TOPIC_IMU, runs the samples through a
// bias estimator and publishes the session snapshot to TOPIC_BIAS every
// BIAS_PUBLISH_INTERVAL. Prometheus metrics are served on METRICS_PORT.
func RunBiasService(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	estimator, err := bias.NewEstimatorWithParams(cfg.Estimator)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	tracker := tracking.New(cfg.IMUName, estimator, metrics.NewCollector(reg))

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDBias, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribe(client, cfg.TopicIMU, sampleHandler(tracker, log)); err != nil {
		return err
	}
	log.Info("subscribed", "topic", cfg.TopicIMU)

	if err := subscribe(client, cfg.TopicBiasReset(), func([]byte) {
		tracker.Reset()
		log.Info("session reset requested")
	}); err != nil {
		return err
	}
	log.Info("subscribed", "topic", cfg.TopicBiasReset())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		interval := time.Duration(cfg.BiasPublishInterval) * time.Millisecond
		return publishSnapshots(ctx, tracker, mqttPublisher{client}, cfg.TopicBias, interval, log)
	})
	g.Go(func() error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		return serveHTTP(ctx, fmt.Sprintf(":%d", cfg.MetricsPort), mux, log)
	})
	return g.Wait()
}

// sampleHandler decodes an imu.Sample payload and applies it.
func sampleHandler(tracker *tracking.Tracker, log *slog.Logger) func(payload []byte) {
	return func(payload []byte) {
		var s imu.Sample
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Warn("sample unmarshal error", "err", err)
			return
		}
		if err := tracker.Apply(s); err != nil {
			log.Debug("sample rejected", "sensor", s.Sensor, "err", err)
		}
	}
}

// publishSnapshots publishes the tracker snapshot on every tick until
// ctx is done. Snapshots are retained so late subscribers get the last
// estimate immediately.
func publishSnapshots(ctx context.Context, tracker *tracking.Tracker, pub Publisher, topic string, interval time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSamples = -1
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		snap := tracker.Snapshot()
		if err := pub.PublishJSON(topic, snap, true); err != nil {
			log.Warn("publish failed", "err", err)
			continue
		}
		if snap.BiasSamples != lastSamples {
			log.Debug("bias published",
				"x", snap.Bias.X, "y", snap.Bias.Y, "z", snap.Bias.Z,
				"samples", snap.BiasSamples, "ramp", snap.Ramp)
			lastSamples = snap.BiasSamples
		}
	}
}

// serveHTTP runs srv until ctx is done, then shuts it down.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
