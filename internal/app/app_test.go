// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gyro_bias/internal/bias"
	"github.com/relabs-tech/gyro_bias/internal/clock"
	"github.com/relabs-tech/gyro_bias/internal/imu"
	"github.com/relabs-tech/gyro_bias/internal/logging"
	"github.com/relabs-tech/gyro_bias/internal/sensors"
	"github.com/relabs-tech/gyro_bias/internal/tracking"
	"github.com/relabs-tech/gyro_bias/internal/vector"
)

type published struct {
	topic    string
	payload  []byte
	retained bool
}

// fakePublisher records payloads and calls onPublish after each one.
type fakePublisher struct {
	mu        sync.Mutex
	msgs      []published
	onPublish func(n int)
}

func (p *fakePublisher) PublishJSON(topic string, v any, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.msgs = append(p.msgs, published{topic, payload, retained})
	n := len(p.msgs)
	p.mu.Unlock()
	if p.onPublish != nil {
		p.onPublish(n)
	}
	return nil
}

func (p *fakePublisher) messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

func TestPumpSamples(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := sensors.NewMockSource(sensors.MockConfig{Name: "left"}, clock.NewManual(0))
	pub := &fakePublisher{onPublish: func(n int) {
		if n >= 6 {
			cancel()
		}
	}}

	err := pumpSamples(ctx, src, pub, "inertial/imu/left", time.Millisecond, logging.Discard())
	require.NoError(t, err)

	msgs := pub.messages()
	require.GreaterOrEqual(t, len(msgs), 6)
	for i, m := range msgs[:6] {
		assert.Equal(t, "inertial/imu/left", m.topic)
		assert.False(t, m.retained)

		var s imu.Sample
		require.NoError(t, json.Unmarshal(m.payload, &s))
		want := imu.SensorAccel
		if i%2 == 1 {
			want = imu.SensorGyro
		}
		assert.Equal(t, want, s.Sensor)
		assert.Equal(t, "left", s.Source)
	}
}

func TestForwardSamples(t *testing.T) {
	var lines []string
	for i := int64(1); i <= 3; i++ {
		line, err := sensors.FormatSentence(imu.Sample{Sensor: imu.SensorGyro, TimestampNs: i, Z: 0.01})
		require.NoError(t, err)
		lines = append(lines, line)
	}
	lines = append(lines, "$HTIMU,G,4,0,0,0*00") // bad checksum

	src := sensors.NewLineSource("left", strings.NewReader(strings.Join(lines, "\n")), logging.Discard())
	pub := &fakePublisher{}

	n, err := forwardSamples(src, pub, "t", logging.Discard())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Len(t, pub.messages(), 3)
	assert.Equal(t, 1, src.Malformed())
}

func TestSampleHandler(t *testing.T) {
	tracker := tracking.New("left", bias.NewEstimator(), nil)
	handle := sampleHandler(tracker, logging.Discard())

	payload, err := json.Marshal(imu.Sample{Sensor: imu.SensorGyro, TimestampNs: 1, Z: 0.01})
	require.NoError(t, err)
	handle(payload)
	handle([]byte(`{not json`))
	handle([]byte(`{"sensor":"mag","timestamp_ns":2}`))

	snap := tracker.Snapshot()
	assert.EqualValues(t, 1, snap.Accepted)
	assert.EqualValues(t, 1, snap.Rejected)
}

func TestPublishSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := tracking.New("left", bias.NewEstimator(), nil)
	require.NoError(t, tracker.Apply(imu.SampleFromVector("left", imu.SensorGyro, 1, vector.New(0, 0, 0.01))))

	pub := &fakePublisher{onPublish: func(n int) {
		if n >= 2 {
			cancel()
		}
	}}
	require.NoError(t, publishSnapshots(ctx, tracker, pub, "inertial/gyro_bias/left", time.Millisecond, logging.Discard()))

	msgs := pub.messages()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.True(t, msgs[0].retained)

	var snap tracking.Snapshot
	require.NoError(t, json.Unmarshal(msgs[0].payload, &snap))
	assert.Equal(t, "left", snap.Source)
	assert.EqualValues(t, 1, snap.Accepted)
	assert.EqualValues(t, 1, snap.TimestampNs)
}

func TestFormatLines(t *testing.T) {
	s := formatSample(imu.Sample{Source: "left", Sensor: imu.SensorGyro, TimestampNs: 5, Z: 0.5})
	assert.True(t, strings.HasPrefix(s, "[GYRO] left"))

	b := formatSnapshot(tracking.Snapshot{Source: "left", Bias: vector.New(0, 0, 0.01), BiasSamples: 3})
	assert.Contains(t, b, "z=+0.010000")
	assert.Contains(t, b, "n=3")
}
