// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/gyro_bias/internal/imu"
)

// Serial sensor boards and recorded logs carry one sample per line as an
// NMEA-framed sentence:
//
//	$HTIMU,<A|G>,<timestamp_ns>,<x>,<y>,<z>*<checksum>
//
// A is accelerometer (m/s^2), G is gyroscope (rad/s).
const (
	sentenceTalker = "HT"
	sentenceType   = "IMU"

	sensorCodeAccel = "A"
	sensorCodeGyro  = "G"
)

var (
	// ErrMalformedSentence wraps every framing or field error.
	ErrMalformedSentence = errors.New("malformed IMU sentence")
	// ErrUnsupportedSentence is returned for valid NMEA that is not an
	// IMU sample (e.g. GPS output sharing the link).
	ErrUnsupportedSentence = errors.New("unsupported sentence")
)

// IMUSentence is the decoded $HTIMU sentence.
type IMUSentence struct {
	nmea.BaseSentence
	Sensor      string
	TimestampNs int64
	X           float64
	Y           float64
	Z           float64
}

var sentenceParser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		sentenceType: parseIMUSentence,
	},
}

func parseIMUSentence(s nmea.BaseSentence) (nmea.Sentence, error) {
	if len(s.Fields) != 5 {
		return nil, fmt.Errorf("expected 5 fields, got %d", len(s.Fields))
	}
	p := nmea.NewParser(s)
	return IMUSentence{
		BaseSentence: s,
		Sensor:       p.EnumString(0, "sensor", sensorCodeAccel, sensorCodeGyro),
		TimestampNs:  p.Int64(1, "timestamp"),
		X:            p.Float64(2, "x"),
		Y:            p.Float64(3, "y"),
		Z:            p.Float64(4, "z"),
	}, p.Err()
}

// ParseSentence decodes one line into a sample attributed to source.
func ParseSentence(source, line string) (imu.Sample, error) {
	sentence, err := sentenceParser.Parse(strings.TrimSpace(line))
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%w: %v", ErrMalformedSentence, err)
	}
	m, ok := sentence.(IMUSentence)
	if !ok {
		return imu.Sample{}, fmt.Errorf("%w: %s", ErrUnsupportedSentence, sentence.Prefix())
	}

	sensor := imu.SensorAccel
	if m.Sensor == sensorCodeGyro {
		sensor = imu.SensorGyro
	}
	return imu.Sample{
		Source:      source,
		Sensor:      sensor,
		TimestampNs: m.TimestampNs,
		X:           m.X,
		Y:           m.Y,
		Z:           m.Z,
	}, nil
}

// FormatSentence encodes s as a checksummed $HTIMU line without the
// trailing newline.
func FormatSentence(s imu.Sample) (string, error) {
	var code string
	switch s.Sensor {
	case imu.SensorAccel:
		code = sensorCodeAccel
	case imu.SensorGyro:
		code = sensorCodeGyro
	default:
		return "", s.Sensor.Validate()
	}

	body := strings.Join([]string{
		sentenceTalker + sentenceType,
		code,
		strconv.FormatInt(s.TimestampNs, 10),
		strconv.FormatFloat(s.X, 'g', -1, 64),
		strconv.FormatFloat(s.Y, 'g', -1, 64),
		strconv.FormatFloat(s.Z, 'g', -1, 64),
	}, ",")
	return "$" + body + "*" + nmea.Checksum(body), nil
}
