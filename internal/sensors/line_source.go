// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/relabs-tech/gyro_bias/internal/imu"
)

// LineSource reads $HTIMU sentences from a serial port or a recorded log.
// Blank lines and lines not starting with '$' are skipped; unparsable
// sentences are counted, logged at debug level and skipped.
type LineSource struct {
	name      string
	reader    *bufio.Reader
	record    io.Writer
	log       *slog.Logger
	malformed int
	done      bool
}

// NewLineSource reads sentences from r, attributing samples to name.
func NewLineSource(name string, r io.Reader, log *slog.Logger) *LineSource {
	return &LineSource{
		name:   name,
		reader: bufio.NewReader(r),
		log:    log,
	}
}

// Record copies every accepted sentence, newline terminated, to w.
func (s *LineSource) Record(w io.Writer) {
	s.record = w
}

// Malformed returns how many sentences were rejected so far.
func (s *LineSource) Malformed() int {
	return s.malformed
}

// Next returns the next sample, or io.EOF once r is exhausted.
func (s *LineSource) Next() ([]imu.Sample, error) {
	for !s.done {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			s.done = true
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sample, perr := ParseSentence(s.name, line)
		if perr != nil {
			s.malformed++
			s.log.Debug("sensors: skipping sentence", "line", line, "err", perr)
			continue
		}

		if s.record != nil {
			if _, werr := io.WriteString(s.record, line+"\n"); werr != nil {
				return nil, werr
			}
		}
		return []imu.Sample{sample}, nil
	}
	return nil, io.EOF
}
