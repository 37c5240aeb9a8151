// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
)

// OpenSerial opens a sensor board's serial port as 8N1.
func OpenSerial(portName string, baudRate int) (io.ReadWriteCloser, error) {
	if baudRate <= 0 {
		return nil, fmt.Errorf("serial %s: invalid baud rate %d", portName, baudRate)
	}
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial %s: %w", portName, err)
	}
	return port, nil
}
