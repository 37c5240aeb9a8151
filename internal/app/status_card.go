// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/gyro_bias/internal/tracking"
)

// Status card size, matching a 128x64 SSD1306 panel.
const (
	cardWidth  = 128
	cardHeight = 64
)

// RenderStatusCard draws the bias snapshot as a 1-bit 128x64 image.
// When snap is nil a waiting card is drawn.
func RenderStatusCard(snap *tracking.Snapshot) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, cardWidth, cardHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if snap == nil {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("Gyro bias")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	lines := []string{
		fmt.Sprintf("Bias %s", snap.Source),
		fmt.Sprintf("X:%+9.5f", snap.Bias.X),
		fmt.Sprintf("Y:%+9.5f", snap.Bias.Y),
		fmt.Sprintf("Z:%+9.5f", snap.Bias.Z),
		fmt.Sprintf("n=%d %3.0f%% %s%s", snap.BiasSamples, 100*snap.Ramp, flag("A", snap.AccelStatic), flag("G", snap.GyroStatic)),
	}
	for i, l := range lines {
		drawer.Dot = fixed.P(0, 11+12*i)
		drawer.DrawString(l)
	}
	return img
}

// flag shows label when the sensor is static and a dash otherwise.
func flag(label string, on bool) string {
	if on {
		return label
	}
	return "-"
}

// WriteStatusCardPNG renders the card and encodes it as PNG.
func WriteStatusCardPNG(w io.Writer, snap *tracking.Snapshot) error {
	return png.Encode(w, RenderStatusCard(snap))
}
