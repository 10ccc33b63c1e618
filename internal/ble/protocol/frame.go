// Package protocol implements the MeRGBW binary command protocol spoken by
// hexagon LED panels over the 0xFFF0 GATT service.
//
// Every command is a single framed write:
//
//	[0] 0x55 (header)
//	[1] cmd
//	[2] seq (0xFF, the firmware ignores sequencing)
//	[3] length (total frame length)
//	[4..n-2] payload
//	[n-1] checksum = (0xFF - (sum(frame[0..n-2]) & 0xFF)) & 0xFF
//
// A valid frame therefore always sums to 0xFF mod 256, checksum included.
package protocol

import (
	"errors"
	"fmt"
)

// Command opcodes understood by the controller.
const (
	CmdSync       byte = 0x00 // request a status notification on 0xFFF4
	CmdPower      byte = 0x01 // 1 byte: 0x00 off / 0x01 on
	CmdColor      byte = 0x03 // hue u16be + sat*1000 u16be
	CmdBrightness byte = 0x05 // (pct+5)*10 u16be
	CmdScene      byte = 0x06 // scene index u16be
	CmdSceneSpeed byte = 0x0F // 1 byte speed
)

const frameHeader byte = 0x55

// frameOverhead is header + cmd + seq + length + checksum.
const frameOverhead = 5

// ErrFrameTooLong is returned when a payload cannot fit the one-byte
// length field.
var ErrFrameTooLong = errors.New("protocol: frame too long")

// BuildCommand frames cmd+payload per the wire format above. payload may be
// nil for commands without a body (CmdSync).
func BuildCommand(cmd byte, payload []byte) ([]byte, error) {
	length := frameOverhead + len(payload)
	if length > 0xFF {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, length)
	}
	frame := make([]byte, length)
	frame[0] = frameHeader
	frame[1] = cmd
	frame[2] = 0xFF
	frame[3] = byte(length)
	copy(frame[4:], payload)
	frame[length-1] = checksum(frame[:length-1])
	return frame, nil
}

// checksum returns the byte that makes sum(frame) == 0xFF mod 256.
func checksum(b []byte) byte {
	var sum int
	for _, v := range b {
		sum += int(v)
	}
	return byte((0xFF - (sum & 0xFF)) & 0xFF)
}

// u16be encodes v as big-endian u16, wrapping (not clamping) to 16 bits.
func u16be(v int) []byte {
	v &= 0xFFFF
	return []byte{byte(v >> 8), byte(v)}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PowerPayload encodes the body of a CmdPower frame.
func PowerPayload(on bool) []byte {
	if on {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// ColorPayload converts RGB to the hue/saturation body of a CmdColor frame.
// The HSV value component is discarded; brightness is a separate command.
func ColorPayload(r, g, b int) []byte {
	hue, sat := rgbToHueSat(clamp(r, 0, 255), clamp(g, 0, 255), clamp(b, 0, 255))
	return append(u16be(hue), u16be(sat)...)
}

// rgbToHueSat performs the standard RGB→HSV conversion and scales the result
// the way the vendor app does: hue as truncated integer degrees in [0,360),
// saturation as round(s*1000) clamped to [0,1000].
func rgbToHueSat(r, g, b int) (hue, sat int) {
	rf, gf, bf := float64(r)/255.0, float64(g)/255.0, float64(b)/255.0

	max := rf
	if gf > max {
		max = gf
	}
	if bf > max {
		max = bf
	}
	min := rf
	if gf < min {
		min = gf
	}
	if bf < min {
		min = bf
	}
	delta := max - min

	var h float64
	switch {
	case delta == 0:
		h = 0
	case max == rf:
		h = (gf - bf) / delta
		if h < 0 {
			h += 6
		}
	case max == gf:
		h = (bf-rf)/delta + 2
	default:
		h = (rf-gf)/delta + 4
	}
	h /= 6

	var s float64
	if max > 0 {
		s = delta / max
	}

	hue = int(h*360.0) % 360
	sat = clamp(int(s*1000.0+0.5), 0, 1000)
	return hue, sat
}

// BrightnessPayload encodes the body of a CmdBrightness frame. The wire value
// is (pct+5)*10, the scale the vendor app uses.
func BrightnessPayload(pct int) []byte {
	return u16be(clamp((pct+5)*10, 0, 0xFFFF))
}

// ScenePayload encodes the body of a CmdScene frame.
func ScenePayload(index int) []byte {
	return u16be(clamp(index, 0, 0xFFFF))
}

// SceneSpeedPayload encodes the body of a CmdSceneSpeed frame.
func SceneSpeedPayload(speed int) []byte {
	return []byte{byte(clamp(speed, 0, 255))}
}
