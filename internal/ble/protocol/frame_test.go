package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func frameSum(frame []byte) int {
	sum := 0
	for _, b := range frame {
		sum += int(b)
	}
	return sum & 0xFF
}

func TestBuildCommandLayout(t *testing.T) {
	frame, err := BuildCommand(CmdPower, []byte{0x01})
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}

	want := []byte{0x55, 0x01, 0xFF, 0x06, 0x01, 0xA3}
	if !bytes.Equal(frame, want) {
		t.Errorf("BuildCommand(CmdPower, [0x01]) = % x, want % x", frame, want)
	}
	if frameSum(frame) != 0xFF {
		t.Errorf("frame sum mod 256 = 0x%02x, want 0xff", frameSum(frame))
	}
}

func TestBuildCommandInvariants(t *testing.T) {
	payloads := [][]byte{
		nil,
		{},
		{0x00},
		{0x01, 0x02, 0x03, 0x04},
		bytes.Repeat([]byte{0xAB}, 250), // max: 5 + 250 = 255
	}

	for _, payload := range payloads {
		frame, err := BuildCommand(CmdColor, payload)
		if err != nil {
			t.Fatalf("BuildCommand(%d-byte payload) error = %v", len(payload), err)
		}
		if frame[0] != 0x55 {
			t.Errorf("frame[0] = 0x%02x, want 0x55", frame[0])
		}
		if frame[2] != 0xFF {
			t.Errorf("frame[2] (seq) = 0x%02x, want 0xff", frame[2])
		}
		if int(frame[3]) != len(frame) {
			t.Errorf("frame[3] = %d, want total length %d", frame[3], len(frame))
		}
		if frameSum(frame) != 0xFF {
			t.Errorf("frame sum mod 256 = 0x%02x, want 0xff", frameSum(frame))
		}
	}
}

func TestBuildCommandTooLong(t *testing.T) {
	_, err := BuildCommand(CmdColor, bytes.Repeat([]byte{0x00}, 251))
	if !errors.Is(err, ErrFrameTooLong) {
		t.Errorf("BuildCommand(251-byte payload) error = %v, want ErrFrameTooLong", err)
	}
}

func TestU16BEWraps(t *testing.T) {
	tests := []struct {
		v    int
		want []byte
	}{
		{0, []byte{0x00, 0x00}},
		{0x0102, []byte{0x01, 0x02}},
		{0xFFFF, []byte{0xFF, 0xFF}},
		{0x1FFFF, []byte{0xFF, 0xFF}}, // masked, not clamped
	}
	for _, tt := range tests {
		if got := u16be(tt.v); !bytes.Equal(got, tt.want) {
			t.Errorf("u16be(%#x) = % x, want % x", tt.v, got, tt.want)
		}
	}
}

func TestPowerPayload(t *testing.T) {
	if got := PowerPayload(true); !bytes.Equal(got, []byte{0x01}) {
		t.Errorf("PowerPayload(true) = % x, want 01", got)
	}
	if got := PowerPayload(false); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("PowerPayload(false) = % x, want 00", got)
	}
}

func TestColorPayload(t *testing.T) {
	// RGB(255,100,50): hue = 14°, sat = round(205/255*1000) = 804.
	got := ColorPayload(255, 100, 50)
	want := []byte{0x00, 0x0E, 0x03, 0x24}
	if !bytes.Equal(got, want) {
		t.Errorf("ColorPayload(255,100,50) = % x, want % x", got, want)
	}
}

func TestColorPayloadClampsChannels(t *testing.T) {
	if got, want := ColorPayload(300, -10, 0), ColorPayload(255, 0, 0); !bytes.Equal(got, want) {
		t.Errorf("ColorPayload(300,-10,0) = % x, want % x", got, want)
	}
}

func TestColorPayloadGreys(t *testing.T) {
	// Grey and black have zero saturation and hue 0.
	for _, v := range []int{0, 128, 255} {
		got := ColorPayload(v, v, v)
		want := []byte{0x00, 0x00, 0x00, 0x00}
		if !bytes.Equal(got, want) {
			t.Errorf("ColorPayload(%d,%d,%d) = % x, want % x", v, v, v, got, want)
		}
	}
}

func TestRGBToHueSatPrimaries(t *testing.T) {
	tests := []struct {
		r, g, b  int
		hue, sat int
	}{
		{255, 0, 0, 0, 1000},
		{0, 255, 0, 120, 1000},
		{0, 0, 255, 240, 1000},
		{255, 255, 0, 60, 1000},
		{0, 255, 255, 180, 1000},
		{255, 0, 255, 300, 1000},
	}
	for _, tt := range tests {
		hue, sat := rgbToHueSat(tt.r, tt.g, tt.b)
		if hue != tt.hue || sat != tt.sat {
			t.Errorf("rgbToHueSat(%d,%d,%d) = (%d,%d), want (%d,%d)",
				tt.r, tt.g, tt.b, hue, sat, tt.hue, tt.sat)
		}
	}
}

func TestBrightnessPayload(t *testing.T) {
	tests := []struct {
		pct  int
		want []byte
	}{
		{80, []byte{0x03, 0x52}},  // 850
		{0, []byte{0x00, 0x32}},   // 50
		{100, []byte{0x04, 0x1A}}, // 1050
	}
	for _, tt := range tests {
		if got := BrightnessPayload(tt.pct); !bytes.Equal(got, tt.want) {
			t.Errorf("BrightnessPayload(%d) = % x, want % x", tt.pct, got, tt.want)
		}
	}
}

func TestScenePayloadClamps(t *testing.T) {
	if got := ScenePayload(71); !bytes.Equal(got, []byte{0x00, 0x47}) {
		t.Errorf("ScenePayload(71) = % x, want 00 47", got)
	}
	if got := ScenePayload(-1); !bytes.Equal(got, []byte{0x00, 0x00}) {
		t.Errorf("ScenePayload(-1) = % x, want 00 00", got)
	}
	if got := ScenePayload(1 << 20); !bytes.Equal(got, []byte{0xFF, 0xFF}) {
		t.Errorf("ScenePayload(1<<20) = % x, want ff ff", got)
	}
}

func TestSceneSpeedPayloadClamps(t *testing.T) {
	if got := SceneSpeedPayload(300); !bytes.Equal(got, []byte{0xFF}) {
		t.Errorf("SceneSpeedPayload(300) = % x, want ff", got)
	}
	if got := SceneSpeedPayload(-5); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("SceneSpeedPayload(-5) = % x, want 00", got)
	}
}
