// Package light is the public API for controlling a hexagon LED panel. All
// methods are blocking and safe to call from ordinary sequential code; the
// BLE concurrency lives entirely inside the session layer.
package light

import (
	"time"

	"github.com/chaz8081/hexaglow/internal/ble"
	"github.com/chaz8081/hexaglow/internal/ble/protocol"
)

// Errors surfaced by Light methods, re-exported so callers need not import
// the lower layers.
var (
	ErrUnknownScene  = protocol.ErrUnknownScene
	ErrFrameTooLong  = protocol.ErrFrameTooLong
	ErrConnectFailed = ble.ErrConnectFailed
	ErrWriteFailed   = ble.ErrWriteFailed
	ErrTimeout       = ble.ErrTimeout
)

// State is the best-effort device state decoded from notifications.
type State = protocol.State

// Options configures a Light.
type Options struct {
	ServiceUUID    string
	WriteCharUUID  string
	NotifyCharUUID string
	Timeout        time.Duration // per connect attempt
	ConnectRetries int
	RetryDelay     time.Duration
	Margin         time.Duration // each call's deadline is Timeout plus this slack

	// Adapter overrides the platform Bluetooth stack (used by tests).
	Adapter ble.Adapter
}

// DefaultOptions returns the defaults matching MeRGBW/Fivemi firmware.
func DefaultOptions() Options {
	return Options{
		ServiceUUID:    ble.ServiceUUID,
		WriteCharUUID:  ble.WriteCharUUID,
		NotifyCharUUID: ble.NotifyCharUUID,
		Timeout:        15 * time.Second,
		ConnectRetries: 5,
		RetryDelay:     700 * time.Millisecond,
		Margin:         5 * time.Second,
	}
}

// Light drives one hexagon LED controller.
type Light struct {
	session *ble.Session
}

// New creates a Light for the controller at address. Zero-valued Options
// fields fall back to defaults.
func New(address string, opts Options) *Light {
	def := DefaultOptions()
	if opts.ServiceUUID == "" {
		opts.ServiceUUID = def.ServiceUUID
	}
	if opts.WriteCharUUID == "" {
		opts.WriteCharUUID = def.WriteCharUUID
	}
	if opts.NotifyCharUUID == "" {
		opts.NotifyCharUUID = def.NotifyCharUUID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.ConnectRetries <= 0 {
		opts.ConnectRetries = def.ConnectRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	if opts.Margin <= 0 {
		opts.Margin = def.Margin
	}
	if opts.Adapter == nil {
		opts.Adapter = ble.NewBluetoothAdapter()
	}

	cfg := ble.SessionConfig{
		Address:        address,
		ServiceUUID:    opts.ServiceUUID,
		WriteCharUUID:  opts.WriteCharUUID,
		NotifyCharUUID: opts.NotifyCharUUID,
		ConnectTimeout: opts.Timeout,
		ConnectRetries: opts.ConnectRetries,
		RetryDelay:     opts.RetryDelay,
		Margin:         opts.Margin,
	}
	return &Light{session: ble.NewSession(opts.Adapter, cfg)}
}

// Connect establishes the BLE connection, retrying with backoff.
func (l *Light) Connect() error {
	return l.session.Connect()
}

// Disconnect tears the connection down. Idempotent.
func (l *Light) Disconnect() error {
	return l.session.Disconnect()
}

// TurnOn switches the panel on.
func (l *Light) TurnOn() error {
	return l.send(protocol.CmdPower, protocol.PowerPayload(true))
}

// TurnOff switches the panel off.
func (l *Light) TurnOff() error {
	return l.send(protocol.CmdPower, protocol.PowerPayload(false))
}

// SetRGB sets the color. Channels outside 0-255 are clamped.
func (l *Light) SetRGB(r, g, b int) error {
	return l.send(protocol.CmdColor, protocol.ColorPayload(r, g, b))
}

// SetBrightness sets the brightness percent, clamped to 0-100.
func (l *Light) SetBrightness(percent int) error {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	return l.send(protocol.CmdBrightness, protocol.BrightnessPayload(percent))
}

// SetScene selects a built-in effect by index. A non-nil speed issues a
// second scene-speed command after the scene command.
func (l *Light) SetScene(index int, speed *int) error {
	if err := l.send(protocol.CmdScene, protocol.ScenePayload(index)); err != nil {
		return err
	}
	if speed == nil {
		return nil
	}
	return l.send(protocol.CmdSceneSpeed, protocol.SceneSpeedPayload(*speed))
}

// SetSceneByName selects a built-in effect by its TG609 name.
func (l *Light) SetSceneByName(name string, speed *int) error {
	index, err := protocol.ResolveScene(name)
	if err != nil {
		return err
	}
	return l.SetScene(index, speed)
}

// State reads the device state, best-effort. When requestSync is true a sync
// request is written first; the call then waits up to wait for a
// notification. Fields stay unknown if nothing arrives — many firmwares only
// notify after changes.
func (l *Light) State(wait time.Duration, requestSync bool) State {
	return l.session.AwaitState(wait, requestSync)
}

func (l *Light) send(cmd byte, payload []byte) error {
	frame, err := protocol.BuildCommand(cmd, payload)
	if err != nil {
		return err
	}
	return l.session.WriteFrame(frame)
}
