package protocol

// State is a best-effort snapshot decoded from a status notification.
// Nil fields are unknown; Raw keeps the notification bytes it was derived
// from for diagnostics. A State is never authoritative — some firmwares only
// notify after changes, and some never do.
type State struct {
	On         *bool
	Brightness *int // percent, 0-100
	Raw        []byte
}

// Notification frame variants observed in the field. 0x55 mirrors the
// outgoing command header; TG609-class firmwares answer sync requests with
// 0x56 frames instead. Anything else decodes to unknown fields rather than
// guessing.
const (
	notifyEcho byte = 0x55
	notifySync byte = 0x56
)

// ParseState decodes a notification into a State. Inputs that are empty,
// truncated or fail the frame checksum yield unknown fields with the raw
// bytes preserved (when non-empty).
func ParseState(raw []byte) State {
	if len(raw) == 0 {
		return State{}
	}
	if len(raw) < 6 {
		return State{Raw: raw}
	}
	var sum int
	for _, b := range raw {
		sum += int(b)
	}
	if sum&0xFF != 0xFF {
		return State{Raw: raw}
	}

	switch raw[0] {
	case notifyEcho:
		return parseEcho(raw)
	case notifySync:
		return parseSync(raw)
	default:
		return State{Raw: raw}
	}
}

func parseEcho(raw []byte) State {
	if int(raw[3]) != len(raw) {
		return State{Raw: raw}
	}
	st := State{Raw: raw}
	on := raw[4] != 0
	st.On = &on
	if len(raw) >= 7 {
		if b := int(raw[5]) - 5; b >= 0 && b <= 100 {
			st.Brightness = &b
		}
	}
	return st
}

func parseSync(raw []byte) State {
	st := State{Raw: raw}
	on := raw[4] != 0
	st.On = &on
	if len(raw) >= 8 {
		// Same scale as CmdBrightness: wire value (pct+5)*10, big-endian.
		value := int(raw[5])<<8 | int(raw[6])
		if b := value/10 - 5; b >= 0 && b <= 100 {
			st.Brightness = &b
		}
	}
	return st
}
