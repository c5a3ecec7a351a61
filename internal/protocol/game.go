package protocol

import "encoding/json"

// Gameplay packets stay opaque on the way to the agent: they are decoded
// into a generic map so the few inspected fields can be read and timing
// annotations added without disturbing the rest of the payload.
type GamePacket map[string]any

// DecodeGame parses a gameplay packet body.
func DecodeGame(body []byte) (GamePacket, error) {
	var p GamePacket
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Int reads an integer field, tolerating the float64 that encoding/json
// produces for all numbers.
func (p GamePacket) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Has reports whether the field is present at all.
func (p GamePacket) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Agent envelope markers.
const (
	MetaError = "error"
	MetaFatal = "fatal"
)

// Meta is the optional "_meta" envelope on agent packets. Type carries the
// error/fatal markers; Immediate is set when the agent requested delivery
// without the pacing delay (wire form "d": false).
type Meta struct {
	Type      string
	Immediate bool
}

// DecodeAgent parses an agent frame into the payload map and its envelope.
// The envelope is left in place; the caller strips it before forwarding.
func DecodeAgent(data []byte) (GamePacket, Meta, error) {
	var packet GamePacket
	if err := json.Unmarshal(data, &packet); err != nil {
		return nil, Meta{}, err
	}
	var meta Meta
	if raw, ok := packet["_meta"].(map[string]any); ok {
		if t, ok := raw["t"].(string); ok {
			meta.Type = t
		}
		if d, ok := raw["d"].(bool); ok && !d {
			meta.Immediate = true
		}
	}
	return packet, meta, nil
}
