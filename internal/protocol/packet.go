package protocol

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
)

// Stats is the lobby-wide player counter block the server piggybacks on
// arbitrary packets. It is always replaced wholesale, never computed
// client-side.
type Stats struct {
	Idle    int `json:"f"`
	Waiting int `json:"w"`
	Playing int `json:"p"`
	Auto    int `json:"o"`
}

// Packet is one decoded server frame: the (method, route) tag, the optional
// stats block, and the full inflated JSON body for route-specific decoding.
type Packet struct {
	Method int
	Route  int
	Stats  *Stats
	Body   []byte
}

// Decode parses a server frame. Binary frames are zlib-compressed JSON and
// are inflated first; text frames are parsed directly.
func Decode(data []byte, binary bool) (*Packet, error) {
	if binary {
		inflated, err := inflate(data)
		if err != nil {
			return nil, fmt.Errorf("inflate frame: %w", err)
		}
		data = inflated
	}

	var env struct {
		M int             `json:"m"`
		R int             `json:"r"`
		S json.RawMessage `json:"s"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}

	return &Packet{
		Method: env.M,
		Route:  env.R,
		Stats:  parseStats(env.S),
		Body:   data,
	}, nil
}

// Into decodes the packet body into a route-specific payload struct.
func (p *Packet) Into(v any) error {
	return json.Unmarshal(p.Body, v)
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// parseStats accepts the "s" field only when it is an object carrying the
// idle counter. Client-bound packets reuse "s" for other payloads (seat
// numbers, solver answers), so shape alone is not enough.
func parseStats(raw json.RawMessage) *Stats {
	if len(raw) == 0 {
		return nil
	}
	var probe struct {
		F *int `json:"f"`
		W  int `json:"w"`
		P  int `json:"p"`
		O  int `json:"o"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.F == nil {
		return nil
	}
	return &Stats{Idle: *probe.F, Waiting: probe.W, Playing: probe.P, Auto: probe.O}
}
