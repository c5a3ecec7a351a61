package session

import (
	"sync"

	"tcbot/internal/protocol"
)

// Trace directions.
const (
	traceReceive = "receive"
	traceSend    = "send"
)

// traceBuffer accumulates the packets a session exchanged, each tagged with
// its direction, until the next flush drains it.
type traceBuffer struct {
	mu      sync.Mutex
	entries []protocol.GamePacket
}

// append records a copy of the packet with the direction tag mixed in, so
// later mutation of the original cannot rewrite history.
func (b *traceBuffer) append(packet protocol.GamePacket, direction string) {
	entry := make(protocol.GamePacket, len(packet)+1)
	for k, v := range packet {
		entry[k] = v
	}
	entry["type"] = direction

	b.mu.Lock()
	b.entries = append(b.entries, entry)
	b.mu.Unlock()
}

// drain atomically takes everything accumulated so far. Entries handed out
// are gone from the buffer even if the caller fails to persist them.
func (b *traceBuffer) drain() []protocol.GamePacket {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.entries
	b.entries = nil
	return entries
}
