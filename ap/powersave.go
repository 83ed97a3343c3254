package ap

import (
	"github.com/google/gopacket/layers"
	"github.com/tomiamao/apmlme/mlme"
)

// A pendingFrame is an outbound MSDU held for a dozing station. It is
// encapsulated only when flushed, so the protected bit reflects the port
// state at that time.
type pendingFrame struct {
	src       mlme.MACAddr
	etherType layers.EthernetType
	payload   []byte
}

// A psQueue buffers frames for a single dozing station in arrival order.
type psQueue struct {
	frames []pendingFrame
}

func (q *psQueue) push(f pendingFrame) {
	q.frames = append(q.frames, f)
}

func (q *psQueue) len() int { return len(q.frames) }

// drain empties the queue and returns its frames in arrival order.
func (q *psQueue) drain() []pendingFrame {
	fs := q.frames
	q.frames = nil
	return fs
}
