// Package unique generates process-local, time-ordered identifiers.
package unique

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/huynhanx03/batch-ingestor/pkg/settings"
	t "github.com/huynhanx03/batch-ingestor/pkg/timer"
)

// Fixed layout: 41 bits of milliseconds since the configured epoch,
// 10 bits of worker ID, 12 bits of per-millisecond step.
const (
	nodeBits uint8 = 10
	stepBits uint8 = 12

	nodeMax int64 = -1 ^ (-1 << nodeBits)
	stepMax int64 = -1 ^ (-1 << stepBits)

	timeShift = nodeBits + stepBits
	nodeShift = stepBits
)

// Node mints snowflake IDs for one worker.
type Node struct {
	mu        sync.Mutex
	timestamp int64
	step      int64

	node  int64
	epoch int64

	clock t.Timer
}

// NewNode validates the worker ID and binds the clock.
func NewNode(cfg settings.BatchID, clock t.Timer) (*Node, error) {
	if cfg.WorkerID < 0 || cfg.WorkerID > nodeMax {
		return nil, errors.Errorf("unique: worker id %d out of range [0, %d]", cfg.WorkerID, nodeMax)
	}

	return &Node{
		node:  cfg.WorkerID,
		epoch: cfg.Epoch,
		clock: clock,
	}, nil
}

// Generate returns the next ID. IDs from one node are strictly
// monotonically increasing.
func (n *Node) Generate() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.clock.Now().UnixMilli()
	if now < n.timestamp {
		now = n.timestamp
	}

	if now == n.timestamp {
		n.step = (n.step + 1) & stepMax
		if n.step == 0 {
			for now <= n.timestamp {
				now = n.clock.Now().UnixMilli()
			}
		}
	} else {
		n.step = 0
	}

	n.timestamp = now

	return ((now - n.epoch) << timeShift) | (n.node << nodeShift) | n.step
}
