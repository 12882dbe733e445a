package notifier

import "time"

// EventTypePersisted marks a successful batch commit.
const EventTypePersisted = "persisted"

// Event is the batch-completion notification published once per
// successful flush.
type Event struct {
	Type          string    `json:"type"`
	BatchID       string    `json:"batch_id"`
	BatchSize     int       `json:"batch_size"`
	IDs           []string  `json:"ids"`
	TotalBatches  int64     `json:"total_batches"`
	TotalMessages int64     `json:"total_messages"`
	Timestamp     time.Time `json:"timestamp"`
}
