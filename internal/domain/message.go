package domain

import (
	"context"
	"time"
)

// RawMessage is an unprocessed reading payload taken from the ingest topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
