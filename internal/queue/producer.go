package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const payloadField = "payload"

type Producer struct {
	r      func() redis.UniversalClient
	stream string
	maxLen int64
}

// NewProducer takes a client getter so a reconnecting holder can be used.
func NewProducer(r func() redis.UniversalClient, stream string, maxLen int64) *Producer {
	return &Producer{r: r, stream: stream, maxLen: maxLen}
}

// Enqueue appends a raw storage notification to the stream, trimming it to
// roughly maxLen entries.
func (p *Producer) Enqueue(ctx context.Context, body string) (string, error) {
	return p.r().XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: p.maxLen > 0,
		Values: map[string]any{
			payloadField: body,
		},
	}).Result()
}
