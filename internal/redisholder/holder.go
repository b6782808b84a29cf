package redisholder

import (
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Holder lets the health loop replace a broken client while producers and
// workers keep calling Get.
type Holder struct {
	v atomic.Value // redis.UniversalClient
}

func NewHolder(initial redis.UniversalClient) *Holder {
	h := &Holder{}
	h.v.Store(&initial)
	return h
}

func (h *Holder) Get() redis.UniversalClient {
	c, _ := h.v.Load().(*redis.UniversalClient)
	if c == nil {
		return nil
	}
	return *c
}

func (h *Holder) swap(next redis.UniversalClient) redis.UniversalClient {
	prev, _ := h.v.Swap(&next).(*redis.UniversalClient)
	if prev == nil {
		return nil
	}
	return *prev
}

func (h *Holder) Close() error {
	if c := h.Get(); c != nil {
		return c.Close()
	}
	return nil
}
