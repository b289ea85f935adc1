package vault

import (
	"fmt"
	"math"

	"github.com/kelindar/bitmap"
)

// Registry is the append-only withdraw request list. The request ID is its index.
// Pending and ready requests are indexed in bitmaps so status queries skip done ones.
type Registry struct {
	requests []WithdrawRequest
	pending  bitmap.Bitmap
	ready    bitmap.Bitmap
}

// NewRegistry restores a registry, requests must carry sequential IDs from 0
func NewRegistry(requests []WithdrawRequest) (*Registry, error) {
	r := &Registry{}
	for i, req := range requests {
		if req.ID != uint64(i) {
			return nil, fmt.Errorf("withdraw request at index %d has id %d", i, req.ID)
		}
		if err := r.Append(req); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Len() int {
	return len(r.requests)
}

func (r *Registry) NextID() uint64 {
	return uint64(len(r.requests))
}

// Get returns a copy of the request
func (r *Registry) Get(id uint64) (WithdrawRequest, error) {
	if id >= uint64(len(r.requests)) {
		return WithdrawRequest{}, fmt.Errorf("%w: %d", ErrInvalidRequestID, id)
	}
	return r.requests[id].Clone(), nil
}

// Append adds req at the next ID
func (r *Registry) Append(req WithdrawRequest) error {
	if req.ID != r.NextID() {
		return fmt.Errorf("withdraw request id %d, expected %d", req.ID, r.NextID())
	}
	if req.ID > math.MaxUint32 {
		return ErrRegistryFull
	}
	r.requests = append(r.requests, req.Clone())
	r.index(req)
	return nil
}

// Replace stores a new version of an existing request, status only moves forward
func (r *Registry) Replace(req WithdrawRequest) error {
	current, err := r.Get(req.ID)
	if err != nil {
		return err
	}
	if req.Status != current.Status && !current.Status.canMoveTo(req.Status) {
		return fmt.Errorf("withdraw request %d cannot move from %s to %s", req.ID, current.Status, req.Status)
	}
	r.requests[req.ID] = req.Clone()
	r.index(req)
	return nil
}

// IDs lists request ids with status in ascending order
func (r *Registry) IDs(status RequestStatus) []uint64 {
	var ids []uint64
	switch status {
	case RequestPending:
		r.pending.Range(func(x uint32) { ids = append(ids, uint64(x)) })
	case RequestReady:
		r.ready.Range(func(x uint32) { ids = append(ids, uint64(x)) })
	default:
		for _, req := range r.requests {
			if req.Status == status {
				ids = append(ids, req.ID)
			}
		}
	}
	return ids
}

func (r *Registry) Count(status RequestStatus) int {
	switch status {
	case RequestPending:
		return r.pending.Count()
	case RequestReady:
		return r.ready.Count()
	}
	return len(r.requests) - r.pending.Count() - r.ready.Count()
}

// All returns copies of every request in ID order
func (r *Registry) All() []WithdrawRequest {
	out := make([]WithdrawRequest, len(r.requests))
	for i, req := range r.requests {
		out[i] = req.Clone()
	}
	return out
}

func (r *Registry) index(req WithdrawRequest) {
	id := uint32(req.ID)
	r.pending.Remove(id)
	r.ready.Remove(id)
	switch req.Status {
	case RequestPending:
		r.pending.Set(id)
	case RequestReady:
		r.ready.Set(id)
	}
}
