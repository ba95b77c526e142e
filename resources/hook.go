package resources

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/rs/zerolog/log"
)

// Snapshot is the observable state of a Hook.
type Snapshot[T any] struct {
	Data    T                   `json:"data"`
	Loading bool                `json:"loading"`
	Err     error               `json:"-"`
	Error   *apperrors.Envelope `json:"error"`
}

// Hook runs a fetch and keeps {data, loading, error} for a view. A failed
// load keeps the last good data next to the error. Only the most recent
// load may settle the state.
type Hook[T any] struct {
	fetch func(ctx context.Context) (T, error)

	mu      sync.RWMutex
	data    T
	loading bool
	err     error
	seq     uint64
}

func NewHook[T any](fetch func(ctx context.Context) (T, error)) *Hook[T] {
	return &Hook[T]{fetch: fetch}
}

// Load runs the fetch and returns the settled snapshot.
func (h *Hook[T]) Load(ctx context.Context) Snapshot[T] {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.loading = true
	h.mu.Unlock()

	data, err := h.fetch(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("resource load failed")
	}

	h.mu.Lock()
	if seq == h.seq {
		h.loading = false
		h.err = err
		if err == nil {
			h.data = data
		}
	}
	h.mu.Unlock()
	return h.State()
}

// State returns the current snapshot without fetching.
func (h *Hook[T]) State() Snapshot[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Snapshot[T]{Data: h.data, Loading: h.loading, Err: h.err}
	if h.err != nil {
		env := apperrors.EnvelopeOf(h.err)
		s.Error = &env
	}
	return s
}
