package session

import (
	"currency-widget/internal/metrics"
	"currency-widget/internal/widget"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("widget session not found")
	ErrFull     = errors.New("too many widget sessions")
)

type entry struct {
	widget   *widget.Widget
	lastSeen time.Time
}

// Registry keeps live widget views in process memory. Views idle for longer
// than the TTL are dropped the next time the registry is touched. A dropped
// view has its pending conversion cancelled.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	max     int
	factory func() *widget.Widget
	now     func() time.Time
	metrics *metrics.ConverterMetrics
	logger  *zap.Logger
}

func NewRegistry(ttl time.Duration, max int, factory func() *widget.Widget, m *metrics.ConverterMetrics, logger *zap.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		ttl:     ttl,
		max:     max,
		factory: factory,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

func (r *Registry) Create() (string, *widget.Widget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	if r.max > 0 && len(r.entries) >= r.max {
		r.logger.Warn("Widget session limit reached", zap.Int("max", r.max))
		return "", nil, ErrFull
	}

	id := uuid.NewString()
	w := r.factory()
	r.entries[id] = &entry{widget: w, lastSeen: r.now()}
	r.metrics.ActiveSessions.Set(float64(len(r.entries)))
	r.logger.Debug("Widget session created", zap.String("session_id", id))
	return id, w, nil
}

func (r *Registry) Get(id string) (*widget.Widget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.widget, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.entries, id)
	e.widget.Close()
	r.metrics.ActiveSessions.Set(float64(len(r.entries)))
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) sweepLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			e.widget.Close()
			removed++
		}
	}
	if removed > 0 {
		r.metrics.ActiveSessions.Set(float64(len(r.entries)))
		r.logger.Debug("Expired widget sessions removed", zap.Int("count", removed))
	}
}
