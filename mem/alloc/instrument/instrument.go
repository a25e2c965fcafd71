// Package instrument wraps an allocator with prometheus metrics and optional
// slog debug logging.
package instrument

import (
	"errors"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joshuapare/memkit/mem/alloc"
)

// Runtime debug flag for allocation logging - controlled by MEMKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("MEMKIT_LOG_ALLOC") != ""

// Stats is a snapshot of an instrumented allocator's counters.
type Stats struct {
	Allocations   uint64
	Deallocations uint64
	Failures      uint64
	Grows         uint64
	BytesInUse    int64
}

// Allocator forwards to an inner allocator and records every call.
//
// Counters are updated atomically, so Allocator is as safe for concurrent use
// as the allocator it wraps.
type Allocator struct {
	inner  alloc.Allocator
	logger *slog.Logger

	allocations   prometheus.Counter
	deallocations prometheus.Counter
	failures      *prometheus.CounterVec
	grows         *prometheus.CounterVec
	inUse         prometheus.Gauge

	nAlloc   atomic.Uint64
	nDealloc atomic.Uint64
	nFail    atomic.Uint64
	nGrow    atomic.Uint64
	bytes    atomic.Int64
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger logs every call at debug level to l.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) { a.logger = l }
}

// New wraps inner (Heap when nil). Metrics are registered with reg under the
// memkit_allocator namespace and labelled with name; a nil reg leaves them
// unregistered. Registering two allocators with the same name on one
// registry panics.
func New(inner alloc.Allocator, name string, reg prometheus.Registerer, opts ...Option) *Allocator {
	f := promauto.With(reg)
	labels := prometheus.Labels{"allocator": name}

	a := &Allocator{
		inner: alloc.OrDefault(inner),
		allocations: f.NewCounter(prometheus.CounterOpts{
			Namespace:   "memkit",
			Subsystem:   "allocator",
			Name:        "allocations_total",
			Help:        "Total number of successful allocations.",
			ConstLabels: labels,
		}),
		deallocations: f.NewCounter(prometheus.CounterOpts{
			Namespace:   "memkit",
			Subsystem:   "allocator",
			Name:        "deallocations_total",
			Help:        "Total number of blocks returned to the allocator.",
			ConstLabels: labels,
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "memkit",
			Subsystem:   "allocator",
			Name:        "failures_total",
			Help:        "Total number of failed allocations by cause.",
			ConstLabels: labels,
		}, []string{"reason"}),
		grows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "memkit",
			Subsystem:   "allocator",
			Name:        "grows_total",
			Help:        "Total number of in-place grow attempts by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		inUse: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   "memkit",
			Subsystem:   "allocator",
			Name:        "bytes_in_use",
			Help:        "Bytes currently allocated and not yet returned.",
			ConstLabels: labels,
		}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil && logAlloc {
		a.logger = slog.Default()
	}
	return a
}

// Allocate implements alloc.Allocator.
func (a *Allocator) Allocate(l alloc.Layout) (alloc.Block, error) {
	b, err := a.inner.Allocate(l)
	if err != nil {
		a.nFail.Add(1)
		a.failures.WithLabelValues(reason(err)).Inc()
		if a.logger != nil {
			a.logger.Debug("alloc failed", "size", l.Size, "align", l.Align, "err", err)
		}
		return alloc.Block{}, err
	}
	a.nAlloc.Add(1)
	a.allocations.Inc()
	a.addBytes(int64(l.Size))
	if a.logger != nil {
		a.logger.Debug("alloc", "size", l.Size, "align", l.Align, "ptr", b.Ptr())
	}
	return b, nil
}

// Deallocate implements alloc.Allocator.
func (a *Allocator) Deallocate(b alloc.Block) {
	a.inner.Deallocate(b)
	if b.IsZero() {
		return
	}
	a.nDealloc.Add(1)
	a.deallocations.Inc()
	a.addBytes(-int64(b.Size()))
	if a.logger != nil {
		a.logger.Debug("dealloc", "size", b.Size(), "ptr", b.Ptr())
	}
}

// Grow implements alloc.Grower by forwarding to the inner allocator when it
// can grow in place.
func (a *Allocator) Grow(b alloc.Block, l alloc.Layout) (alloc.Block, error) {
	g, ok := a.inner.(alloc.Grower)
	if !ok || !alloc.CanGrow(a.inner) {
		return alloc.Block{}, alloc.Fail(l, alloc.ErrNotInPlace)
	}
	nb, err := g.Grow(b, l)
	if err != nil {
		a.grows.WithLabelValues("failed").Inc()
		return alloc.Block{}, err
	}
	a.nGrow.Add(1)
	a.grows.WithLabelValues("in_place").Inc()
	a.addBytes(int64(l.Size) - int64(b.Size()))
	if a.logger != nil {
		a.logger.Debug("grow", "from", b.Size(), "to", l.Size, "ptr", nb.Ptr())
	}
	return nb, nil
}

// CanGrow reports whether the inner allocator can grow in place.
func (a *Allocator) CanGrow() bool { return alloc.CanGrow(a.inner) }

// Stats returns a snapshot of the counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		Allocations:   a.nAlloc.Load(),
		Deallocations: a.nDealloc.Load(),
		Failures:      a.nFail.Load(),
		Grows:         a.nGrow.Load(),
		BytesInUse:    a.bytes.Load(),
	}
}

// Inner returns the wrapped allocator.
func (a *Allocator) Inner() alloc.Allocator { return a.inner }

func (a *Allocator) addBytes(n int64) {
	a.inUse.Set(float64(a.bytes.Add(n)))
}

// reason maps a failure to a low-cardinality label value.
func reason(err error) string {
	switch {
	case errors.Is(err, alloc.ErrLayout):
		return "layout"
	case errors.Is(err, alloc.ErrBudget):
		return "budget"
	case errors.Is(err, alloc.ErrPointers):
		return "pointers"
	case errors.Is(err, alloc.ErrExhausted):
		return "exhausted"
	case errors.Is(err, alloc.ErrUnsupported):
		return "unsupported"
	default:
		return "other"
	}
}

// Compile-time interface checks
var (
	_ alloc.Allocator = (*Allocator)(nil)
	_ alloc.Grower    = (*Allocator)(nil)
)
