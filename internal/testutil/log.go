// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// Record is one captured log record: its level, message, and flattened
// attributes.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that captures records in memory so tests
// can assert on logged-and-continue behavior (a drained task failing must
// log, not abort the batch).
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type LogRecorder struct {
	mu      sync.Mutex
	records []Record
	attrs   []slog.Attr
}

// NewLogRecorder creates an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

// Logger returns a slog.Logger writing into the recorder.
func (r *LogRecorder) Logger() *slog.Logger {
	return slog.New(r)
}

// Enabled implements slog.Handler. The recorder captures every level.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]any, rec.NumAttrs()+len(r.attrs))
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   attrs,
	})
	return nil
}

// WithAttrs implements slog.Handler. The derived handler shares the same
// record sink.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedRecorder{parent: r, attrs: append(append([]slog.Attr{}, r.attrs...), attrs...)}
}

// WithGroup implements slog.Handler. Groups are flattened; the recorder
// only needs attribute visibility, not structure.
func (r *LogRecorder) WithGroup(string) slog.Handler {
	return r
}

// Records returns a copy of all captured records.
func (r *LogRecorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// MessagesAt returns the messages of captured records at the given level.
func (r *LogRecorder) MessagesAt(level slog.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, rec := range r.records {
		if rec.Level == level {
			out = append(out, rec.Message)
		}
	}
	return out
}

// derivedRecorder carries bound attributes while writing into the same
// sink as its parent.
type derivedRecorder struct {
	parent *LogRecorder
	attrs  []slog.Attr
}

func (d *derivedRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

func (d *derivedRecorder) Handle(ctx context.Context, rec slog.Record) error {
	attrs := make(map[string]any, rec.NumAttrs()+len(d.attrs))
	for _, a := range d.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	d.parent.mu.Lock()
	defer d.parent.mu.Unlock()
	d.parent.records = append(d.parent.records, Record{
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   attrs,
	})
	return nil
}

func (d *derivedRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedRecorder{parent: d.parent, attrs: append(append([]slog.Attr{}, d.attrs...), attrs...)}
}

func (d *derivedRecorder) WithGroup(string) slog.Handler {
	return d
}
