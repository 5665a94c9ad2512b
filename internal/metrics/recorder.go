// Package metrics provides a lightweight per-run metrics recorder for the
// processing pipeline. Stage timings, counts, and byte sizes accumulate on a
// Recorder and flush as a single structured log event — one searchable record
// per run instead of scattered timing lines.
package metrics

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Recorder accumulates measurements and properties for a single flush.
// It is NOT safe for concurrent use from multiple goroutines; create one
// per processing run.
type Recorder struct {
	operation  string
	durations  map[string]time.Duration
	counts     map[string]int64
	bytes      map[string]int64
	properties map[string]string
}

// New creates a Recorder for the given operation name (e.g. "process").
func New(operation string) *Recorder {
	return &Recorder{
		operation:  operation,
		durations:  make(map[string]time.Duration),
		counts:     make(map[string]int64),
		bytes:      make(map[string]int64),
		properties: make(map[string]string),
	}
}

// Duration records a named stage duration.
func (r *Recorder) Duration(name string, d time.Duration) *Recorder {
	r.durations[name] = d
	return r
}

// Count records a named count (panels, entries, retries).
func (r *Recorder) Count(name string, n int) *Recorder {
	r.counts[name] = int64(n)
	return r
}

// Bytes records a named output size.
func (r *Recorder) Bytes(name string, n int) *Recorder {
	r.bytes[name] = int64(n)
	return r
}

// Property adds a non-metric field to the flushed event (run IDs, formats).
func (r *Recorder) Property(key, value string) *Recorder {
	r.properties[key] = value
	return r
}

// Flush emits all collected measurements as a single INFO event. After
// flushing, the Recorder should not be reused.
func (r *Recorder) Flush() {
	if len(r.durations) == 0 && len(r.counts) == 0 && len(r.bytes) == 0 {
		return // Nothing to emit
	}

	evt := log.Info().Str("operation", r.operation)

	if len(r.durations) > 0 {
		d := zerolog.Dict()
		for k, v := range r.durations {
			d = d.Float64(k, v.Seconds()*1000)
		}
		evt = evt.Dict("durationsMs", d)
	}
	if len(r.counts) > 0 {
		d := zerolog.Dict()
		for k, v := range r.counts {
			d = d.Int64(k, v)
		}
		evt = evt.Dict("counts", d)
	}
	if len(r.bytes) > 0 {
		d := zerolog.Dict()
		for k, v := range r.bytes {
			d = d.Int64(k, v)
		}
		evt = evt.Dict("bytes", d)
	}
	for k, v := range r.properties {
		evt = evt.Str(k, v)
	}

	evt.Msg("Run metrics")
}
