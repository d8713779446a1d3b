// Package stats is a thin layer over go-metrics for resolver trees and icectl.
// A resolver tree reports through a StatsReceiver (see ice.WithStats), scoped
// once per ice scope, e.g. "ice/app/constructCounter". icectl serve renders
// the registry on /admin/metrics in finagle's flat JSON shape.
//
// Names are '/' joined. A '/' inside a name element is replaced by "_SLASH_"
// so that dynamically generated names can't add path levels.
package stats

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// Clock is the time source for latencies and uptime reporting.
var Clock interface {
	Now() time.Time
	Ticker(d time.Duration) (tick <-chan time.Time, stop func())
} = wallClock{}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
func (wallClock) Ticker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// StatsReceiver hands out instruments registered under its scope.
type StatsReceiver interface {
	// Scope returns a receiver whose names are prefixed with scope:
	//   stat.Scope("ice", "app").Counter("x") registers "ice/app/x".
	Scope(scope ...string) StatsReceiver

	// Precision sets the display unit of latencies created through the
	// returned receiver. Recorded values stay in nanoseconds. <= 1ns means ns.
	Precision(time.Duration) StatsReceiver

	Counter(name ...string) Counter
	Gauge(name ...string) Gauge
	Latency(name ...string) Latency

	// Render marshals the whole registry and resets latency windows, so each
	// scrape sees the latencies recorded since the previous one.
	Render(pretty bool) []byte
}

// Counter counts events. Satisfied by metrics.Counter.
type Counter interface {
	Inc(int64)
	Count() int64
}

// Gauge holds the last value set. Satisfied by metrics.Gauge.
type Gauge interface {
	Update(int64)
	Value() int64
}

// Latency samples durations.
type Latency interface {
	// Time starts a Timer; each Timer records one sample, so concurrent
	// callers can share a Latency.
	Time() Timer
	Record(time.Duration)
}

// Timer records the time since Latency.Time when stopped.
type Timer struct {
	l     Latency
	start time.Time
}

func (t Timer) Stop() {
	if t.l != nil {
		t.l.Record(Clock.Now().Sub(t.start))
	}
}

// NewStatsReceiver returns a root receiver over reg.
func NewStatsReceiver(reg *Registry) StatsReceiver {
	return &receiver{reg: reg, precision: time.Nanosecond}
}

type receiver struct {
	reg       *Registry
	precision time.Duration
	scope     []string
}

func (s *receiver) Scope(scope ...string) StatsReceiver {
	return &receiver{s.reg, s.precision, s.scoped(scope...)}
}

func (s *receiver) Precision(p time.Duration) StatsReceiver {
	if p < 1 {
		p = 1
	}
	return &receiver{s.reg, p, s.scope}
}

func (s *receiver) Counter(name ...string) Counter {
	return s.reg.GetOrRegister(s.scopedName(name...), metrics.NewCounter).(metrics.Counter)
}

func (s *receiver) Gauge(name ...string) Gauge {
	return s.reg.GetOrRegister(s.scopedName(name...), metrics.NewGauge).(metrics.Gauge)
}

func (s *receiver) Latency(name ...string) Latency {
	lazy := func() *latency { return newLatency(s.precision) }
	return s.reg.GetOrRegister(s.scopedName(name...), lazy).(*latency)
}

func (s *receiver) Render(pretty bool) []byte {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(s.reg.MarshalAll(), "", "  ")
	} else {
		b, err = json.Marshal(s.reg)
	}
	if err != nil {
		panic("stats registry cannot be marshaled: " + err.Error())
	}
	s.reg.Each(func(_ string, i interface{}) {
		if l, ok := i.(*latency); ok {
			l.Clear()
		}
	})
	return b
}

// scoped always returns a fresh slice so sibling receivers never share a
// backing array.
func (s *receiver) scoped(scope ...string) []string {
	scoped := make([]string, 0, len(s.scope)+len(scope))
	scoped = append(scoped, s.scope...)
	for _, elem := range scope {
		scoped = append(scoped, strings.Replace(elem, "/", "_SLASH_", -1))
	}
	return scoped
}

func (s *receiver) scopedName(name ...string) string {
	return strings.Join(s.scoped(name...), "/")
}

// NilStatsReceiver discards everything.
func NilStatsReceiver() StatsReceiver { return nilReceiver{} }

type nilReceiver struct{}

func (n nilReceiver) Scope(...string) StatsReceiver         { return n }
func (n nilReceiver) Precision(time.Duration) StatsReceiver { return n }
func (nilReceiver) Counter(...string) Counter               { return metrics.NilCounter{} }
func (nilReceiver) Gauge(...string) Gauge                   { return metrics.NilGauge{} }
func (nilReceiver) Latency(...string) Latency               { return nilLatency{} }
func (nilReceiver) Render(bool) []byte                      { return []byte{} }

type nilLatency struct{}

func (nilLatency) Time() Timer          { return Timer{} }
func (nilLatency) Record(time.Duration) {}

type latency struct {
	metrics.Histogram
	precision time.Duration
}

func newLatency(precision time.Duration) *latency {
	return &latency{metrics.NewHistogram(metrics.NewUniformSample(1028)), precision}
}

func (l *latency) Time() Timer            { return Timer{l, Clock.Now()} }
func (l *latency) Record(d time.Duration) { l.Update(d.Nanoseconds()) }

// Registry is a go-metrics registry that marshals finagle style: counters and
// gauges as plain numbers, latencies as "<name>.<stat>" keys in their
// display precision.
type Registry struct {
	metrics.Registry
}

func NewRegistry() *Registry {
	return &Registry{metrics.NewRegistry()}
}

func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.MarshalAll())
}

// MarshalAll flattens the registry into the map that gets rendered.
func (r *Registry) MarshalAll() map[string]interface{} {
	data := map[string]interface{}{}
	r.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case *latency:
			marshalLatency(data, name, m.Snapshot(), m.precision)
		case metrics.Counter:
			data[name] = m.Count()
		case metrics.Gauge:
			data[name] = m.Value()
		default:
			log.Infof("Skipping unknown instrument %s: %T", name, i)
		}
	})
	return data
}

var percentiles = []float64{0.5, 0.9, 0.95, 0.99, 0.999, 0.9999}
var percentileLabels = []string{"p50", "p90", "p95", "p99", "p999", "p9999"}

func marshalLatency(data map[string]interface{}, name string, h metrics.Histogram, precision time.Duration) {
	fp, ip := float64(precision), int64(precision)
	data[name+".avg"] = h.Mean() / fp
	data[name+".count"] = h.Count()
	data[name+".max"] = h.Max() / ip
	data[name+".min"] = h.Min() / ip
	data[name+".sum"] = h.Sum() / ip
	for i, p := range h.Percentiles(percentiles) {
		data[name+"."+percentileLabels[i]] = p / fp
	}
}
