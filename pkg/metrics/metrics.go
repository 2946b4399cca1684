// Metrics collection for the mixing extruder host
//
// Provides counters and gauges with labels, exported in Prometheus text
// format for scraping.
//
// Copyright (C) 2025 Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MetricType represents the type of metric
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	default:
		return "unknown"
	}
}

// Labels represents metric labels as key-value pairs
type Labels map[string]string

func labelKey(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(labels[k])
	}
	return sb.String()
}

func formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeLabel(labels[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func copyLabels(labels Labels) Labels {
	out := make(Labels, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// Metric is the interface all metric types implement
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Write(sb *strings.Builder)
}

// Counter is a monotonically increasing value
type Counter struct {
	name   string
	help   string
	mu     sync.RWMutex
	values map[string]*counterValue
}

type counterValue struct {
	labels Labels
	value  uint64
}

// NewCounter creates a counter metric
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help, values: make(map[string]*counterValue)}
}

func (c *Counter) Name() string     { return c.name }
func (c *Counter) Help() string     { return c.help }
func (c *Counter) Type() MetricType { return TypeCounter }

// Inc increments the counter by 1
func (c *Counter) Inc(labels Labels) {
	c.Add(labels, 1)
}

// Add increments the counter by delta
func (c *Counter) Add(labels Labels, delta uint64) {
	key := labelKey(labels)
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		v = &counterValue{labels: copyLabels(labels)}
		c.values[key] = v
	}
	v.value += delta
}

// Get returns the current counter value for a label set
func (c *Counter) Get(labels Labels) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.values[labelKey(labels)]; ok {
		return v.value
	}
	return 0
}

func (c *Counter) Write(sb *strings.Builder) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fmt.Fprintf(sb, "# HELP %s %s\n", c.name, c.help)
	fmt.Fprintf(sb, "# TYPE %s counter\n", c.name)
	for _, v := range sortedCounterValues(c.values) {
		fmt.Fprintf(sb, "%s%s %d\n", c.name, formatLabels(v.labels), v.value)
	}
}

func sortedCounterValues(values map[string]*counterValue) []*counterValue {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*counterValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, values[k])
	}
	return out
}

// Gauge is a value that can go up and down
type Gauge struct {
	name   string
	help   string
	mu     sync.RWMutex
	values map[string]*gaugeValue
}

type gaugeValue struct {
	labels Labels
	value  float64
}

// NewGauge creates a gauge metric
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help, values: make(map[string]*gaugeValue)}
}

func (g *Gauge) Name() string     { return g.name }
func (g *Gauge) Help() string     { return g.help }
func (g *Gauge) Type() MetricType { return TypeGauge }

// Set stores a gauge value
func (g *Gauge) Set(labels Labels, value float64) {
	key := labelKey(labels)
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.values[key]
	if !ok {
		v = &gaugeValue{labels: copyLabels(labels)}
		g.values[key] = v
	}
	v.value = value
}

// Get returns the current gauge value for a label set
func (g *Gauge) Get(labels Labels) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if v, ok := g.values[labelKey(labels)]; ok {
		return v.value
	}
	return 0
}

func (g *Gauge) Write(sb *strings.Builder) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fmt.Fprintf(sb, "# HELP %s %s\n", g.name, g.help)
	fmt.Fprintf(sb, "# TYPE %s gauge\n", g.name)
	keys := make([]string, 0, len(g.values))
	for k := range g.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := g.values[k]
		fmt.Fprintf(sb, "%s%s %s\n", g.name, formatLabels(v.labels),
			strconv.FormatFloat(v.value, 'g', -1, 64))
	}
}

// Registry holds all registered metrics
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
	order   []string // Preserve registration order
}

// NewRegistry creates a new metrics registry
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// Register adds a metric to the registry
func (r *Registry) Register(metric Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := metric.Name()
	if _, exists := r.metrics[name]; exists {
		return fmt.Errorf("metric %q already registered", name)
	}
	r.metrics[name] = metric
	r.order = append(r.order, name)
	return nil
}

// MustRegister adds a metric and panics on error
func (r *Registry) MustRegister(metric Metric) {
	if err := r.Register(metric); err != nil {
		panic(err)
	}
}

// Get returns a metric by name
func (r *Registry) Get(name string) Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics[name]
}

// Gather collects all metrics in Prometheus text format
func (r *Registry) Gather() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sb strings.Builder
	for _, name := range r.order {
		if metric, ok := r.metrics[name]; ok {
			metric.Write(&sb)
		}
	}
	return sb.String()
}
