// Mixing extruder core - Marlin-style mix factor handling
//
// Support for blending multiple stepper-driven material feeds. Raw mix
// weights are staged in a collector, normalized to fractions summing to
// 1.0, and committed to virtual tool slots that the stepper feed layer
// reads to apportion motion.
//
// Copyright (C) 2025 Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package mixing

import (
	"fmt"
	"sync"
)

// MaxSteppers is the largest supported number of mixing stepper channels.
const MaxSteppers = 8

// MaxVirtualTools is the largest supported number of virtual tool slots.
const MaxVirtualTools = 16

// Config holds the fixed mixer dimensions, set once at startup.
type Config struct {
	Steppers     int // number of mixing stepper channels (1..MaxSteppers)
	VirtualTools int // number of virtual tool slots (1..MaxVirtualTools)
}

// Mixer owns the collector staging area and the virtual tool store.
// All storage is fixed capacity; nothing is allocated after New. Invalid
// channel or tool indices are absorbed as no-ops rather than errors, so a
// malformed command never halts the command loop.
type Mixer struct {
	mu sync.Mutex

	steppers int
	vtools   int

	// collector holds raw, not-yet-normalized weights. It is never
	// cleared by a commit; the last staged values stay readable.
	collector [MaxSteppers]float64

	// tools holds the committed fractions, one row per virtual tool.
	// Each committed row sums to 1.0 within float tolerance.
	tools      [MaxVirtualTools][MaxSteppers]float64
	activeTool int
}

// New creates a mixer with the given dimensions and default tool blends.
func New(cfg Config) (*Mixer, error) {
	if cfg.Steppers < 1 || cfg.Steppers > MaxSteppers {
		return nil, fmt.Errorf("mixing: stepper count %d out of range 1..%d", cfg.Steppers, MaxSteppers)
	}
	if cfg.VirtualTools < 1 || cfg.VirtualTools > MaxVirtualTools {
		return nil, fmt.Errorf("mixing: virtual tool count %d out of range 1..%d", cfg.VirtualTools, MaxVirtualTools)
	}
	m := &Mixer{steppers: cfg.Steppers, vtools: cfg.VirtualTools}
	m.ResetVTools()
	return m, nil
}

// NumSteppers returns the configured channel count.
func (m *Mixer) NumSteppers() int { return m.steppers }

// NumVirtualTools returns the configured virtual tool count.
func (m *Mixer) NumVirtualTools() int { return m.vtools }

// ResetVTools restores the default blends: tool t is 100% channel t,
// and tools beyond the channel count are 100% channel 0.
func (m *Mixer) ResetVTools() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t := 0; t < m.vtools; t++ {
		src := t
		if src >= m.steppers {
			src = 0
		}
		for i := 0; i < m.steppers; i++ {
			if i == src {
				m.tools[t][i] = 1.0
			} else {
				m.tools[t][i] = 0.0
			}
		}
	}
}

// SetCollector stages a raw weight for one channel. An out-of-range
// channel is silently ignored.
func (m *Mixer) SetCollector(channel int, weight float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCollectorLocked(channel, weight)
}

func (m *Mixer) setCollectorLocked(channel int, weight float64) {
	if channel < 0 || channel >= m.steppers {
		return
	}
	m.collector[channel] = weight
}

// Collector returns the staged weight for one channel, or 0 for an
// out-of-range channel.
func (m *Mixer) Collector(channel int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if channel < 0 || channel >= m.steppers {
		return 0
	}
	return m.collector[channel]
}

// CollectorValues returns a copy of the staged weights.
func (m *Mixer) CollectorValues() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, m.steppers)
	copy(out, m.collector[:m.steppers])
	return out
}

// ActiveTool returns the index of the active virtual tool.
func (m *Mixer) ActiveTool() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeTool
}

// SelectTool makes the given virtual tool the implicit commit target.
// An out-of-range index is silently ignored and reports false.
func (m *Mixer) SelectTool(toolIndex int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if toolIndex < 0 || toolIndex >= m.vtools {
		return false
	}
	m.activeTool = toolIndex
	return true
}

// Normalize rescales the collector so its weights sum to 1.0 and commits
// the result to the given virtual tool slot. The collector keeps its raw
// values. A zero-sum collector or an out-of-range tool index leaves the
// store untouched.
func (m *Mixer) Normalize(toolIndex int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.normalizeLocked(toolIndex)
}

// NormalizeActive commits the collector to the active virtual tool.
func (m *Mixer) NormalizeActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.normalizeLocked(m.activeTool)
}

func (m *Mixer) normalizeLocked(toolIndex int) bool {
	if toolIndex < 0 || toolIndex >= m.vtools {
		return false
	}
	total := 0.0
	for i := 0; i < m.steppers; i++ {
		total += m.collector[i]
	}
	// A zero total would divide to NaN and poison the feed layer, so
	// the prior blend is kept instead.
	if total <= 0 {
		return false
	}
	for i := 0; i < m.steppers; i++ {
		m.tools[toolIndex][i] = m.collector[i] / total
	}
	return true
}

// BatchStage applies a sparse set of channel weights and commits to the
// active tool. Once any channel is given, channels absent from updates
// are zeroed: a non-empty update is a total replacement of the mix. An
// empty update set preserves the previous mix verbatim and performs no
// normalization at all.
func (m *Mixer) BatchStage(updates map[int]float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	provided := false
	for ch := range updates {
		if ch >= 0 && ch < m.steppers {
			provided = true
			break
		}
	}
	if !provided {
		return false
	}
	for ch, w := range updates {
		m.setCollectorLocked(ch, w)
	}
	for i := 0; i < m.steppers; i++ {
		if _, ok := updates[i]; !ok {
			m.collector[i] = 0.0
		}
	}
	return m.normalizeLocked(m.activeTool)
}

// Tool returns a copy of the committed fractions for one virtual tool,
// or nil for an out-of-range index. The feed layer reads blends through
// this accessor; it never sees the raw collector.
func (m *Mixer) Tool(toolIndex int) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if toolIndex < 0 || toolIndex >= m.vtools {
		return nil
	}
	out := make([]float64, m.steppers)
	copy(out, m.tools[toolIndex][:m.steppers])
	return out
}

// ToolPercentages returns the committed fractions for one virtual tool
// scaled to percentages, or nil for an out-of-range index. The stored
// fractions are not modified.
func (m *Mixer) ToolPercentages(toolIndex int) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if toolIndex < 0 || toolIndex >= m.vtools {
		return nil
	}
	out := make([]float64, m.steppers)
	for i := 0; i < m.steppers; i++ {
		out[i] = m.tools[toolIndex][i] * 100.0
	}
	return out
}

// AllPercentages returns the percentage view of every virtual tool.
func (m *Mixer) AllPercentages() [][]float64 {
	m.mu.Lock()
	vtools := m.vtools
	m.mu.Unlock()
	out := make([][]float64, vtools)
	for t := 0; t < vtools; t++ {
		out[t] = m.ToolPercentages(t)
	}
	return out
}
