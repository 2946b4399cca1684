// Mixer-specific metrics definitions
//
// Copyright (C) 2025 Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

// MixerMetrics holds all metrics for the mixing extruder host.
type MixerMetrics struct {
	registry *Registry

	// Command metrics
	CommandsTotal   *Counter
	UnknownCommands *Counter

	// Commit metrics
	CommitsTotal    *Counter
	RejectedCommits *Counter

	// Tool state
	ActiveToolGauge *Gauge
}

// NewMixerMetrics creates and registers all mixer metrics.
func NewMixerMetrics() *MixerMetrics {
	mm := &MixerMetrics{
		registry: NewRegistry(),
		CommandsTotal: NewCounter("mixhost_commands_total",
			"Total G-code commands processed, by command name"),
		UnknownCommands: NewCounter("mixhost_unknown_commands_total",
			"Commands that did not match any registered handler"),
		CommitsTotal: NewCounter("mixhost_commits_total",
			"Normalized mixes committed to a virtual tool"),
		RejectedCommits: NewCounter("mixhost_rejected_commits_total",
			"Commits absorbed as no-ops (zero-sum or bad tool index)"),
		ActiveToolGauge: NewGauge("mixhost_active_tool",
			"Index of the currently selected virtual tool"),
	}
	mm.registry.MustRegister(mm.CommandsTotal)
	mm.registry.MustRegister(mm.UnknownCommands)
	mm.registry.MustRegister(mm.CommitsTotal)
	mm.registry.MustRegister(mm.RejectedCommits)
	mm.registry.MustRegister(mm.ActiveToolGauge)
	mm.ActiveToolGauge.Set(nil, 0)
	return mm
}

// Registry returns the internal registry.
func (mm *MixerMetrics) Registry() *Registry {
	return mm.registry
}

// CommandProcessed records one dispatched command.
func (mm *MixerMetrics) CommandProcessed(name string) {
	mm.CommandsTotal.Inc(Labels{"command": name})
}

// UnknownCommand records a command with no handler.
func (mm *MixerMetrics) UnknownCommand() {
	mm.UnknownCommands.Inc(nil)
}

// Commit records a successful normalize-and-commit.
func (mm *MixerMetrics) Commit() {
	mm.CommitsTotal.Inc(nil)
}

// RejectedCommit records a commit absorbed as a no-op.
func (mm *MixerMetrics) RejectedCommit() {
	mm.RejectedCommits.Inc(nil)
}

// ToolSelected records a tool change.
func (mm *MixerMetrics) ToolSelected(index int) {
	mm.ActiveToolGauge.Set(nil, float64(index))
}
