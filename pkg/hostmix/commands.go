// Mixing extruder command handlers
//
// Implements the Marlin-style mixing commands on top of the mixing core:
//
//	M163 S<index> P<weight>  - set a single collector weight
//	M164 [S<tool>]           - normalize and commit to a virtual tool
//	M165 [ABCDHIJK...] [R]   - set multiple weights, commit, optional report
//	T<n>                     - select the active virtual tool
//
// Malformed or unknown commands are logged and ignored; the command loop
// never halts on bad input.
//
// Copyright (C) 2025 Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package hostmix

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"mixhost/pkg/log"
	"mixhost/pkg/metrics"
	"mixhost/pkg/mixing"
)

// mixingCodes are the M165 factor letters, one per channel, in Marlin's
// fixed order.
var mixingCodes = [mixing.MaxSteppers]string{"A", "B", "C", "D", "H", "I", "J", "K"}

// Handler dispatches G-code lines to the mixer and writes responses to
// the reporting sink.
type Handler struct {
	mu sync.Mutex

	mixer  *mixing.Mixer
	out    io.Writer
	logger *log.Logger
	mm     *metrics.MixerMetrics

	directMixing bool
}

// HandlerConfig holds command layer configuration.
type HandlerConfig struct {
	// DirectMixing enables the M165 sparse batch command. Some
	// deployments only ever stage one channel at a time.
	DirectMixing bool
}

// NewHandler creates a command handler bound to a mixer and a reporting
// sink. Metrics may be nil.
func NewHandler(mixer *mixing.Mixer, out io.Writer, logger *log.Logger, mm *metrics.MixerMetrics, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = log.New("hostmix")
	}
	return &Handler{
		mixer:        mixer,
		out:          out,
		logger:       logger,
		mm:           mm,
		directMixing: cfg.DirectMixing,
	}
}

// ProcessLine parses and executes one command line, then acknowledges
// it. Blank and comment-only lines are acknowledged without dispatch.
func (h *Handler) ProcessLine(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cmd, err := parseGCodeLine(line)
	if err != nil {
		h.logger.Warn("parse error: %v", err)
		h.ack()
		return
	}
	if cmd == nil {
		h.ack()
		return
	}
	if h.mm != nil {
		h.mm.CommandProcessed(cmd.Name)
	}
	h.dispatch(cmd)
	h.ack()
}

func (h *Handler) ack() {
	if h.out != nil {
		fmt.Fprintln(h.out, "ok")
	}
}

func (h *Handler) dispatch(cmd *gcodeCommand) {
	switch {
	case cmd.Name == "M163":
		h.cmdM163(cmd.Args)
	case cmd.Name == "M164":
		h.cmdM164(cmd.Args)
	case cmd.Name == "M165" && h.directMixing:
		h.cmdM165(cmd.Args)
	case strings.HasPrefix(cmd.Name, "T"):
		h.cmdSelectTool(cmd.Name)
	default:
		h.logger.Debug("unknown command: %s", cmd.Name)
		if h.mm != nil {
			h.mm.UnknownCommand()
		}
	}
}

// cmdM163 stages a single mix weight. Must be followed by M164 to
// normalize and commit.
func (h *Handler) cmdM163(args map[string]string) {
	index, err := intArg(args, "S", 0)
	if err != nil {
		h.logger.Warn("M163: %v", err)
		return
	}
	weight, err := floatArg(args, "P", 0)
	if err != nil {
		h.logger.Warn("M163: %v", err)
		return
	}
	h.mixer.SetCollector(index, weight)
}

// cmdM164 normalizes the collector and commits it. With S omitted the
// active virtual tool is updated; with a single tool slot S is not
// user-selectable.
func (h *Handler) cmdM164(args map[string]string) {
	toolIndex, err := intArg(args, "S", -1)
	if err != nil {
		h.logger.Warn("M164: %v", err)
		return
	}
	var committed bool
	switch {
	case h.mixer.NumVirtualTools() == 1:
		committed = h.mixer.Normalize(0)
	case toolIndex >= 0:
		committed = h.mixer.Normalize(toolIndex)
	default:
		committed = h.mixer.NormalizeActive()
	}
	h.noteCommit(committed)
}

// cmdM165 applies a sparse batch of mix factors. Omitted factors are
// zeroed once any factor is given; with no factors at all the old mix
// is preserved. An R argument reports every virtual tool.
func (h *Handler) cmdM165(args map[string]string) {
	updates := make(map[int]float64)
	for i := 0; i < h.mixer.NumSteppers(); i++ {
		code := mixingCodes[i]
		if !hasArg(args, code) {
			continue
		}
		w, err := floatArg(args, code, 0)
		if err != nil {
			h.logger.Warn("M165: %v", err)
			return
		}
		updates[i] = w
	}
	if len(updates) > 0 {
		h.noteCommit(h.mixer.BatchStage(updates))
	}
	if hasArg(args, "R") {
		h.reportVTools()
	}
}

// cmdSelectTool handles T<n>.
func (h *Handler) cmdSelectTool(name string) {
	index, err := strconv.Atoi(name[1:])
	if err != nil {
		h.logger.Warn("bad tool change: %s", name)
		return
	}
	if h.mixer.SelectTool(index) && h.mm != nil {
		h.mm.ToolSelected(index)
	}
}

func (h *Handler) noteCommit(committed bool) {
	if h.mm == nil {
		return
	}
	if committed {
		h.mm.Commit()
	} else {
		h.mm.RejectedCommit()
	}
}

// reportVTools writes the current blend of every virtual tool as
// percentages, one line per tool.
func (h *Handler) reportVTools() {
	if h.out == nil {
		return
	}
	fmt.Fprintln(h.out, "Current Virtual Tools")
	for t := 0; t < h.mixer.NumVirtualTools(); t++ {
		pct := h.mixer.ToolPercentages(t)
		var b strings.Builder
		fmt.Fprintf(&b, "  V%d:", t)
		for i, p := range pct {
			fmt.Fprintf(&b, " %s%.1f", mixingCodes[i], p)
		}
		fmt.Fprintln(h.out, b.String())
	}
}

// Report writes the virtual tool report on demand (outside of M165 R).
func (h *Handler) Report() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reportVTools()
}

// GetStatus returns the mixer state for the status server.
func (h *Handler) GetStatus() map[string]any {
	tools := make([][]float64, h.mixer.NumVirtualTools())
	for t := range tools {
		tools[t] = h.mixer.Tool(t)
	}
	return map[string]any{
		"active_tool":     h.mixer.ActiveTool(),
		"collector":       h.mixer.CollectorValues(),
		"tools":           tools,
		"mixing_steppers": h.mixer.NumSteppers(),
		"virtual_tools":   h.mixer.NumVirtualTools(),
	}
}
