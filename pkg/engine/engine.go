// Package engine runs block scripts under cooperative multitasking.
// The engine owns the thread table and advances every live thread a
// bounded amount per tick; threads never block the loop, they park in
// one of the wait statuses and the tick loop resumes them.
package engine

import (
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/zurustar/karakuri/pkg/logger"
	"github.com/zurustar/karakuri/pkg/project"
	"github.com/zurustar/karakuri/pkg/target"
	"github.com/zurustar/karakuri/pkg/thread"
)

// GlowEntry names one script the front end should highlight this tick.
type GlowEntry struct {
	Target   *target.Target
	TopBlock string
	BlockID  string
}

// One thread per script per target; restarts replace the old thread.
type threadKey struct {
	tgt *target.Target
	top string
}

// Engine is the script runtime for one loaded project.
type Engine struct {
	targets []*target.Target
	stage   *target.Target
	tempo   int

	threads []*thread.Thread
	byKey   map[threadKey]*thread.Thread
	parked  map[*thread.Thread]*pendingEntry

	audio  AudioSystem
	logger *slog.Logger
	random *rand.Rand

	stepBudget time.Duration
	warpTime   time.Duration

	tick    uint64
	glowing []GlowEntry
}

// Option configures an Engine.
type Option func(*Engine)

// WithAudio sets the audio backend. Defaults to NullAudio.
func WithAudio(a AudioSystem) Option {
	return func(e *Engine) {
		if a != nil {
			e.audio = a
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSeed fixes the random source, for reproducible runs.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.random = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithStepBudget overrides the per-tick stepping budget. Zero means one
// stepping round per tick.
func WithStepBudget(d time.Duration) Option {
	return func(e *Engine) {
		e.stepBudget = d
	}
}

// WithWarpTime overrides the warp burst bound.
func WithWarpTime(d time.Duration) Option {
	return func(e *Engine) {
		e.warpTime = d
	}
}

// NewEngine builds the runtime for a loaded project.
func NewEngine(proj *project.Project, opts ...Option) (*Engine, error) {
	if proj == nil || len(proj.Targets) == 0 {
		return nil, ErrNoProject
	}
	e := &Engine{
		targets:    proj.Targets,
		stage:      proj.Stage,
		tempo:      proj.Tempo,
		byKey:      make(map[threadKey]*thread.Thread),
		parked:     make(map[*thread.Thread]*pendingEntry),
		audio:      NullAudio{},
		logger:     logger.GetLogger(),
		random:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(time.Now().UnixNano()))),
		stepBudget: StepBudget,
		warpTime:   WarpTime,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Targets returns the project targets in file order.
func (e *Engine) Targets() []*target.Target {
	return e.targets
}

// Stage returns the stage target.
func (e *Engine) Stage() *target.Target {
	return e.stage
}

// Tempo returns the project tempo in beats per minute.
func (e *Engine) Tempo() int {
	return e.tempo
}

// TickCount returns the number of completed ticks.
func (e *Engine) TickCount() uint64 {
	return e.tick
}

// Threads returns a snapshot of the live thread table.
func (e *Engine) Threads() []*thread.Thread {
	out := make([]*thread.Thread, len(e.threads))
	copy(out, e.threads)
	return out
}

// Done reports whether nothing is left to run.
func (e *Engine) Done() bool {
	return len(e.threads) == 0
}

// Close shuts down the audio backend.
func (e *Engine) Close() error {
	return e.audio.Close()
}

// Tick advances the engine one step: apply finished completions, wake
// yield-tick threads, step everything under the budget, retire finished
// threads, refresh the glow set.
func (e *Engine) Tick() {
	e.tick++
	e.applyResolutions()
	for _, th := range e.threads {
		if th.Status() == thread.StatusYieldTick {
			th.SetStatus(thread.StatusRunning)
		}
	}
	e.stepThreads()
	e.retireDone()
	e.updateGlow()
}

// GreenFlag restarts the project: everything stops, then every
// flag-clicked hat starts fresh.
func (e *Engine) GreenFlag() {
	e.logger.Info("green flag")
	e.StopAll()
	for _, tgt := range e.targets {
		for _, top := range tgt.Blocks.TopLevelScripts() {
			if tgt.Blocks.OpcodeOf(top) == "event_whenflagclicked" {
				e.startThread(top, tgt)
			}
		}
	}
}

// Broadcast starts every receiver hat matching name (case-insensitive),
// restarting receivers that are already running. Returns the started
// threads.
func (e *Engine) Broadcast(name string) []*thread.Thread {
	var started []*thread.Thread
	for _, tgt := range e.targets {
		for _, top := range tgt.Blocks.TopLevelScripts() {
			blk := tgt.Blocks.BlockByID(top)
			if blk == nil || blk.Opcode != "event_whenbroadcastreceived" {
				continue
			}
			if !strings.EqualFold(blk.Field("BROADCAST_OPTION"), name) {
				continue
			}
			started = append(started, e.startThread(top, tgt))
		}
	}
	e.logger.Debug("broadcast", "name", name, "receivers", len(started))
	return started
}

// StartScript starts (or restarts) the script containing blockID on the
// given target. Any block of the script may be passed; the thread runs
// from the script's top. Returns nil for unknown blocks.
func (e *Engine) StartScript(blockID string, tgt *target.Target) *thread.Thread {
	top := tgt.Blocks.ScriptForBlock(blockID)
	if top == "" {
		e.logger.Warn("no script for block", "block", blockID, "target", tgt.Name)
		return nil
	}
	return e.startThread(top, tgt)
}

// StopAll kills every thread and drops all parked completions.
func (e *Engine) StopAll() {
	for _, th := range e.threads {
		if th.Status() != thread.StatusDone {
			th.Kill()
		}
	}
	e.threads = e.threads[:0]
	e.byKey = make(map[threadKey]*thread.Thread)
	e.parked = make(map[*thread.Thread]*pendingEntry)
	e.glowing = nil
}

// GlowingScripts returns the scripts to highlight, refreshed each tick.
func (e *Engine) GlowingScripts() []GlowEntry {
	out := make([]GlowEntry, len(e.glowing))
	copy(out, e.glowing)
	return out
}

func (e *Engine) startThread(top string, tgt *target.Target) *thread.Thread {
	key := threadKey{tgt, top}
	if old := e.byKey[key]; old != nil && old.Status() != thread.StatusDone {
		e.killThread(old)
	}
	th := thread.NewThread(top, tgt)
	th.Push(top)
	e.threads = append(e.threads, th)
	e.byKey[key] = th
	e.logger.Debug("script started", "target", tgt.Name, "top", top)
	return th
}

func (e *Engine) killThread(th *thread.Thread) {
	th.Kill()
	delete(e.parked, th)
}

func (e *Engine) stopOtherThreads(cur *thread.Thread) {
	for _, th := range e.threads {
		if th != cur && th.Target() == cur.Target() && th.Status() != thread.StatusDone {
			e.killThread(th)
		}
	}
}

func (e *Engine) retireDone() {
	alive := e.threads[:0]
	for _, th := range e.threads {
		if th.Status() == thread.StatusDone {
			delete(e.parked, th)
			key := threadKey{th.Target(), th.TopBlock()}
			if e.byKey[key] == th {
				delete(e.byKey, key)
			}
			continue
		}
		alive = append(alive, th)
	}
	e.threads = alive
}

func (e *Engine) updateGlow() {
	e.glowing = e.glowing[:0]
	for _, th := range e.threads {
		if th.GlowRequested() {
			e.glowing = append(e.glowing, GlowEntry{
				Target:   th.Target(),
				TopBlock: th.TopBlock(),
				BlockID:  th.GlowBlock(),
			})
			// The request is good for one tick; visual work in the
			// next tick raises it again.
			th.ClearGlowRequest()
		}
	}
}
