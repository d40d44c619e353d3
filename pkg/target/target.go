// Package target models the actors block scripts run against: the
// stage and its sprites. A target owns its block graph and its
// variables; threads hold a non-owning reference to the target they
// execute for.
package target

import (
	"math"

	"github.com/zurustar/karakuri/pkg/block"
)

// Target is one sprite, or the stage.
type Target struct {
	Name    string
	IsStage bool

	// Sprite state. The stage carries these too but never moves.
	X, Y      float64
	Direction float64
	Visible   bool

	// SayText is the current speech-bubble text; empty when silent.
	SayText string

	// Blocks is the target's immutable script graph.
	Blocks *block.Container

	variables map[string]any
	stage     *Target
}

// New creates a target facing right (direction 90) and visible.
func New(name string, isStage bool, blocks *block.Container) *Target {
	if blocks == nil {
		blocks = block.NewContainer(nil)
	}
	return &Target{
		Name:      name,
		IsStage:   isStage,
		Direction: 90,
		Visible:   true,
		Blocks:    blocks,
		variables: make(map[string]any),
	}
}

// BindStage wires the stage a sprite falls back to for variable reads.
// Binding a target to itself is a no-op.
func (t *Target) BindStage(stage *Target) {
	if stage != t {
		t.stage = stage
	}
}

// SetLocal writes a variable on this target only, without the stage
// fallback. Used when loading a project's declared variables.
func (t *Target) SetLocal(name string, value any) {
	t.variables[name] = value
}

// Variable reads a variable: local first, then the stage. The second
// result is false when neither holds the name.
func (t *Target) Variable(name string) (any, bool) {
	if v, ok := t.variables[name]; ok {
		return v, true
	}
	if t.stage != nil {
		if v, ok := t.stage.variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetVariable writes a variable to whichever target owns it: locally
// when the name is local (or nowhere yet), on the stage when only the
// stage holds it.
func (t *Target) SetVariable(name string, value any) {
	if _, ok := t.variables[name]; ok {
		t.variables[name] = value
		return
	}
	if t.stage != nil {
		if _, ok := t.stage.variables[name]; ok {
			t.stage.variables[name] = value
			return
		}
	}
	t.variables[name] = value
}

// SetDirection sets the heading in degrees (90 = right), wrapped into
// (-180, 180].
func (t *Target) SetDirection(deg float64) {
	d := math.Mod(deg, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	t.Direction = d
}

// Turn rotates the heading clockwise by deg degrees.
func (t *Target) Turn(deg float64) {
	t.SetDirection(t.Direction + deg)
}

// MoveSteps moves the target along its current heading.
func (t *Target) MoveSteps(steps float64) {
	rad := t.Direction * math.Pi / 180
	t.X += steps * math.Sin(rad)
	t.Y += steps * math.Cos(rad)
}

// GoTo places the target at the given position.
func (t *Target) GoTo(x, y float64) {
	t.X, t.Y = x, y
}
