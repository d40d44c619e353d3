package stage

import (
	"context"
	"testing"
	"time"

	"github.com/zurustar/karakuri/pkg/block"
	"github.com/zurustar/karakuri/pkg/engine"
	"github.com/zurustar/karakuri/pkg/project"
	"github.com/zurustar/karakuri/pkg/target"
)

func headlessEngine(t *testing.T, blocks map[string]*block.Block) *engine.Engine {
	t.Helper()
	stg := target.New("Stage", true, block.NewContainer(nil))
	spr := target.New("neko", false, block.NewContainer(blocks))
	spr.BindStage(stg)
	e, err := engine.NewEngine(&project.Project{
		Tempo:   project.DefaultTempo,
		Targets: []*target.Target{stg, spr},
		Stage:   stg,
	}, engine.WithStepBudget(0))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestRunHeadlessFinishesWithScripts(t *testing.T) {
	e := headlessEngine(t, map[string]*block.Block{
		"hat": {Opcode: "event_whenflagclicked", Next: "move", TopLevel: true},
		"move": {Opcode: "motion_movesteps", Parent: "hat",
			Inputs: map[string]block.Input{"STEPS": {Value: float64(10)}}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := RunHeadless(ctx, e); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if !e.Done() {
		t.Error("engine not done after headless run")
	}
}

func TestRunHeadlessTimeoutIsNotAnError(t *testing.T) {
	e := headlessEngine(t, map[string]*block.Block{
		"hat":  {Opcode: "event_whenflagclicked", Next: "loop", TopLevel: true},
		"loop": {Opcode: "control_forever", Parent: "hat", Inputs: map[string]block.Input{"SUBSTACK": {Block: "move"}}},
		"move": {Opcode: "motion_movesteps", Parent: "loop",
			Inputs: map[string]block.Input{"STEPS": {Value: float64(1)}}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := RunHeadless(ctx, e); err != nil {
		t.Fatalf("RunHeadless on timeout: %v", err)
	}
	if e.Done() {
		t.Error("forever script should still be running at timeout")
	}
}

func TestRunHeadlessCancellation(t *testing.T) {
	e := headlessEngine(t, map[string]*block.Block{
		"hat":  {Opcode: "event_whenflagclicked", Next: "loop", TopLevel: true},
		"loop": {Opcode: "control_forever", Parent: "hat", Inputs: map[string]block.Input{"SUBSTACK": {Block: "move"}}},
		"move": {Opcode: "motion_movesteps", Parent: "loop",
			Inputs: map[string]block.Input{"STEPS": {Value: float64(1)}}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	if err := RunHeadless(ctx, e); err != context.Canceled {
		t.Errorf("RunHeadless error = %v, want context.Canceled", err)
	}
}

func TestStageToScreen(t *testing.T) {
	tests := []struct {
		x, y   float64
		sx, sy float64
	}{
		{0, 0, ScreenWidth / 2, ScreenHeight / 2},
		{100, 50, ScreenWidth/2 + 100, ScreenHeight/2 - 50},
		{-240, -180, 0, ScreenHeight},
	}
	for _, tt := range tests {
		sx, sy := stageToScreen(tt.x, tt.y)
		if sx != tt.sx || sy != tt.sy {
			t.Errorf("stageToScreen(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, sx, sy, tt.sx, tt.sy)
		}
	}
}

func TestNewSynthAudioRejectsBadData(t *testing.T) {
	if _, err := NewSynthAudio([]byte("not a soundfont")); err == nil {
		t.Error("NewSynthAudio should reject junk data")
	}
}
