package thread

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/karakuri/pkg/block"
	"github.com/zurustar/karakuri/pkg/target"
)

func newTestTarget(blocks map[string]*block.Block) *target.Target {
	return target.New("test", false, block.NewContainer(blocks))
}

func newTestThread(blocks map[string]*block.Block) *Thread {
	return NewThread("top", newTestTarget(blocks))
}

func TestFrameChainProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("push then pop restores the chain", prop.ForAll(
		func(blockID string, initialDepth int) bool {
			th := newTestThread(nil)
			for i := 0; i < initialDepth; i++ {
				th.Push(fmt.Sprintf("b%d", i))
			}
			beforeDepth := th.Depth()
			beforeBlock := th.PeekBlockID()

			th.Push(blockID)
			popped := th.Pop()

			return popped.BlockID == blockID &&
				th.Depth() == beforeDepth &&
				th.PeekBlockID() == beforeBlock
		},
		gen.Identifier(), gen.IntRange(0, 100),
	))

	properties.Property("registry length equals activation frames on the chain", prop.ForAll(
		func(depth int, markEvery int) bool {
			th := newTestThread(nil)
			marked := 0
			for i := 0; i < depth; i++ {
				th.Push(fmt.Sprintf("b%d", i))
				if i%markEvery == 0 {
					th.MarkProcedureCall(fmt.Sprintf("proc%d", i))
					marked++
				}
			}
			if len(th.ActiveProcedures()) != marked {
				return false
			}
			// Popping everything must drain the registry in lockstep.
			for th.Depth() > 0 {
				f := th.Pop()
				if f.ProcedureCode != "" {
					marked--
				}
				if len(th.ActiveProcedures()) != marked {
					return false
				}
			}
			return marked == 0
		},
		gen.IntRange(1, 60), gen.IntRange(1, 5),
	))

	properties.Property("pushed frames inherit warp mode from the parent", prop.ForAll(
		func(before int, after int) bool {
			th := newTestThread(nil)
			for i := 0; i < before; i++ {
				th.Push(fmt.Sprintf("plain%d", i))
				if th.PeekFrame().WarpMode {
					return false
				}
			}
			th.Push("warped")
			th.PeekFrame().WarpMode = true
			for i := 0; i < after; i++ {
				th.Push(fmt.Sprintf("inner%d", i))
				if !th.PeekFrame().WarpMode {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 30), gen.IntRange(1, 30),
	))

	properties.Property("advancing clears per-block state and keeps warp mode", prop.ForAll(
		func(warp bool, key string) bool {
			th := newTestThread(map[string]*block.Block{
				"a": {Opcode: "x", Next: "b"},
				"b": {Opcode: "y"},
			})
			th.Push("a")
			f := th.PeekFrame()
			f.WarpMode = warp
			f.IsLoop = true
			f.Reported = map[string]any{key: 1}
			f.WaitingReporter = key
			f.Params = map[string]any{key: 2}
			f.ExecutionContext = map[string]any{key: 3}

			th.GoToNextBlock()

			return f.BlockID == "b" &&
				f.WarpMode == warp &&
				!f.IsLoop &&
				f.Reported == nil &&
				f.WaitingReporter == "" &&
				f.Params == nil &&
				f.ExecutionContext == nil
		},
		gen.Bool(), gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestScopedAccessProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("getParam finds the innermost binding through unbound frames", prop.ForAll(
		func(name string, outer int, inner int, gap int) bool {
			th := newTestThread(nil)
			th.Push("call")
			th.SetParam(name, outer)
			for i := 0; i < gap; i++ {
				th.Push(fmt.Sprintf("gap%d", i))
			}
			if v, ok := th.GetParam(name); !ok || v != outer {
				return false
			}
			th.Push("inner")
			th.SetParam(name, inner)
			if v, ok := th.GetParam(name); !ok || v != inner {
				return false
			}
			_, ok := th.GetParam(name + "_missing")
			return !ok
		},
		gen.Identifier(), gen.Int(), gen.Int(), gen.IntRange(0, 20),
	))

	properties.Property("reported values land under the parent's waiting key", prop.ForAll(
		func(inputID string, value int) bool {
			th := newTestThread(nil)
			th.Push("stackblock")
			parent := th.PeekFrame()
			th.Push("reporter")
			parent.WaitingReporter = inputID

			th.PushReportedValue(value)

			return parent.Reported[inputID] == value && parent.WaitingReporter == ""
		},
		gen.Identifier(), gen.Int(),
	))

	properties.Property("a report at the chain root is discarded", prop.ForAll(
		func(value int) bool {
			th := newTestThread(nil)
			th.Push("lonely")
			th.PushReportedValue(value)
			return th.PeekFrame().Reported == nil && th.Depth() == 1
		},
		gen.Int(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestStopAndRecursionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("stopThisScript unwinds to the activation frame inclusive", prop.ForAll(
		func(base int, bodyDepth int) bool {
			th := newTestThread(nil)
			for i := 0; i < base; i++ {
				th.Push(fmt.Sprintf("base%d", i))
			}
			th.Push("call")
			callDepth := th.Depth()
			th.Push("definition")
			th.MarkProcedureCall("greet")
			for i := 0; i < bodyDepth; i++ {
				th.Push(fmt.Sprintf("body%d", i))
			}

			th.StopThisScript()

			return th.Depth() == callDepth &&
				th.PeekBlockID() == "call" &&
				len(th.ActiveProcedures()) == 0 &&
				th.Status() == StatusRunning
		},
		gen.IntRange(0, 10), gen.IntRange(0, 10),
	))

	properties.Property("stopThisScript without an activation empties the chain", prop.ForAll(
		func(depth int) bool {
			th := newTestThread(nil)
			for i := 0; i < depth; i++ {
				th.Push(fmt.Sprintf("b%d", i))
			}
			th.RequestGlow()
			th.SetGlowBlock("b0")

			th.StopThisScript()

			return th.Depth() == 0 &&
				th.Status() == StatusDone &&
				!th.GlowRequested() &&
				th.GlowBlock() == ""
		},
		gen.IntRange(0, 20),
	))

	properties.Property("popping an inner activation leaves outer ones registered", prop.ForAll(
		func(gap int) bool {
			th := newTestThread(nil)
			th.Push("outer_def")
			th.MarkProcedureCall("outer")
			for i := 0; i < gap; i++ {
				th.Push(fmt.Sprintf("g%d", i))
			}
			th.Push("inner_def")
			th.MarkProcedureCall("inner")

			if !th.IsRecursiveCall("outer") || !th.IsRecursiveCall("inner") {
				return false
			}

			th.Pop()

			active := th.ActiveProcedures()
			return len(active) == 1 && active[0] == "outer" &&
				th.IsRecursiveCall("outer") && !th.IsRecursiveCall("inner")
		},
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
