package engine

import (
	"math"
	"strings"
	"time"

	"github.com/zurustar/karakuri/pkg/block"
	"github.com/zurustar/karakuri/pkg/thread"
)

// execute runs the thread's current block once. Input resolution may
// instead push a child reporter frame and return; the reporter then
// executes as the next chain head and delivers its value before the
// block is tried again.
func (e *Engine) execute(th *thread.Thread) {
	f := th.PeekFrame()
	assert(f != nil && f.BlockID != "", "execute without a current block")

	blk := th.Target().Blocks.BlockByID(f.BlockID)
	if blk == nil {
		e.logger.Warn("unknown block", "block", f.BlockID, "target", th.Target().Name)
		return
	}
	th.SetGlowBlock(f.BlockID)

	args, ready := e.resolveInputs(th, f, blk)
	if !ready {
		return
	}
	// The block has every operand in hand; the cache is spent. Loop
	// blocks re-collect their inputs on the next iteration.
	f.Reported = nil
	e.executeOp(th, f, blk, args)
}

// resolveInputs gathers the block's operand values in deterministic
// order. Literals coerce directly; a block-reference input is served
// from the frame's reported map when a child already delivered it, and
// otherwise starts the child reporter and reports not-ready.
func (e *Engine) resolveInputs(th *thread.Thread, f *thread.Frame, blk *block.Block) (map[string]any, bool) {
	args := make(map[string]any, len(blk.Inputs))
	for _, name := range blk.InputOrder() {
		if strings.HasPrefix(name, "SUBSTACK") {
			continue
		}
		in := blk.Inputs[name]
		if !in.IsBlock() {
			args[name] = in.Value
			continue
		}
		if f.Reported != nil {
			if v, ok := f.Reported[name]; ok {
				args[name] = v
				continue
			}
		}
		f.WaitingReporter = name
		th.Push(in.Block)
		return nil, false
	}
	return args, true
}

// finishReporter delivers a reporter's value to the waiting parent and
// retires the reporter's frame.
func (e *Engine) finishReporter(th *thread.Thread, value any) {
	th.PushReportedValue(value)
	th.Pop()
}

// startBranch enters the n-th branch of the current block, or yields
// when the branch is empty so an empty loop still paces one iteration
// per step.
func (e *Engine) startBranch(th *thread.Thread, f *thread.Frame, n int) {
	branch := th.Target().Blocks.BranchOf(f.BlockID, n)
	if branch == "" {
		if f.IsLoop {
			th.SetStatus(thread.StatusYield)
		}
		return
	}
	th.Push(branch)
}

// executeOp dispatches one block. Unknown opcodes are logged no-ops so
// a damaged or foreign graph degrades instead of stopping the show.
func (e *Engine) executeOp(th *thread.Thread, f *thread.Frame, blk *block.Block, args map[string]any) {
	tgt := th.Target()

	switch blk.Opcode {

	// Hats anchor scripts; stepping one is a no-op.
	case "event_whenflagclicked", "event_whenbroadcastreceived", "procedures_definition":

	case "control_wait":
		ctx := f.Context()
		deadline, ok := ctx["deadline"].(time.Time)
		if !ok {
			secs := toNumber(args["SECS"])
			deadline = time.Now().Add(time.Duration(secs * float64(time.Second)))
			ctx["deadline"] = deadline
		}
		if time.Now().Before(deadline) {
			th.SetStatus(thread.StatusYield)
		}

	case "control_repeat":
		ctx := f.Context()
		remaining, ok := ctx["remaining"].(int64)
		if !ok {
			remaining, _ = toInt64(args["TIMES"])
			if remaining < 0 {
				remaining = 0
			}
		}
		if remaining > 0 {
			ctx["remaining"] = remaining - 1
			f.IsLoop = true
			e.startBranch(th, f, 1)
		}

	case "control_forever":
		f.IsLoop = true
		e.startBranch(th, f, 1)

	case "control_repeat_until":
		if !toBool(args["CONDITION"]) {
			f.IsLoop = true
			e.startBranch(th, f, 1)
		}

	case "control_if":
		if toBool(args["CONDITION"]) {
			e.startBranch(th, f, 1)
		}

	case "control_if_else":
		if toBool(args["CONDITION"]) {
			e.startBranch(th, f, 1)
		} else {
			e.startBranch(th, f, 2)
		}

	case "control_stop":
		switch opt := blk.Field("STOP_OPTION"); opt {
		case "all":
			e.StopAll()
		case "other scripts in sprite":
			e.stopOtherThreads(th)
		default: // "this script"
			th.StopThisScript()
		}

	case "control_broadcast":
		e.Broadcast(blk.Field("BROADCAST_OPTION"))

	case "control_broadcastandwait":
		ctx := f.Context()
		started, ok := ctx["receivers"].([]*thread.Thread)
		if !ok {
			started = e.Broadcast(blk.Field("BROADCAST_OPTION"))
			if th.Status() == thread.StatusDone {
				// The message restarted this very script: the
				// broadcast killed th and its replacement runs from
				// the top. Nothing left to wait for here.
				return
			}
			ctx["receivers"] = started
		}
		for _, rc := range started {
			if rc != th && rc.Status() != thread.StatusDone {
				th.SetStatus(thread.StatusYield)
				return
			}
		}

	case "data_setvariableto":
		tgt.SetVariable(blk.Field("VARIABLE"), args["VALUE"])

	case "data_changevariableby":
		name := blk.Field("VARIABLE")
		cur, _ := tgt.Variable(name)
		tgt.SetVariable(name, toNumber(cur)+toNumber(args["VALUE"]))

	case "data_variable":
		v, ok := tgt.Variable(blk.Field("VARIABLE"))
		if !ok {
			v = float64(0)
		}
		e.finishReporter(th, v)

	case "operator_add":
		e.finishReporter(th, toNumber(args["NUM1"])+toNumber(args["NUM2"]))
	case "operator_subtract":
		e.finishReporter(th, toNumber(args["NUM1"])-toNumber(args["NUM2"]))
	case "operator_multiply":
		e.finishReporter(th, toNumber(args["NUM1"])*toNumber(args["NUM2"]))
	case "operator_divide":
		e.finishReporter(th, toNumber(args["NUM1"])/toNumber(args["NUM2"]))
	case "operator_equals":
		e.finishReporter(th, compareValues(args["OPERAND1"], args["OPERAND2"]) == 0)
	case "operator_gt":
		e.finishReporter(th, compareValues(args["OPERAND1"], args["OPERAND2"]) > 0)
	case "operator_lt":
		e.finishReporter(th, compareValues(args["OPERAND1"], args["OPERAND2"]) < 0)
	case "operator_and":
		e.finishReporter(th, toBool(args["OPERAND1"]) && toBool(args["OPERAND2"]))
	case "operator_or":
		e.finishReporter(th, toBool(args["OPERAND1"]) || toBool(args["OPERAND2"]))
	case "operator_not":
		e.finishReporter(th, !toBool(args["OPERAND"]))
	case "operator_random":
		e.finishReporter(th, e.pickRandom(args["FROM"], args["TO"]))
	case "operator_join":
		e.finishReporter(th, toString(args["STRING1"])+toString(args["STRING2"]))

	case "motion_movesteps":
		tgt.MoveSteps(toNumber(args["STEPS"]))
		th.RequestGlow()
	case "motion_turnright":
		tgt.Turn(toNumber(args["DEGREES"]))
		th.RequestGlow()
	case "motion_turnleft":
		tgt.Turn(-toNumber(args["DEGREES"]))
		th.RequestGlow()
	case "motion_gotoxy":
		tgt.GoTo(toNumber(args["X"]), toNumber(args["Y"]))
		th.RequestGlow()

	case "looks_say":
		tgt.SayText = toString(args["MESSAGE"])
		th.RequestGlow()

	case "looks_sayforsecs":
		tgt.SayText = toString(args["MESSAGE"])
		th.RequestGlow()
		secs := toNumber(args["SECS"])
		e.schedule(th, time.Duration(secs*float64(time.Second)), func() {
			tgt.SayText = ""
		})
		th.SetStatus(thread.StatusPromiseWait)

	case "looks_show":
		tgt.Visible = true
		th.RequestGlow()
	case "looks_hide":
		tgt.Visible = false
		th.RequestGlow()

	case "sound_playnote":
		key, _ := toInt64(args["NOTE"])
		beats := toNumber(args["BEATS"])
		dur := time.Duration(beats * float64(time.Minute) / float64(e.tempo))
		if err := e.audio.PlayNote(int(key), dur); err != nil {
			e.logger.Warn("note failed", "key", key, "err", err)
		}
		e.schedule(th, dur, nil)
		th.SetStatus(thread.StatusPromiseWait)

	case "procedures_call":
		e.callProcedure(th, blk, args)

	case "argument_reporter_string_number":
		v, ok := th.GetParam(blk.Field("VALUE"))
		if !ok {
			v = ""
		}
		e.finishReporter(th, v)

	default:
		e.logger.Warn("unknown opcode", "opcode", blk.Opcode, "block", f.BlockID)
	}
}

// callProcedure enters a user-defined procedure: push its definition
// frame, register the activation, and bind the arguments. Recursive
// and unknown calls are refused as logged no-ops so the chain cannot
// grow without bound.
func (e *Engine) callProcedure(th *thread.Thread, blk *block.Block, args map[string]any) {
	if blk.Mutation == nil || blk.Mutation.ProcCode == "" {
		e.logger.Warn("procedure call without proccode", "block", th.PeekBlockID())
		return
	}
	code := blk.Mutation.ProcCode

	if th.IsRecursiveCall(code) {
		e.logger.Warn("recursive call refused", "proccode", code, "target", th.Target().Name)
		return
	}
	defID := th.Target().Blocks.ProcedureDefinition(code)
	if defID == "" {
		e.logger.Warn("call to unknown procedure", "proccode", code, "target", th.Target().Name)
		return
	}

	th.Push(defID)
	th.MarkProcedureCall(code)

	def := th.Target().Blocks.BlockByID(defID)
	if def.Mutation != nil {
		if def.Mutation.Warp {
			th.PeekFrame().WarpMode = true
		}
		for _, name := range def.Mutation.ArgumentNames {
			th.SetParam(name, args[name])
		}
	}
}

// pickRandom draws a value in [from, to]. When both bounds read as
// whole numbers the result is a whole number too.
func (e *Engine) pickRandom(from, to any) any {
	lo, hi := toNumber(from), toNumber(to)
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == math.Trunc(lo) && hi == math.Trunc(hi) {
		return lo + float64(e.random.Int64N(int64(hi-lo)+1))
	}
	return lo + e.random.Float64()*(hi-lo)
}
