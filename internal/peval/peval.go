// Package peval implements component C5, the partial evaluator: a
// small-step abstract machine that walks every lowered MIR block, folds
// pure computation whose operands are statically known, and rewrites
// the block to the simplified statement/branch sequence that survives
// (spec §4.5).
//
// Grounded on the teacher's evaluator environment shape
// (internal/eval/env.go, eval_evaluator.go: recursive evaluation over an
// explicit Environment) and on
// other_examples/5e0cc035_oisee-minz-minzc-pkg-interpreter-mir_interpreter.go.go's
// "step a MIR instruction list with an explicit program counter" shape,
// generalized to the spec's Frame/Place abstract machine: rather than
// producing a runtime result, each Frame accumulates the rewritten
// statement list a function body reduces to once everything foldable has
// been folded.
package peval

import (
	"fmt"

	"github.com/zc-lang/zc/internal/ast"
	"github.com/zc-lang/zc/internal/diag"
	"github.com/zc-lang/zc/internal/mir"
	"github.com/zc-lang/zc/internal/names"
)

// Phase distinguishes the two sub-steps of reducing one statement: first
// its operands are resolved (Execute), then its result is bound into the
// environment and the rewritten output (Bind). Frame does not record a
// Phase: step performs both sub-steps of a statement in one call, except
// that an Apply entered as a callee Frame is bound later, by resumeCall,
// once the callee returns (spec §4.5 "Step").
type Phase int

const (
	PhaseExecute Phase = iota
	PhaseBind
)

// Place names where within a Frame's block execution currently sits
// (spec §4.5 "Frame ... place"): either part way through the statement
// list, at index Index, or already at the terminating Branch.
type Place struct {
	AtBranch bool
	Index    int
}

// Frame is one activation of a block under evaluation: its statement
// cursor, its environment, and the rewritten statements accumulated so
// far for the statements already passed over (spec §4.5 "Frame").
type Frame struct {
	id    uint64
	block *mir.Block
	env   *Env
	place Place

	rewritten []mir.Statement
}

// Action tells the driver what to do after one Step: continue within the
// same frame, push a new frame for a callee, or pop back to the caller
// with the callee's folded or residual results.
type Action int

const (
	ActionContinue Action = iota
	ActionCall
	ActionReturn
)

// stepResult is the outcome of one Step call.
type stepResult struct {
	action Action
	callee *Frame   // when action == ActionCall
	values []Value  // when action == ActionReturn
}

// Evaluator drives partial evaluation across every top-level definition.
type Evaluator struct {
	Defs  map[names.Name]*mir.ValueDef
	Names *names.Store
	Sink  diag.Sink

	nextFrame uint64
}

// NewEvaluator builds an Evaluator over decls, indexing every definition
// by name for Apply-to-global resolution.
func NewEvaluator(decls *mir.Decls, ns *names.Store, sink diag.Sink) *Evaluator {
	defs := make(map[names.Name]*mir.ValueDef, len(decls.Values))
	for i := range decls.Values {
		defs[decls.Values[i].Name] = &decls.Values[i]
	}
	return &Evaluator{Defs: defs, Names: ns, Sink: sink}
}

func (e *Evaluator) newFrameID() uint64 {
	e.nextFrame++
	return e.nextFrame
}

// Run partially evaluates every top-level definition's body into a new
// Decls, leaving decls unchanged, and returns it (spec §4.5 "Output: ... a rewritten
// block for every top-level definition").
func (e *Evaluator) Run(decls *mir.Decls) *mir.Decls {
	globals := NewEnv()
	for name := range e.Defs {
		globals.Set(name, FunctionRef{Target: name})
	}
	out := make([]mir.ValueDef, len(decls.Values))
	for i, vd := range decls.Values {
		out[i] = vd
		out[i].Body = e.evalBlock(vd.Body, globals.Child())
	}
	return &mir.Decls{Values: out}
}

// evalBlock drives a single block to completion: a root Frame for it,
// stepped until it reaches ActionReturn with no caller to return to.
func (e *Evaluator) evalBlock(block *mir.Block, env *Env) *mir.Block {
	root := &Frame{id: e.newFrameID(), block: block, env: env}
	stack := []*Frame{root}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		res := e.step(top)
		switch res.action {
		case ActionContinue:
			// top mutated in place; keep driving it.
		case ActionCall:
			stack = append(stack, res.callee)
		case ActionReturn:
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return &mir.Block{Statements: top.rewritten, Branch: finalBranch(top, res.values)}
			}
			caller := stack[len(stack)-1]
			e.resumeCall(caller, top, res.values)
		}
	}
	return block
}

// finalBranch rebuilds the root frame's terminating branch from its
// folded result values, preserving the original branch's span/type via
// whatever it already reduced to during the Bind phase of the last
// statement processed.
func finalBranch(f *Frame, values []Value) mir.Branch {
	switch br := f.block.Branch.(type) {
	case mir.Return:
		return mir.Return{Base: br.Base, Values: valuesToMIR(values, br.Values)}
	case mir.Jump:
		// Jump is a documented TODO (spec §4.5/§9): the branch survives
		// unevaluated rather than being folded.
		return br
	default:
		return f.block.Branch
	}
}

// step advances frame by exactly one statement or its branch, returning
// what the driver should do next. This is the machine's Step function
// (spec §4.5): Execute resolves a statement's operands from the
// environment, Bind records its result and advances place.
func (e *Evaluator) step(f *Frame) stepResult {
	if f.place.Index >= len(f.block.Statements) {
		f.place.AtBranch = true
		return e.stepBranch(f)
	}
	stmt := f.block.Statements[f.place.Index]
	switch s := stmt.(type) {
	case mir.Tuple:
		vals := e.evalOperands(f, s.Values)
		f.env.Set(s.Name, AggregateStatic{Elems: vals})
		f.rewritten = append(f.rewritten, mir.Tuple{Base: s.Base, Name: s.Name, Values: valuesToMIR(vals, s.Values)})
		f.place.Index++
		return stepResult{action: ActionContinue}

	case mir.Proj:
		of := e.evalValue(f, s.Of)
		if agg, ok := of.(AggregateStatic); ok && s.At < len(agg.Elems) {
			f.env.Set(s.Name, agg.Elems[s.At])
			f.place.Index++
			return stepResult{action: ActionContinue}
		}
		f.env.Set(s.Name, Dynamic{Symbolic: mir.NameRef{Name: s.Name}})
		f.rewritten = append(f.rewritten, mir.Proj{Base: s.Base, Name: s.Name, Of: toMIRValue(of, s.Of), At: s.At})
		f.place.Index++
		return stepResult{action: ActionContinue}

	case mir.Coerce:
		v := e.evalValue(f, s.From)
		f.env.Set(s.Name, v)
		f.rewritten = append(f.rewritten, mir.Coerce{Base: s.Base, Name: s.Name, From: toMIRValue(v, s.From), State: s.State})
		f.place.Index++
		return stepResult{action: ActionContinue}

	case mir.Function:
		f.env.Set(s.Name, FunctionRef{Target: s.Name})
		folded := e.evalBlock(s.Body, f.env.Child())
		f.rewritten = append(f.rewritten, mir.Function{Base: s.Base, Name: s.Name, Params: s.Params, ReturnArity: s.ReturnArity, Body: folded, Pure: s.Pure})
		f.place.Index++
		return stepResult{action: ActionContinue}

	case mir.Join:
		f.rewritten = append(f.rewritten, s)
		f.place.Index++
		return stepResult{action: ActionContinue}

	case mir.Apply:
		return e.stepApply(f, s)

	default:
		f.place.Index++
		return stepResult{action: ActionContinue}
	}
}

// stepApply is the one reduction rule with a real decision to make: a
// call to a known pure function with every argument statically known is
// entered as a callee Frame bound to those concrete arguments (spec
// §4.5 "pure function pre-evaluation"); everything else survives as a
// residual Apply statement.
func (e *Evaluator) stepApply(f *Frame, s mir.Apply) stepResult {
	fn := e.evalValue(f, s.Fun)
	args := e.evalOperands(f, s.Args)

	ref, isFn := fn.(FunctionRef)
	def, known := e.Defs[ref.Target]
	if isFn && known && def.Pure && allStatic(args) {
		callee := &Frame{id: e.newFrameID(), block: def.Body, env: callEnv(def.Params, args)}
		f.place.Index++ // resume past this Apply once the callee returns
		return stepResult{action: ActionCall, callee: callee}
	}

	for _, n := range s.Names {
		f.env.Set(n, Dynamic{Symbolic: mir.NameRef{Name: n}})
	}
	f.rewritten = append(f.rewritten, mir.Apply{Base: s.Base, Names: s.Names, Fun: toMIRValue(fn, s.Fun), Args: valuesToMIR(args, s.Args)})
	f.place.Index++
	return stepResult{action: ActionContinue}
}

// resumeCall binds a returned callee's folded result values to the
// caller's pending Apply destination names, folding the call away
// entirely when the callee returned statics, or reinstating a residual
// Apply otherwise (spec §4.5: calls that cannot be fully reduced still
// surface, but with their arguments simplified as far as possible).
func (e *Evaluator) resumeCall(caller, callee *Frame, values []Value) {
	applyIdx := caller.place.Index - 1
	apply, ok := caller.block.Statements[applyIdx].(mir.Apply)
	if !ok {
		return
	}
	if allStatic(values) {
		for i, n := range apply.Names {
			if i < len(values) {
				caller.env.Set(n, values[i])
			}
		}
		return
	}
	for _, n := range apply.Names {
		caller.env.Set(n, Dynamic{Symbolic: mir.NameRef{Name: n}})
	}
	caller.rewritten = append(caller.rewritten, apply)
}

func callEnv(params []names.Name, args []Value) *Env {
	env := NewEnv()
	for i, p := range params {
		if i < len(args) {
			env.Set(p, args[i])
		}
	}
	return env
}

func allStatic(vs []Value) bool {
	for _, v := range vs {
		switch v.(type) {
		case Static, AggregateStatic:
		default:
			return false
		}
	}
	return true
}

func (e *Evaluator) stepBranch(f *Frame) stepResult {
	switch br := f.block.Branch.(type) {
	case mir.Return:
		return stepResult{action: ActionReturn, values: e.evalOperands(f, br.Values)}
	case mir.Jump:
		// Reaching a Jump is a documented limitation (spec §4.5, §9): the
		// evaluator cannot yet fold loops expressed via Join/Jump. Report
		// it and fall through treating the frame as returning nothing,
		// rather than looping or panicking.
		e.Sink.Add(&diag.Report{
			Schema:   "zc.diag/v1",
			Code:     diag.PEV001,
			Kind:     diag.KindInternalAssertion,
			Severity: diag.SeverityWarning,
			Phase:    "peval",
			Title:    "jump not evaluated",
			Message:  fmt.Sprintf("partial evaluator does not yet reduce Jump to %v; block left unfolded past this point", br.Label),
			Span:     spanOf(br),
		})
		return stepResult{action: ActionReturn, values: nil}
	default:
		return stepResult{action: ActionReturn, values: nil}
	}
}

func spanOf(br mir.Branch) *ast.Span {
	s := br.Span()
	return &s
}

func (e *Evaluator) evalOperands(f *Frame, vs []mir.Value) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = e.evalValue(f, v)
	}
	return out
}

// evalValue resolves a MIR operand to an abstract Value under f's
// environment: a literal is always static, a name reference looks up
// whatever the environment currently holds for it (static if folded so
// far, dynamic otherwise).
func (e *Evaluator) evalValue(f *Frame, v mir.Value) Value {
	switch v := v.(type) {
	case mir.Lit:
		return Static{Val: v.Val, Origin: f.id}
	case mir.NameRef:
		if val, ok := f.env.Get(v.Name); ok {
			return val
		}
		return Dynamic{Symbolic: v}
	case mir.Invalid:
		return Dynamic{Symbolic: v}
	default:
		return Dynamic{Symbolic: v}
	}
}

// toMIRValue renders an abstract Value back into a MIR operand for the
// rewritten statement list: a Static becomes a literal, everything else
// falls back to the original operand (an aggregate has no single-operand
// MIR form; its consuming Proj already folded directly in step).
func toMIRValue(v Value, original mir.Value) mir.Value {
	if s, ok := v.(Static); ok {
		return mir.Lit{Val: s.Val}
	}
	return original
}

func valuesToMIR(vs []Value, originals []mir.Value) []mir.Value {
	out := make([]mir.Value, len(vs))
	for i, v := range vs {
		orig := mir.Value(mir.Invalid{})
		if i < len(originals) {
			orig = originals[i]
		}
		out[i] = toMIRValue(v, orig)
	}
	return out
}
