package cel

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// Bindings supplies parameter values to a running program (spec §6).
// A nil Bindings is equivalent to an empty one.
type Bindings map[string]CelValue

func (b Bindings) lookup(name string) (CelValue, bool) {
	if b == nil {
		return CelValue{}, false
	}
	v, ok := b[name]
	return v, ok
}

// Function is a host-bound callable registered via BindContext.BindFunc.
// args excludes the receiver; when the function was bound with a
// receiver type, recv carries it, otherwise recv.Kind == KindNull.
type Function func(recv CelValue, args []CelValue) CelValue

// Macro receives its arguments as compiled-but-unevaluated Programs
// (and, for receiver-bound macros, the compiled receiver Program),
// giving it control over if/how/how-many-times each is evaluated
// (spec §4.6). eval lets a Macro recursively evaluate a sub-Program
// against bindings it constructs itself (e.g. the loop variable of
// `filter`/`map`/`reduce`).
type Macro func(m *macroCall) CelValue

// macroCall is the evaluation handle passed to a Macro implementation.
type macroCall struct {
	ctx      context.Context
	receiver *Program
	args     []*Program
	bindings Bindings
	funcs    *funcRegistry
	macros   map[string]Macro
	stepCap  int
	steps    *int
}

// eval runs prog against bindings (which may extend mc.bindings with
// extra loop-variable bindings) and returns its result.
func (mc *macroCall) eval(prog *Program, bindings Bindings) CelValue {
	it := &interp{ctx: mc.ctx, bindings: bindings, funcs: mc.funcs, macros: mc.macros, stepCap: mc.stepCap}
	v, err := it.run(prog)
	*mc.steps += it.steps
	if err != nil {
		return ErrValue(NewRuntimeError("%s", err))
	}
	return v
}

// merged returns mc.bindings extended with one extra name->value pair,
// without mutating mc.bindings.
func (mc *macroCall) merged(name string, v CelValue) Bindings {
	out := make(Bindings, len(mc.bindings)+1)
	for k, val := range mc.bindings {
		out[k] = val
	}
	out[name] = v
	return out
}

// identName extracts the bare identifier name a loop-variable argument
// Program denotes, e.g. the `x` in `list.filter(x, x > 2)`, from its
// AST when present, else from its code (a single LOAD), so a Program
// restored by Deserialize works too. Returns an error if the argument
// isn't a bare identifier.
func identName(p *Program) (string, error) {
	if id, ok := p.AST.(*IdentNode); ok {
		return id.Name, nil
	}
	if len(p.Code) == 1 {
		if ld, ok := p.Code[0].(LoadInst); ok {
			return ld.Name, nil
		}
	}
	return "", NewArgumentError("expected a bare identifier")
}

// BindContext accumulates parameter bindings and host extensions
// (functions, macros, Dyn type names) before programs run against it
// (spec §6). Ground: teacher's api.go Config accumulator shape.
type BindContext struct {
	log    logr.Logger
	funcs  *funcRegistry
	macros map[string]Macro
	types  map[string]bool

	programs map[string]*Program
}

// NewBindContext returns a BindContext pre-loaded with every built-in
// function and macro (spec §4.5-4.7); callers add their own on top.
func NewBindContext() *BindContext {
	return &BindContext{
		log:      logr.Discard(),
		funcs:    newFuncRegistry(),
		macros:   builtinMacros(),
		types:    map[string]bool{},
		programs: map[string]*Program{},
	}
}

// WithLogger returns a copy of bc that logs through l (spec §7 ambient
// logging; default is logr.Discard()).
func (bc *BindContext) WithLogger(l logr.Logger) *BindContext {
	cp := *bc
	cp.log = l
	return &cp
}

// BindFunc registers a host function under name for the given argument
// kinds (receiver excluded; pass hasReceiver true to make it callable
// as recv.name(args...) on a receiver of any kind, passed as recv).
func (bc *BindContext) BindFunc(name string, argKinds []ValueKind, hasReceiver bool, fn Function) {
	bc.funcs.register(name, argKinds, hasReceiver, fn)
}

// BindMacro registers a host macro under name, overriding any built-in
// of the same name.
func (bc *BindContext) BindMacro(name string, m Macro) {
	bc.macros[name] = m
}

// BindType records a Dyn type name on bc. Evaluation does not consult
// the recorded names: `type()` reports a value's TypeName either way,
// and the grammar has no type-name literals.
func (bc *BindContext) BindType(name string) {
	bc.types[name] = true
}

// FromSource lexes, parses, and compiles source into a named Program
// retained on bc, ready for Exec.
func (bc *BindContext) FromSource(name, source string) error {
	prog, err := ParseProgram(source)
	if err != nil {
		return err
	}
	bc.programs[name] = prog
	return nil
}

// AddProgram retains an already-compiled Program under name.
func (bc *BindContext) AddProgram(name string, prog *Program) {
	bc.programs[name] = prog
}

// defaultStepLimit bounds the number of instructions a single Exec call may
// execute before failing with Err::Runtime, guarding against
// pathological or hostile expressions (spec §7 ambient config).
const defaultStepLimit = 10_000_000

// Exec runs the named program to completion, verifying first that
// every free identifier it reads has a binding (spec §6).
func (bc *BindContext) Exec(ctx context.Context, name string, bindings Bindings) (CelValue, error) {
	prog, ok := bc.programs[name]
	if !ok {
		return CelValue{}, fmt.Errorf("cel: no program named %q", name)
	}
	for _, id := range prog.FreeIdents {
		if _, ok := bindings[id]; !ok {
			return CelValue{}, fmt.Errorf("cel: unbound identifier %q required by program %q", id, name)
		}
	}
	bc.log.V(1).Info("exec", "program", name, "instructions", len(prog.Code))
	it := &interp{ctx: ctx, bindings: bindings, funcs: bc.funcs, macros: bc.macros, stepCap: defaultStepLimit}
	v, err := it.run(prog)
	if err != nil {
		bc.log.V(1).Error(err, "exec failed", "program", name)
		return CelValue{}, err
	}
	return v, nil
}

// ParseProgram is the full front-to-back pipeline: lex, parse, compile.
func ParseProgram(source string) (*Program, error) {
	p := newParser(newTokenizer(source))
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		tok := p.peekTok()
		return nil, NewSyntaxError(tok.Range, "unexpected trailing token %s", tok)
	}
	return Compile(root, source)
}

// call dispatches a CallInst against the current binding environment:
// if Func names a registered Macro, it runs unevaluated (owning its own
// evaluation schedule over ArgProgs/Receiver); otherwise Func must name
// a registered Function, whose receiver and each argument are
// evaluated once, in order, before dispatch (spec §4.3/§9). This
// resolution happens here, at run time, rather than in the compiler,
// so a Macro registered under a new name via BindContext.BindMacro
// (spec §6) is dispatched exactly like a built-in one.
func (it *interp) call(inst CallInst, st *stack) (CelValue, error) {
	if m, ok := it.macros[inst.Func]; ok {
		steps := 0
		mc := &macroCall{
			ctx:      it.ctx,
			receiver: inst.Receiver,
			args:     inst.ArgProgs,
			bindings: it.bindings,
			funcs:    it.funcs,
			macros:   it.macros,
			stepCap:  it.stepCap - it.steps,
			steps:    &steps,
		}
		result := m(mc)
		it.steps += steps
		return result, nil
	}

	var recv CelValue = NullValue()
	if inst.HasReceiver {
		v, err := it.evalSub(inst.Receiver)
		if err != nil {
			return CelValue{}, err
		}
		if v.IsErr() {
			return v, nil
		}
		recv = v
	}
	args := make([]CelValue, len(inst.ArgProgs))
	for i, p := range inst.ArgProgs {
		v, err := it.evalSub(p)
		if err != nil {
			return CelValue{}, err
		}
		if v.IsErr() {
			return v, nil
		}
		args[i] = v
	}

	fn, err := it.funcs.resolve(inst.Func, recv, inst.HasReceiver, args)
	if err != nil {
		return ErrValue(err), nil
	}
	return fn(recv, args), nil
}

// evalSub runs prog (a compiled receiver/argument sub-Program) against
// the caller's current bindings, in a fresh sub-interpreter that shares
// the step budget, and folds its step count back into it.
func (it *interp) evalSub(prog *Program) (CelValue, error) {
	sub := &interp{ctx: it.ctx, bindings: it.bindings, funcs: it.funcs, macros: it.macros, stepCap: it.stepCap - it.steps}
	v, err := sub.run(prog)
	it.steps += sub.steps
	return v, err
}
