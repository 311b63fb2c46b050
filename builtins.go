package cel

// overload is one registered signature of a named function: recvKind
// is the receiver's kind when hasReceiver is true (ignored otherwise),
// argKinds lists each positional argument's expected kind, and
// KindErr in either slot acts as a wildcard matching any value kind
// (used by polymorphic builtins like `string(x)` or `dyn(x)`).
type overload struct {
	hasReceiver bool
	recvKind    ValueKind
	argKinds    []ValueKind
	fn          Function
}

const wildcard ValueKind = KindErr

func kindMatches(want, got ValueKind) bool {
	return want == wildcard || want == got
}

// funcRegistry is the multi-arity, multi-receiver-type dispatch table
// described in spec §4.5: one name maps to any number of overloads,
// resolved by receiver presence/kind plus positional argument kinds.
type funcRegistry struct {
	overloads map[string][]overload
}

func newFuncRegistry() *funcRegistry {
	r := &funcRegistry{overloads: map[string][]overload{}}
	registerConversions(r)
	registerSize(r)
	registerStringFuncs(r)
	registerMathFuncs(r)
	registerTimeFuncs(r)
	registerSortFuncs(r)
	return r
}

func (r *funcRegistry) register(name string, argKinds []ValueKind, hasReceiver bool, fn Function) {
	r.overloads[name] = append(r.overloads[name], overload{
		hasReceiver: hasReceiver,
		recvKind:    wildcard,
		argKinds:    argKinds,
		fn:          fn,
	})
}

// registerMethod is register's convenience form for receiver-bound
// overloads, recording the expected receiver kind too.
func (r *funcRegistry) registerMethod(name string, recvKind ValueKind, argKinds []ValueKind, fn Function) {
	r.overloads[name] = append(r.overloads[name], overload{
		hasReceiver: true,
		recvKind:    recvKind,
		argKinds:    argKinds,
		fn:          fn,
	})
}

// resolve finds the overload of name matching the call shape, or an
// Err::Argument describing the mismatch (Err::Binding when no function
// of that name is registered at all). Dyn receivers/arguments match
// any declared kind: the host object is responsible for validating its
// own field/method access.
func (r *funcRegistry) resolve(name string, recv CelValue, hasReceiver bool, args []CelValue) (Function, *CelError) {
	cands, ok := r.overloads[name]
	if !ok {
		return nil, NewBindingError(name)
	}
	for _, c := range cands {
		if c.hasReceiver != hasReceiver {
			continue
		}
		if hasReceiver && recv.Kind != KindDyn && !kindMatches(c.recvKind, recv.Kind) {
			continue
		}
		if len(c.argKinds) != len(args) {
			continue
		}
		match := true
		for i, want := range c.argKinds {
			if args[i].Kind == KindDyn {
				continue
			}
			if !kindMatches(want, args[i].Kind) {
				match = false
				break
			}
		}
		if match {
			return c.fn, nil
		}
	}
	return nil, NewArgumentError("no overload of %q matches the given argument types", name)
}
