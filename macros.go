package cel

// builtinMacros returns the built-in macro table: has, coalesce,
// exists, exists_one, filter, map, reduce (spec §4.6). Each macro
// receives its arguments as unevaluated Programs so it can control
// whether/how many times each one runs -- the defining difference
// from ordinary function dispatch (spec §4.6/§8 property: macro
// argument laziness).
func builtinMacros() map[string]Macro {
	return map[string]Macro{
		"has":        macroHas,
		"coalesce":   macroCoalesce,
		"exists":     macroExists,
		"exists_one": macroExistsOne,
		"filter":     macroFilter,
		"map":        macroMap,
		"reduce":     macroReduce,
	}
}

// macroHas evaluates its single argument (a member/index expression)
// and reports whether it resolved without a recoverable Attribute or
// Binding error (spec §4.6). Any other error still propagates.
func macroHas(mc *macroCall) CelValue {
	v := mc.eval(mc.args[0], mc.bindings)
	if v.IsErr() {
		if v.AsErr().recoverable() {
			return BoolValue(false)
		}
		return v
	}
	return BoolValue(true)
}

// macroCoalesce evaluates each argument in order, returning the first
// one that is neither Null nor a recoverable error (spec §4.6, original
// `coalesce.rs`): a Null result is skipped, not returned, so
// `coalesce(null, 5)` yields `5`. A non-recoverable error short-circuits
// immediately. If every argument is Null or a recoverable error, Null
// is returned.
func macroCoalesce(mc *macroCall) CelValue {
	for _, arg := range mc.args {
		v := mc.eval(arg, mc.bindings)
		if v.IsErr() {
			if !v.AsErr().recoverable() {
				return v
			}
			continue
		}
		if v.IsNull() {
			continue
		}
		return v
	}
	return NullValue()
}

// iterableOf returns the elements to loop over for a comprehension
// macro: a List's values, or a Map's keys as CelValue strings.
func iterableOf(recv CelValue) ([]CelValue, CelValue) {
	switch recv.Kind {
	case KindList:
		return recv.AsList(), CelValue{}
	case KindMap:
		m := recv.AsMap()
		keys := make([]CelValue, 0, len(m))
		for k := range m {
			keys = append(keys, StringValue(k))
		}
		return keys, CelValue{}
	default:
		return nil, ErrValue(NewInvalidOpError("comprehension requires a list or map receiver, got %s", recv.TypeName()))
	}
}

// macroExists implements `recv.exists(x, pred)`: true if pred holds
// for at least one element, short-circuiting on the first match.
func macroExists(mc *macroCall) CelValue {
	recv := mc.eval(mc.receiver, mc.bindings)
	if recv.IsErr() {
		return recv
	}
	items, errv := iterableOf(recv)
	if errv.IsErr() {
		return errv
	}
	loopVar, err := identName(mc.args[0])
	if err != nil {
		return ErrValue(err.(*CelError))
	}
	for _, item := range items {
		r := mc.eval(mc.args[1], mc.merged(loopVar, item))
		if r.IsErr() {
			return r
		}
		if r.Kind == KindBool && r.AsBool() {
			return BoolValue(true)
		}
	}
	return BoolValue(false)
}

// macroExistsOne implements `recv.exists_one(x, pred)`: true iff
// exactly one element satisfies pred.
func macroExistsOne(mc *macroCall) CelValue {
	recv := mc.eval(mc.receiver, mc.bindings)
	if recv.IsErr() {
		return recv
	}
	items, errv := iterableOf(recv)
	if errv.IsErr() {
		return errv
	}
	loopVar, err := identName(mc.args[0])
	if err != nil {
		return ErrValue(err.(*CelError))
	}
	count := 0
	for _, item := range items {
		r := mc.eval(mc.args[1], mc.merged(loopVar, item))
		if r.IsErr() {
			return r
		}
		if r.Kind == KindBool && r.AsBool() {
			count++
		}
	}
	return BoolValue(count == 1)
}

// macroFilter implements `recv.filter(x, pred)`, returning the
// sublist of elements for which pred holds.
func macroFilter(mc *macroCall) CelValue {
	recv := mc.eval(mc.receiver, mc.bindings)
	if recv.IsErr() {
		return recv
	}
	items, errv := iterableOf(recv)
	if errv.IsErr() {
		return errv
	}
	loopVar, err := identName(mc.args[0])
	if err != nil {
		return ErrValue(err.(*CelError))
	}
	var out []CelValue
	for _, item := range items {
		r := mc.eval(mc.args[1], mc.merged(loopVar, item))
		if r.IsErr() {
			return r
		}
		if r.Kind != KindBool {
			return ErrValue(NewValueError("filter predicate must return bool, got %s", r.TypeName()))
		}
		if r.AsBool() {
			out = append(out, item)
		}
	}
	return ListValue(out)
}

// macroMap implements both `recv.map(x, transform)` and the 3-arg
// guarded form `recv.map(x, filter, transform)` (spec §4.6).
func macroMap(mc *macroCall) CelValue {
	recv := mc.eval(mc.receiver, mc.bindings)
	if recv.IsErr() {
		return recv
	}
	items, errv := iterableOf(recv)
	if errv.IsErr() {
		return errv
	}
	loopVar, err := identName(mc.args[0])
	if err != nil {
		return ErrValue(err.(*CelError))
	}

	var filterProg, transformProg *Program
	if len(mc.args) == 3 {
		filterProg = mc.args[1]
		transformProg = mc.args[2]
	} else {
		transformProg = mc.args[1]
	}

	var out []CelValue
	for _, item := range items {
		bindings := mc.merged(loopVar, item)
		if filterProg != nil {
			keep := mc.eval(filterProg, bindings)
			if keep.IsErr() {
				return keep
			}
			if keep.Kind != KindBool {
				return ErrValue(NewValueError("map filter must return bool, got %s", keep.TypeName()))
			}
			if !keep.AsBool() {
				continue
			}
		}
		r := mc.eval(transformProg, bindings)
		if r.IsErr() {
			return r
		}
		out = append(out, r)
	}
	return ListValue(out)
}

// macroReduce implements `recv.reduce(acc, x, step, init)`: acc and x
// are loop-variable names, init is evaluated once outside the loop,
// and step re-evaluates with both acc and x bound on each iteration
// (spec §4.6; original `reduce.rs` treats bytecode[2] as step and
// bytecode[3] as init).
func macroReduce(mc *macroCall) CelValue {
	recv := mc.eval(mc.receiver, mc.bindings)
	if recv.IsErr() {
		return recv
	}
	items, errv := iterableOf(recv)
	if errv.IsErr() {
		return errv
	}
	if len(mc.args) != 4 {
		return ErrValue(NewArgumentError("reduce expects 4 arguments, got %d", len(mc.args)))
	}
	accVar, err := identName(mc.args[0])
	if err != nil {
		return ErrValue(err.(*CelError))
	}
	loopVar, err := identName(mc.args[1])
	if err != nil {
		return ErrValue(err.(*CelError))
	}
	acc := mc.eval(mc.args[3], mc.bindings)
	if acc.IsErr() {
		return acc
	}
	for _, item := range items {
		bindings := mc.merged(accVar, acc)
		bindings[loopVar] = item
		acc = mc.eval(mc.args[2], bindings)
		if acc.IsErr() {
			return acc
		}
	}
	return acc
}
